package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a stocked item that bills draw from
type Product struct {
	ID          uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	Name        string               `gorm:"size:255;not null;index" json:"name"`
	Price       decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Category    enum.ProductCategory `gorm:"size:20;not null;default:'power-tool'" json:"category"`
	Stock       int                  `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	Description *string              `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	DeletedAt   gorm.DeletedAt       `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
