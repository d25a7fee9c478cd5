package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is an invoice raised against a customer. Its items consume product stock.
type Bill struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	BillNumber    string             `gorm:"size:32;uniqueIndex;not null" json:"bill_number"`
	CustomerID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"customer_id"`
	BillType      enum.BillType      `gorm:"size:10;not null;index" json:"bill_type"`
	BillCategory  enum.BillCategory  `gorm:"size:10;not null;index" json:"bill_category"`
	Subtotal      decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	GSTPercentage decimal.Decimal    `gorm:"column:gst_percentage;type:numeric(5,2);not null;default:0" json:"gst_percentage"`
	GSTAmount     decimal.Decimal    `gorm:"column:gst_amount;type:numeric(14,2);not null;default:0" json:"gst_amount"`
	Total         decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	PaymentStatus enum.PaymentStatus `gorm:"size:10;not null;default:'Unpaid';index" json:"payment_status"`
	PaymentMethod enum.PaymentMethod `gorm:"size:10;not null;default:'Cash'" json:"payment_method"`
	PaidAmount    decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"paid_amount"`
	BalanceAmount decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"balance_amount"`
	CreatedAt     time.Time          `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Relationships
	Customer *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items    []BillItem `gorm:"foreignKey:BillID" json:"items"`
}

// BeforeCreate generates a UUID before creating a new bill
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Bill model
func (Bill) TableName() string {
	return "bills"
}

// BillItem is one line of a bill. Name and price are snapshots taken when the
// bill was written, so later product edits do not change old bills.
type BillItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BillID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Position    int             `gorm:"not null;default:0" json:"-"`
}

// BeforeCreate generates a UUID before creating a new bill item
func (i *BillItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the BillItem model
func (BillItem) TableName() string {
	return "bill_items"
}
