package request

import (
	"bytes"
	"fmt"

	"github.com/sangkips/billing-api/internal/application/service"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// FlexInt decodes a whole number given either as a JSON number or as a
// numeric string ("7").
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(raw))
	if err != nil || !d.Equal(d.Truncate(0)) {
		return fmt.Errorf("%s is not a whole number", data)
	}
	*f = FlexInt(d.IntPart())
	return nil
}

// CreateProductRequest represents a product creation request. Price
// accepts "12.50" as well as 12.5.
type CreateProductRequest struct {
	Name        string               `json:"name"`
	Price       decimal.Decimal      `json:"price"`
	Category    enum.ProductCategory `json:"category"`
	Stock       FlexInt              `json:"stock"`
	Description *string              `json:"description"`
}

// ToInput converts the request to the service input
func (r *CreateProductRequest) ToInput() *service.CreateProductInput {
	return &service.CreateProductInput{
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Stock:       int(r.Stock),
		Description: r.Description,
	}
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string               `json:"name"`
	Price       *decimal.Decimal      `json:"price"`
	Category    *enum.ProductCategory `json:"category"`
	Stock       *FlexInt              `json:"stock"`
	Description *string               `json:"description"`
}

// ToInput converts the request to the service input
func (r *UpdateProductRequest) ToInput() *service.UpdateProductInput {
	input := &service.UpdateProductInput{
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
	}
	if r.Stock != nil {
		stock := int(*r.Stock)
		input.Stock = &stock
	}
	return input
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     string `form:"page"`
	PerPage  string `form:"per_page"`
}
