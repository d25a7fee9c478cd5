package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/spreadsheet"
	"github.com/sangkips/billing-api/pkg/validator"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportColumns are the header names expected in a product import sheet
var ImportColumns = []string{"name", "price", "category", "stock", "description"}

// ProductService handles product-related operations
type ProductService struct {
	productRepo repository.ProductRepository
	log         *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository, log *zap.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, log: log.Named("product")}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Name        string               `json:"name" validate:"required"`
	Price       decimal.Decimal      `json:"price" validate:"gte=0"`
	Category    enum.ProductCategory `json:"category" validate:"omitempty,enum"`
	Stock       int                  `json:"stock" validate:"gte=0"`
	Description *string              `json:"description"`
}

// UpdateProductInput carries only the fields to change
type UpdateProductInput struct {
	Name        *string               `json:"name" validate:"omitempty,min=1"`
	Price       *decimal.Decimal      `json:"price" validate:"omitempty,gte=0"`
	Category    *enum.ProductCategory `json:"category" validate:"omitempty,enum"`
	Stock       *int                  `json:"stock" validate:"omitempty,gte=0"`
	Description *string               `json:"description"`
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Category == "" {
		input.Category = enum.ProductCategoryPowerTool
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	product := &entity.Product{
		Name:        input.Name,
		Price:       input.Price.Round(entity.MoneyPlaces),
		Category:    input.Category,
		Stock:       input.Stock,
		Description: input.Description,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.Int("stock", product.Stock),
	)
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products sorted by name
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) ([]entity.Product, int64, error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	if products == nil {
		products = []entity.Product{}
	}
	return products, total, nil
}

// UpdateProduct applies the fields present in input
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = input.Price.Round(entity.MoneyPlaces)
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Description != nil {
		product.Description = input.Description
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// DeleteProduct soft deletes a product. Bill lines keep their snapshot.
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, id)
}

// ImportResult contains the result of a product import operation
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError describes an error for a specific row during import
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportProducts reads an .xlsx sheet with ImportColumns headers and
// bulk-creates the valid rows. Invalid rows are reported and skipped.
func (s *ProductService) ImportProducts(ctx context.Context, r io.Reader) (*ImportResult, error) {
	rows, err := spreadsheet.ReadRows(r)
	if err != nil {
		return nil, apperror.NewBadRequestError("Could not read spreadsheet: " + err.Error())
	}

	result := &ImportResult{TotalRows: len(rows)}
	var rowErrors []ImportRowError
	var valid []entity.Product

	for _, row := range rows {
		product, rowErr := parseImportRow(row)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		valid = append(valid, product)
	}

	if len(valid) > 0 {
		if err := s.productRepo.CreateBatch(ctx, valid); err != nil {
			return nil, fmt.Errorf("import products: %w", err)
		}
	}

	result.Successful = len(valid)
	result.Failed = len(rowErrors)
	result.Errors = rowErrors

	s.log.Info("products imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ImportTemplate returns an empty import workbook with the expected headers
// and one example row.
func (s *ProductService) ImportTemplate() ([]byte, error) {
	return spreadsheet.Write("Products", ImportColumns, [][]interface{}{
		{"Angle Grinder 100mm", "2499.00", string(enum.ProductCategoryPowerTool), 5, "750W"},
	})
}

func parseImportRow(row spreadsheet.Row) (entity.Product, *ImportRowError) {
	fail := func(field, msg string) (entity.Product, *ImportRowError) {
		return entity.Product{}, &ImportRowError{Row: row.Line, Field: field, Message: msg}
	}

	name := row.Get("name")
	if name == "" {
		return fail("name", "Name is required")
	}

	price := decimal.Zero
	if raw := row.Get("price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil || p.IsNegative() {
			return fail("price", fmt.Sprintf("Invalid price %q", raw))
		}
		price = p.Round(entity.MoneyPlaces)
	}

	category := enum.ProductCategoryPowerTool
	if raw := strings.ToLower(row.Get("category")); raw != "" {
		category = enum.ProductCategory(raw)
		if !category.IsValid() {
			return fail("category", fmt.Sprintf("Unknown category %q", raw))
		}
	}

	stock := 0
	if raw := row.Get("stock"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
			return fail("stock", fmt.Sprintf("Invalid stock %q", raw))
		}
		stock = int(d.IntPart())
	}

	product := entity.Product{Name: name, Price: price, Category: category, Stock: stock}
	if desc := row.Get("description"); desc != "" {
		product.Description = &desc
	}
	return product, nil
}
