package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/pkg/pagination"
)

// StockChange is a quantity to add to or take from one product's stock
type StockChange struct {
	ProductID uuid.UUID
	Quantity  int
}

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	CreateBatch(ctx context.Context, products []entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	// GetByIDs retrieves multiple products by their IDs in a single query (prevents N+1)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns products sorted by name
	List(ctx context.Context, params *ProductFilterParams) ([]entity.Product, int64, error)
	// AtomicDecrementBatch takes stock only where enough is left
	// (stock >= quantity). If any product falls short nothing is changed and
	// the short product IDs are returned with a nil error.
	AtomicDecrementBatch(ctx context.Context, changes []StockChange) (failedIDs []uuid.UUID, err error)
	// AtomicIncrementBatch gives stock back. Products that no longer exist are skipped.
	AtomicIncrementBatch(ctx context.Context, changes []StockChange) error
}

// ProductFilterParams contains filtering parameters for product queries
type ProductFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Category   *enum.ProductCategory
}
