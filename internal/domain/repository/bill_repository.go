package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/pkg/pagination"
)

// BillRepository defines the interface for bill data operations
type BillRepository interface {
	// Create inserts the bill together with its items
	Create(ctx context.Context, bill *entity.Bill) error
	// GetWithItems loads a bill, its items in order and its customer.
	// Returns (nil, nil) when the bill does not exist.
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error)
	// Replace overwrites the bill row and swaps its items for bill.Items
	Replace(ctx context.Context, bill *entity.Bill) error
	// Delete removes the bill and its items
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns bills newest first with their customer resolved
	List(ctx context.Context, params *BillFilterParams) ([]entity.Bill, int64, error)
}

// BillFilterParams contains filtering parameters for bill queries.
// Nil fields are not filtered on; date bounds are inclusive.
type BillFilterParams struct {
	Pagination    *pagination.PaginationParams
	BillType      *enum.BillType
	BillCategory  *enum.BillCategory
	PaymentStatus *enum.PaymentStatus
	CustomerID    *uuid.UUID
	StartDate     *time.Time
	EndDate       *time.Time
	WithItems     bool
}

// BillSequenceRepository hands out bill numbers
type BillSequenceRepository interface {
	// Next increments and returns the counter for scopeKey. A missing counter
	// is created first, seeded with the number of bills whose bill_number
	// matches seedPattern (SQL LIKE; empty counts all bills).
	Next(ctx context.Context, scopeKey, seedPattern string) (int64, error)
}
