package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-api/internal/domain/repository"
	"gorm.io/gorm"
)

// errStockShort aborts a decrement batch so its savepoint is rolled back
var errStockShort = errors.New("stock short")

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) domainRepo.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	return conn(ctx, r.db).Create(product).Error
}

func (r *productRepository) CreateBatch(ctx context.Context, products []entity.Product) error {
	if len(products) == 0 {
		return nil
	}
	return conn(ctx, r.db).CreateInBatches(products, 100).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	err := conn(ctx, r.db).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &product, err
}

// GetByIDs retrieves multiple products by their IDs in a single query
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var products []entity.Product
	err := conn(ctx, r.db).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	return conn(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Delete(&entity.Product{}, "id = ?", id).Error
}

func (r *productRepository) List(ctx context.Context, params *domainRepo.ProductFilterParams) ([]entity.Product, int64, error) {
	var products []entity.Product
	var total int64

	query := conn(ctx, r.db).Model(&entity.Product{}).
		Scopes(Search(params.Search, "name"))

	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}

	if params.Pagination != nil {
		if err := query.Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	err := query.Scopes(Paginate(params.Pagination)).
		Order("name ASC").
		Find(&products).Error
	if params.Pagination == nil {
		total = int64(len(products))
	}

	return products, total, err
}

// AtomicDecrementBatch runs
//
//	UPDATE products SET stock = stock - q WHERE id = ? AND stock >= q
//
// for every change inside one (nested) transaction. Rows are touched in id
// order so two concurrent bills lock shared products in the same order.
func (r *productRepository) AtomicDecrementBatch(ctx context.Context, changes []domainRepo.StockChange) ([]uuid.UUID, error) {
	changes = sortedChanges(changes)
	if len(changes) == 0 {
		return nil, nil
	}

	var failedIDs []uuid.UUID

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			result := tx.Model(&entity.Product{}).
				Where("id = ? AND stock >= ?", c.ProductID, c.Quantity).
				Update("stock", gorm.Expr("stock - ?", c.Quantity))

			if result.Error != nil {
				return result.Error
			}

			if result.RowsAffected == 0 {
				failedIDs = append(failedIDs, c.ProductID)
			}
		}

		if len(failedIDs) > 0 {
			return errStockShort
		}
		return nil
	})

	if errors.Is(err, errStockShort) {
		return failedIDs, nil
	}
	return failedIDs, err
}

// AtomicIncrementBatch gives stock back for each change.
func (r *productRepository) AtomicIncrementBatch(ctx context.Context, changes []domainRepo.StockChange) error {
	changes = sortedChanges(changes)
	if len(changes) == 0 {
		return nil
	}

	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			if err := tx.Model(&entity.Product{}).
				Where("id = ?", c.ProductID).
				Update("stock", gorm.Expr("stock + ?", c.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// sortedChanges merges duplicate products, drops zero quantities and orders by id.
func sortedChanges(changes []domainRepo.StockChange) []domainRepo.StockChange {
	totals := make(map[uuid.UUID]int, len(changes))
	for _, c := range changes {
		totals[c.ProductID] += c.Quantity
	}
	out := make([]domainRepo.StockChange, 0, len(totals))
	for id, q := range totals {
		if q > 0 {
			out = append(out, domainRepo.StockChange{ProductID: id, Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out
}
