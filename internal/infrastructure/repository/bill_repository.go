package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	domainRepo "github.com/sangkips/billing-api/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill) error {
	for i := range bill.Items {
		bill.Items[i].Position = i
	}
	return conn(ctx, r.db).Omit("Customer").Create(bill).Error
}

func (r *billRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	var bill entity.Bill
	err := conn(ctx, r.db).
		Preload("Items", orderedItems).
		Preload("Customer").
		First(&bill, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &bill, err
}

func (r *billRepository) Replace(ctx context.Context, bill *entity.Bill) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", bill.ID).Delete(&entity.BillItem{}).Error; err != nil {
			return fmt.Errorf("delete bill items: %w", err)
		}

		result := tx.Omit(clause.Associations).Save(bill)
		if result.Error != nil {
			return fmt.Errorf("save bill: %w", result.Error)
		}

		for i := range bill.Items {
			bill.Items[i].ID = uuid.Nil
			bill.Items[i].BillID = bill.ID
			bill.Items[i].Position = i
		}
		if len(bill.Items) > 0 {
			if err := tx.Create(&bill.Items).Error; err != nil {
				return fmt.Errorf("insert bill items: %w", err)
			}
		}
		return nil
	})
}

func (r *billRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&entity.BillItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Bill{}, "id = ?", id).Error
	})
}

func (r *billRepository) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := conn(ctx, r.db).Model(&entity.Bill{}).
		Scopes(CreatedBetween(params.StartDate, params.EndDate))

	if params.BillType != nil {
		query = query.Where("bill_type = ?", *params.BillType)
	}

	if params.BillCategory != nil {
		query = query.Where("bill_category = ?", *params.BillCategory)
	}

	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}

	if params.CustomerID != nil {
		query = query.Where("customer_id = ?", *params.CustomerID)
	}

	if params.Pagination != nil {
		if err := query.Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	query = query.Scopes(Paginate(params.Pagination)).Preload("Customer")
	if params.WithItems {
		query = query.Preload("Items", orderedItems)
	}

	err := query.Order("created_at DESC").Find(&bills).Error
	if params.Pagination == nil {
		total = int64(len(bills))
	}

	return bills, total, err
}

type billSequenceRepository struct {
	db *gorm.DB
}

// NewBillSequenceRepository creates a new bill sequence repository
func NewBillSequenceRepository(db *gorm.DB) domainRepo.BillSequenceRepository {
	return &billSequenceRepository{db: db}
}

// Next bumps the counter with a single conditional UPDATE. In PostgreSQL
// the updated row stays locked until the surrounding transaction ends, so
// concurrent bill creations are handed consecutive numbers.
func (r *billSequenceRepository) Next(ctx context.Context, scopeKey, seedPattern string) (int64, error) {
	var next int64

	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		bumped, err := r.bump(tx, scopeKey)
		if err != nil {
			return err
		}

		if !bumped {
			var seed int64
			q := tx.Model(&entity.Bill{})
			if seedPattern != "" {
				q = q.Where("bill_number LIKE ?", seedPattern)
			}
			if err := q.Count(&seed).Error; err != nil {
				return fmt.Errorf("seed bill sequence: %w", err)
			}

			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&entity.BillSequence{ScopeKey: scopeKey, Value: seed}).Error; err != nil {
				return fmt.Errorf("create bill sequence: %w", err)
			}

			if bumped, err = r.bump(tx, scopeKey); err != nil {
				return err
			}
			if !bumped {
				return fmt.Errorf("bill sequence %q missing after create", scopeKey)
			}
		}

		var seq entity.BillSequence
		if err := tx.Where("scope_key = ?", scopeKey).Take(&seq).Error; err != nil {
			return fmt.Errorf("read bill sequence: %w", err)
		}
		next = seq.Value
		return nil
	})

	return next, err
}

func (r *billSequenceRepository) bump(tx *gorm.DB, scopeKey string) (bool, error) {
	result := tx.Model(&entity.BillSequence{}).
		Where("scope_key = ?", scopeKey).
		Updates(map[string]interface{}{
			"value":      gorm.Expr("value + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("increment bill sequence: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
