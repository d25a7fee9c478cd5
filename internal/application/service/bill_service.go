package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	infraRepo "github.com/sangkips/billing-api/internal/infrastructure/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/validator"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillService keeps bill totals and product stock consistent across bill
// create, update and delete.
type BillService struct {
	tx           repository.Transactor
	billRepo     repository.BillRepository
	sequenceRepo repository.BillSequenceRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	cfg          BillingConfig
	log          *zap.Logger

	// mu serializes bill mutations within the process
	mu  sync.Mutex
	now func() time.Time
}

// BillingConfig holds the numbering scope and GST default
type BillingConfig struct {
	SequenceScope        string
	DefaultGSTPercentage decimal.Decimal
}

// NewBillService creates a new bill service
func NewBillService(
	tx repository.Transactor,
	billRepo repository.BillRepository,
	sequenceRepo repository.BillSequenceRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	cfg BillingConfig,
	log *zap.Logger,
) *BillService {
	return &BillService{
		tx:           tx,
		billRepo:     billRepo,
		sequenceRepo: sequenceRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		cfg:          cfg,
		log:          log.Named("bill"),
		now:          time.Now,
	}
}

// BillInput is the payload for creating a bill and for replacing one
type BillInput struct {
	CustomerID    uuid.UUID          `json:"customer_id" validate:"required"`
	BillType      enum.BillType      `json:"bill_type" validate:"required,enum"`
	BillCategory  enum.BillCategory  `json:"bill_category" validate:"required,enum"`
	GSTPercentage *decimal.Decimal   `json:"gst_percentage" validate:"omitempty,gte=0,lte=100"`
	PaymentStatus enum.PaymentStatus `json:"payment_status" validate:"omitempty,enum"`
	PaymentMethod enum.PaymentMethod `json:"payment_method" validate:"omitempty,enum"`
	PaidAmount    decimal.Decimal    `json:"paid_amount" validate:"gte=0"`
	Items         []BillLineInput    `json:"items" validate:"required,min=1,dive"`
}

func (s *BillService) prepare(input *BillInput) ([]MergedLine, error) {
	if input.PaymentStatus == "" {
		input.PaymentStatus = enum.PaymentStatusUnpaid
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enum.PaymentMethodCash
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}
	input.GSTPercentage = roundMoney(input.GSTPercentage)
	input.PaidAmount = input.PaidAmount.Round(entity.MoneyPlaces)
	return MergeItems(input.Items)
}

func (s *BillService) gstPercentage(input *BillInput) decimal.Decimal {
	if input.GSTPercentage != nil {
		return *input.GSTPercentage
	}
	return s.cfg.DefaultGSTPercentage
}

// CreateBill validates every line, takes the stock and stores the bill
// under a freshly issued number, all in one transaction.
func (s *BillService) CreateBill(ctx context.Context, input *BillInput) (*entity.Bill, error) {
	lines, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var bill *entity.Bill
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireCustomer(ctx, input.CustomerID); err != nil {
			return err
		}

		items, totals, err := s.takeStock(ctx, lines, input)
		if err != nil {
			return err
		}

		now := s.now()
		key, pattern := SequenceScope(s.cfg.SequenceScope, input.BillType, now)
		seq, err := s.sequenceRepo.Next(ctx, key, pattern)
		if err != nil {
			return fmt.Errorf("next bill number: %w", err)
		}

		bill = &entity.Bill{
			BillNumber:    FormatBillNumber(input.BillType, now, seq),
			CustomerID:    input.CustomerID,
			BillType:      input.BillType,
			BillCategory:  input.BillCategory,
			PaymentStatus: input.PaymentStatus,
			PaymentMethod: input.PaymentMethod,
			CreatedAt:     now.UTC(),
			Items:         items,
		}
		applyTotals(bill, totals)

		if err := s.billRepo.Create(ctx, bill); err != nil {
			if infraRepo.IsUniqueViolation(err) {
				return apperror.NewConflictError("Bill number " + bill.BillNumber + " is already taken")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.Int("items", len(bill.Items)),
		zap.String("total", bill.Total.StringFixed(entity.MoneyPlaces)),
	)
	return s.GetBill(ctx, bill.ID)
}

// GetBill retrieves a bill with its items and customer
func (s *BillService) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// ListBills returns bills newest first
func (s *BillService) ListBills(ctx context.Context, params *repository.BillFilterParams) ([]entity.Bill, int64, error) {
	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	if bills == nil {
		bills = []entity.Bill{}
	}
	return bills, total, nil
}

// UpdateBill gives back the stock of every original line, then validates and
// takes stock for the new lines. Bill number and creation time are kept.
func (s *BillService) UpdateBill(ctx context.Context, id uuid.UUID, input *BillInput) (*entity.Bill, error) {
	lines, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var bill *entity.Bill
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.GetBill(ctx, id)
		if err != nil {
			return err
		}
		if err := s.requireCustomer(ctx, input.CustomerID); err != nil {
			return err
		}

		if err := s.productRepo.AtomicIncrementBatch(ctx, stockChanges(existing.Items)); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}

		items, totals, err := s.takeStock(ctx, lines, input)
		if err != nil {
			return err
		}

		bill = existing
		bill.Customer = nil
		bill.CustomerID = input.CustomerID
		bill.BillType = input.BillType
		bill.BillCategory = input.BillCategory
		bill.PaymentStatus = input.PaymentStatus
		bill.PaymentMethod = input.PaymentMethod
		bill.Items = items
		applyTotals(bill, totals)

		return s.billRepo.Replace(ctx, bill)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bill updated",
		zap.String("bill_id", id.String()),
		zap.String("bill_number", bill.BillNumber),
		zap.Int("items", len(bill.Items)),
	)
	return s.GetBill(ctx, id)
}

// DeleteBill gives back the stock of every line and removes the bill
func (s *BillService) DeleteBill(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var number string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		bill, err := s.GetBill(ctx, id)
		if err != nil {
			return err
		}
		number = bill.BillNumber

		if err := s.productRepo.AtomicIncrementBatch(ctx, stockChanges(bill.Items)); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
		return s.billRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info("bill deleted", zap.String("bill_id", id.String()), zap.String("bill_number", number))
	return nil
}

func (s *BillService) requireCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer == nil {
		return apperror.NewNotFoundError("Customer")
	}
	return nil
}

// takeStock checks every line against current stock before anything is
// changed, prices the lines and then decrements stock with guarded updates.
func (s *BillService) takeStock(ctx context.Context, lines []MergedLine, input *BillInput) ([]entity.BillItem, BillTotals, error) {
	ids := make([]uuid.UUID, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, BillTotals{}, err
	}
	productMap := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	for _, l := range lines {
		p, ok := productMap[l.ProductID]
		if !ok {
			return nil, BillTotals{}, apperror.NewNotFoundError(fmt.Sprintf("Product %s", l.ProductID))
		}
		if p.Stock < l.Quantity {
			return nil, BillTotals{}, apperror.NewInsufficientStockError(apperror.StockShortage{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   l.Quantity,
			})
		}
	}

	items := BuildItems(lines, productMap)
	totals, err := ComputeTotals(items, input.BillType, s.gstPercentage(input), input.PaymentStatus, input.PaidAmount)
	if err != nil {
		return nil, BillTotals{}, err
	}

	failed, err := s.productRepo.AtomicDecrementBatch(ctx, stockChanges(items))
	if err != nil {
		return nil, BillTotals{}, fmt.Errorf("decrement stock: %w", err)
	}
	if len(failed) > 0 {
		return nil, BillTotals{}, s.shortage(ctx, items, failed)
	}

	return items, totals, nil
}

// shortage builds the error for a guarded decrement that lost a race,
// reporting the stock as it is now.
func (s *BillService) shortage(ctx context.Context, items []entity.BillItem, failed []uuid.UUID) error {
	failedSet := make(map[uuid.UUID]bool, len(failed))
	for _, id := range failed {
		failedSet[id] = true
	}
	for _, item := range items {
		if !failedSet[item.ProductID] {
			continue
		}
		available := 0
		if p, err := s.productRepo.GetByID(ctx, item.ProductID); err == nil && p != nil {
			available = p.Stock
		}
		s.log.Warn("stock taken concurrently",
			zap.String("product_id", item.ProductID.String()),
			zap.Int("available", available),
			zap.Int("requested", item.Quantity),
		)
		return apperror.NewInsufficientStockError(apperror.StockShortage{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Available:   available,
			Requested:   item.Quantity,
		})
	}
	return apperror.NewConflictError("Stock changed while the bill was being saved")
}

func stockChanges(items []entity.BillItem) []repository.StockChange {
	changes := make([]repository.StockChange, 0, len(items))
	for _, item := range items {
		changes = append(changes, repository.StockChange{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return changes
}

func applyTotals(bill *entity.Bill, t BillTotals) {
	bill.Subtotal = t.Subtotal
	bill.GSTPercentage = t.GSTPercentage
	bill.GSTAmount = t.GSTAmount
	bill.Total = t.Total
	bill.PaidAmount = t.PaidAmount
	bill.BalanceAmount = t.BalanceAmount
}
