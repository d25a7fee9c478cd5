package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// Bill numbering scopes
const (
	SequenceScopeGlobal      = "global"
	SequenceScopeMonthly     = "monthly"
	SequenceScopeMonthlyType = "monthly_type"
)

// MaxLineQuantity bounds a bill line, before and after repeated lines merge
const MaxLineQuantity = 1000000

var hundred = decimal.NewFromInt(100)

// BillLineInput is one requested line of a bill
type BillLineInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"min=1,max=1000000"`
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
}

// MergedLine is a bill line after repeated products were folded together
type MergedLine struct {
	ProductID uuid.UUID
	Quantity  int
	Price     *decimal.Decimal
}

// BillTotals holds every derived money value of a bill
type BillTotals struct {
	Subtotal      decimal.Decimal
	GSTPercentage decimal.Decimal
	GSTAmount     decimal.Decimal
	Total         decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
}

// MergeItems folds lines that repeat a product into the first line for that
// product, adding quantities. Two explicit prices that differ for the same
// product are rejected.
func MergeItems(lines []BillLineInput) ([]MergedLine, error) {
	merged := make([]MergedLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))

	for i, line := range lines {
		pos, seen := index[line.ProductID]
		if !seen {
			index[line.ProductID] = len(merged)
			merged = append(merged, MergedLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     roundMoney(line.Price),
			})
			continue
		}

		m := &merged[pos]
		if m.Quantity > MaxLineQuantity-line.Quantity {
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].quantity", i),
				fmt.Sprintf("total for product %s must not exceed %d", line.ProductID, MaxLineQuantity))
		}
		m.Quantity += line.Quantity
		switch {
		case line.Price == nil:
		case m.Price == nil:
			m.Price = roundMoney(line.Price)
		case !m.Price.Equal(line.Price.Round(entity.MoneyPlaces)):
			return nil, apperror.NewFieldError(fmt.Sprintf("items[%d].price", i),
				fmt.Sprintf("conflicts with an earlier line for product %s", line.ProductID))
		}
	}
	return merged, nil
}

func roundMoney(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(entity.MoneyPlaces)
	return &r
}

// BuildItems turns merged lines into bill items, snapshotting the product
// name and falling back to the product's current price. Every product must
// be present in products.
func BuildItems(lines []MergedLine, products map[uuid.UUID]*entity.Product) []entity.BillItem {
	items := make([]entity.BillItem, 0, len(lines))
	for i, line := range lines {
		p := products[line.ProductID]
		price := p.Price
		if line.Price != nil {
			price = *line.Price
		}
		items = append(items, entity.BillItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       price,
			Amount:      price.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Position:    i,
		})
	}
	return items
}

// ComputeTotals derives subtotal, GST, total, paid and balance. GST is
// rounded to two places; NON-GST bills carry a zero percentage.
func ComputeTotals(items []entity.BillItem, billType enum.BillType, gstPct decimal.Decimal,
	status enum.PaymentStatus, paid decimal.Decimal) (BillTotals, error) {

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}

	t := BillTotals{Subtotal: subtotal, GSTPercentage: decimal.Zero, GSTAmount: decimal.Zero}
	if billType == enum.BillTypeGST {
		t.GSTPercentage = gstPct
		t.GSTAmount = subtotal.Mul(gstPct).Div(hundred).Round(entity.MoneyPlaces)
	}
	t.Total = subtotal.Add(t.GSTAmount)

	switch status {
	case enum.PaymentStatusPaid:
		t.PaidAmount = t.Total
	case enum.PaymentStatusUnpaid:
		t.PaidAmount = decimal.Zero
	case enum.PaymentStatusPartial:
		if !paid.IsPositive() || paid.GreaterThanOrEqual(t.Total) {
			return BillTotals{}, apperror.NewFieldError("paid_amount",
				fmt.Sprintf("must be greater than 0 and less than the total %s", t.Total.StringFixed(entity.MoneyPlaces)))
		}
		t.PaidAmount = paid
	default:
		return BillTotals{}, apperror.NewFieldError("payment_status", fmt.Sprintf("invalid value %s", status))
	}

	t.BalanceAmount = t.Total.Sub(t.PaidAmount)
	return t, nil
}

// FormatBillNumber renders {GST|NON}{YY}{MM}-{seq}, seq zero padded to four digits.
func FormatBillNumber(billType enum.BillType, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%s-%04d", billType.NumberPrefix(), at.Format("0601"), seq)
}

// SequenceScope returns the counter key and the LIKE pattern of bill numbers
// that belong to it, used to seed a counter that does not exist yet.
func SequenceScope(scope string, billType enum.BillType, at time.Time) (key, pattern string) {
	yymm := at.Format("0601")
	switch scope {
	case SequenceScopeMonthly:
		return yymm, "%" + yymm + "-%"
	case SequenceScopeMonthlyType:
		return billType.NumberPrefix() + "-" + yymm, billType.NumberPrefix() + yymm + "-%"
	default:
		return SequenceScopeGlobal, ""
	}
}
