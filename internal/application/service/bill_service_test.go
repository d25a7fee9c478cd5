package service

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

func billInput(customerID uuid.UUID, lines ...BillLineInput) *BillInput {
	return &BillInput{
		CustomerID:    customerID,
		BillType:      enum.BillTypeGST,
		BillCategory:  enum.BillCategorySales,
		GSTPercentage: decPtr("18"),
		PaymentStatus: enum.PaymentStatusUnpaid,
		Items:         lines,
	}
}

func expectCode(t *testing.T, err error, code int) *apperror.AppError {
	t.Helper()
	appErr, ok := err.(*apperror.AppError)
	if !ok {
		t.Fatalf("expected AppError with code %d, got %T %v", code, err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %d, got %d (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

func TestCreateBillMergesLinesAndTakesStock(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	bill, err := env.bills.CreateBill(ctx, billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: 2, Price: decPtr("100")},
		BillLineInput{ProductID: a.ID, Quantity: 1, Price: decPtr("100")},
	))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(bill.Items) != 1 || bill.Items[0].Quantity != 3 || !bill.Items[0].Amount.Equal(dec("300")) {
		t.Fatalf("expected one merged line of 3 x 100, got %+v", bill.Items)
	}
	if !bill.Subtotal.Equal(dec("300")) || !bill.GSTAmount.Equal(dec("54")) || !bill.Total.Equal(dec("354")) {
		t.Fatalf("unexpected totals %s %s %s", bill.Subtotal, bill.GSTAmount, bill.Total)
	}
	if !bill.PaidAmount.IsZero() || !bill.BalanceAmount.Equal(dec("354")) {
		t.Fatalf("unpaid bill should owe the total, got paid=%s balance=%s", bill.PaidAmount, bill.BalanceAmount)
	}
	if bill.Customer == nil || bill.Customer.AadharNo != "123456789012" {
		t.Fatal("expected customer to be resolved")
	}
	if got := env.stock(t, a); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}
}

func TestCreateBillDefaultsPriceAndNonGST(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Blade", 45, 10)

	in := billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 2})
	in.BillType = enum.BillTypeNonGST
	in.PaymentStatus = enum.PaymentStatusPaid

	bill, err := env.bills.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bill.Items[0].Price.Equal(dec("45")) || bill.Items[0].ProductName != "Blade" {
		t.Fatalf("expected product price and name snapshot, got %+v", bill.Items[0])
	}
	if !bill.GSTAmount.IsZero() || !bill.GSTPercentage.IsZero() {
		t.Fatalf("NON-GST bill must carry no GST, got %s @ %s", bill.GSTAmount, bill.GSTPercentage)
	}
	if !bill.PaidAmount.Equal(dec("90")) || !bill.BalanceAmount.IsZero() {
		t.Fatalf("paid bill must be settled, got paid=%s balance=%s", bill.PaidAmount, bill.BalanceAmount)
	}
	if bill.PaymentMethod != enum.PaymentMethodCash {
		t.Fatalf("expected default payment method Cash, got %s", bill.PaymentMethod)
	}
}

func TestCreateBillInsufficientStockLeavesStockUntouched(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)
	b := env.product(t, "Chuck Key", 20, 1)

	_, err := env.bills.CreateBill(ctx, billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: 4},
		BillLineInput{ProductID: b.ID, Quantity: 2},
	))
	appErr := expectCode(t, err, http.StatusConflict)

	shortage, ok := apperror.IsInsufficientStock(appErr)
	if !ok || shortage.ProductID != b.ID || shortage.Available != 1 || shortage.Requested != 2 {
		t.Fatalf("unexpected shortage %+v", shortage)
	}
	if env.stock(t, a) != 10 || env.stock(t, b) != 1 {
		t.Fatal("stock must not change when a bill is rejected")
	}

	var count int64
	env.db.Model(&entity.Bill{}).Count(&count)
	if count != 0 {
		t.Fatalf("no bill should be stored, found %d", count)
	}
}

func TestCreateBillMissingReferences(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	_, err := env.bills.CreateBill(ctx, billInput(uuid.New(), BillLineInput{ProductID: a.ID, Quantity: 1}))
	expectCode(t, err, http.StatusNotFound)

	missing := uuid.New()
	_, err = env.bills.CreateBill(ctx, billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: 1},
		BillLineInput{ProductID: missing, Quantity: 1},
	))
	appErr := expectCode(t, err, http.StatusNotFound)
	if appErr.Message != "Product "+missing.String()+" not found" {
		t.Fatalf("expected missing product to be named, got %q", appErr.Message)
	}
	if env.stock(t, a) != 10 {
		t.Fatal("stock must not change when a product is missing")
	}
}

func TestCreateBillValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")

	_, err := env.bills.CreateBill(ctx, billInput(c.ID))
	expectCode(t, err, http.StatusUnprocessableEntity)

	in := billInput(c.ID, BillLineInput{ProductID: uuid.New(), Quantity: 0})
	in.BillCategory = "Rental"
	_, err = env.bills.CreateBill(ctx, in)
	appErr := expectCode(t, err, http.StatusUnprocessableEntity)
	if len(appErr.Errors) != 2 {
		t.Fatalf("expected category and quantity errors, got %+v", appErr.Errors)
	}
}

func TestCreateBillRejectsOversizedQuantity(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	_, err := env.bills.CreateBill(ctx, billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: math.MaxInt},
		BillLineInput{ProductID: a.ID, Quantity: math.MaxInt},
	))
	expectCode(t, err, http.StatusUnprocessableEntity)

	_, err = env.bills.CreateBill(ctx, billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: MaxLineQuantity},
		BillLineInput{ProductID: a.ID, Quantity: 1},
	))
	expectCode(t, err, http.StatusUnprocessableEntity)

	if env.stock(t, a) != 10 {
		t.Fatal("stock must not change on a rejected quantity")
	}
	_, total, err := env.bills.ListBills(ctx, &repository.BillFilterParams{})
	if err != nil || total != 0 {
		t.Fatalf("expected no bills, got %d %v", total, err)
	}
}

func TestCreateBillRoundsMoneyInputs(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Washer", 1, 10)

	in := billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 2, Price: decPtr("0.125")})
	in.GSTPercentage = decPtr("12.345")
	in.PaymentStatus = enum.PaymentStatusPartial
	in.PaidAmount = dec("0.105")

	bill, err := env.bills.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	item := bill.Items[0]
	if !item.Price.Equal(dec("0.13")) || !item.Amount.Equal(dec("0.26")) {
		t.Fatalf("expected 2 x 0.13 = 0.26, got %s x %d = %s", item.Price, item.Quantity, item.Amount)
	}
	if !item.Amount.Equal(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
		t.Fatal("amount must equal price times quantity")
	}
	if !bill.GSTPercentage.Equal(dec("12.35")) || !bill.GSTAmount.Equal(dec("0.03")) || !bill.Total.Equal(dec("0.29")) {
		t.Fatalf("unexpected gst %s%% %s total %s", bill.GSTPercentage, bill.GSTAmount, bill.Total)
	}
	if !bill.PaidAmount.Equal(dec("0.11")) || !bill.BalanceAmount.Equal(dec("0.18")) {
		t.Fatalf("unexpected paid %s balance %s", bill.PaidAmount, bill.BalanceAmount)
	}
	if !bill.PaidAmount.Add(bill.BalanceAmount).Equal(bill.Total) {
		t.Fatal("paid and balance must add up to the total")
	}
}

func TestUpdateBillUnknownID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	_, err := env.bills.UpdateBill(ctx, uuid.New(), billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 2}))
	expectCode(t, err, http.StatusNotFound)
	if env.stock(t, a) != 10 {
		t.Fatal("stock must not change when the bill does not exist")
	}
}

func TestCreateBillPartialPaymentBounds(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	in := billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1})
	in.PaymentStatus = enum.PaymentStatusPartial
	in.PaidAmount = dec("118")

	_, err := env.bills.CreateBill(ctx, in)
	expectCode(t, err, http.StatusUnprocessableEntity)
	if env.stock(t, a) != 10 {
		t.Fatal("stock must not change on a rejected partial payment")
	}

	in.PaidAmount = dec("18")
	bill, err := env.bills.CreateBill(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !bill.BalanceAmount.Equal(dec("100")) {
		t.Fatalf("expected balance 100, got %s", bill.BalanceAmount)
	}
}

func TestBillNumbersAreSequential(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.bills.now = func() time.Time { return time.Date(2025, 10, 15, 10, 0, 0, 0, time.Local) }
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	first, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	nonGST := billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1})
	nonGST.BillType = enum.BillTypeNonGST
	second, err := env.bills.CreateBill(ctx, nonGST)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	third, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.BillNumber != "GST2510-0001" || second.BillNumber != "NON2510-0002" || third.BillNumber != "GST2510-0003" {
		t.Fatalf("unexpected numbers %s %s %s", first.BillNumber, second.BillNumber, third.BillNumber)
	}

	if err := env.bills.DeleteBill(ctx, third.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	fourth, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fourth.BillNumber != "GST2510-0004" {
		t.Fatalf("numbers must not be reused after a delete, got %s", fourth.BillNumber)
	}
}

func TestUpdateBillRestoresThenReapplies(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 5)
	b := env.product(t, "Bit Set", 30, 5)

	bill, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 5}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if env.stock(t, a) != 0 {
		t.Fatal("expected drill sold out")
	}

	// Needs the restored units: only valid because the old lines come back first.
	in := billInput(c.ID,
		BillLineInput{ProductID: a.ID, Quantity: 4},
		BillLineInput{ProductID: b.ID, Quantity: 2},
	)
	in.BillType = enum.BillTypeNonGST
	updated, err := env.bills.UpdateBill(ctx, bill.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if env.stock(t, a) != 1 || env.stock(t, b) != 3 {
		t.Fatalf("unexpected stock after update: drill=%d bits=%d", env.stock(t, a), env.stock(t, b))
	}
	if updated.BillNumber != bill.BillNumber || !updated.CreatedAt.Equal(bill.CreatedAt) {
		t.Fatal("bill number and creation time must be preserved")
	}
	if len(updated.Items) != 2 || !updated.Total.Equal(dec("460")) {
		t.Fatalf("unexpected updated bill %d items total %s", len(updated.Items), updated.Total)
	}

	// More than the restored stock rolls everything back.
	_, err = env.bills.UpdateBill(ctx, bill.ID, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 6}))
	expectCode(t, err, http.StatusConflict)
	if env.stock(t, a) != 1 || env.stock(t, b) != 3 {
		t.Fatal("a failed update must leave stock as it was")
	}

	if err := env.bills.DeleteBill(ctx, bill.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.stock(t, a) != 5 || env.stock(t, b) != 5 {
		t.Fatalf("delete must restore all stock: drill=%d bits=%d", env.stock(t, a), env.stock(t, b))
	}

	_, err = env.bills.GetBill(ctx, bill.ID)
	expectCode(t, err, http.StatusNotFound)
	expectCode(t, env.bills.DeleteBill(ctx, bill.ID), http.StatusNotFound)
}

func TestBillSurvivesCustomerDelete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 5)

	bill, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.customers.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}

	got, err := env.bills.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Customer != nil || got.CustomerID != c.ID {
		t.Fatal("bill should keep the customer id with no resolved customer")
	}
}

func TestListBillsDateRange(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	c := env.customer(t, "123456789012")
	a := env.product(t, "Drill", 100, 10)

	days := []time.Time{
		time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 2, 23, 30, 0, 0, time.UTC),
		time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		at := day
		env.bills.now = func() time.Time { return at }
		if _, err := env.bills.CreateBill(ctx, billInput(c.ID, BillLineInput{ProductID: a.ID, Quantity: 1})); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 2, 23, 59, 59, 999999000, time.UTC)
	bills, total, err := env.bills.ListBills(ctx, &repository.BillFilterParams{StartDate: &start, EndDate: &end})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(bills) != 2 {
		t.Fatalf("expected 2 bills in range, got %d", len(bills))
	}
	if !bills[0].CreatedAt.Equal(days[1]) || !bills[1].CreatedAt.Equal(days[0]) {
		t.Fatalf("expected newest first, got %v then %v", bills[0].CreatedAt, bills[1].CreatedAt)
	}

	nonGST := enum.BillTypeNonGST
	bills, _, err = env.bills.ListBills(ctx, &repository.BillFilterParams{BillType: &nonGST})
	if err != nil || len(bills) != 0 {
		t.Fatalf("expected no NON-GST bills, got %d (%v)", len(bills), err)
	}
}
