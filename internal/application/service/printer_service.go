package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	"github.com/sangkips/billing-api/internal/domain/repository"
	"github.com/sangkips/billing-api/pkg/apperror"
	"github.com/sangkips/billing-api/pkg/printer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer  printer.Printer
	billRepo repository.BillRepository
	header   entity.ReceiptHeader
	width    int
	log      *zap.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, billRepo repository.BillRepository, header entity.ReceiptHeader, width int, log *zap.Logger) *PrinterService {
	return &PrinterService{
		printer:  p,
		billRepo: billRepo,
		header:   header,
		width:    width,
		log:      log.Named("printer"),
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printer.Kind() != printer.TypeNone,
		Connected:  s.printer.Ready(ctx),
		Type:       s.printer.Kind(),
	}
}

// TestPrint sends a sample receipt. The receipt is returned even when
// printing fails so callers can show it.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:        s.header,
		BillNumber:    "TEST-0001",
		Date:          "-",
		BillType:      string(enum.BillTypeNonGST),
		BillCategory:  string(enum.BillCategorySales),
		Customer:      "Printer Test",
		Lines:         []entity.ReceiptLine{{Name: "Test Item", Quantity: 2, UnitPrice: "5.00", Amount: "10.00"}},
		Subtotal:      "10.00",
		Total:         "10.00",
		PaymentStatus: string(enum.PaymentStatusPaid),
		PaymentMethod: string(enum.PaymentMethodCash),
		Paid:          "10.00",
		Balance:       "0.00",
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		return receipt, fmt.Errorf("test print failed: %w", err)
	}
	return receipt, nil
}

// PrintBill renders a bill receipt and sends it to the printer. A nil
// receipt means the bill could not be loaded; a receipt with an error means
// only the printing failed.
func (s *PrinterService) PrintBill(ctx context.Context, id uuid.UUID) (*entity.Receipt, error) {
	bill, err := s.billRepo.GetWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}

	receipt := BuildReceipt(bill, s.header)
	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		s.log.Warn("print failed", zap.String("bill_number", bill.BillNumber), zap.Error(err))
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}

	s.log.Info("receipt printed", zap.String("bill_number", bill.BillNumber), zap.String("printer", s.printer.Kind()))
	return receipt, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(entity.MoneyPlaces)
}

// BuildReceipt converts a bill into its printable view
func BuildReceipt(bill *entity.Bill, header entity.ReceiptHeader) *entity.Receipt {
	r := &entity.Receipt{
		Header:        header,
		BillNumber:    bill.BillNumber,
		Date:          bill.CreatedAt.Local().Format("02-01-2006 15:04"),
		BillType:      string(bill.BillType),
		BillCategory:  string(bill.BillCategory),
		Lines:         make([]entity.ReceiptLine, 0, len(bill.Items)),
		Subtotal:      money(bill.Subtotal),
		Total:         money(bill.Total),
		PaymentStatus: string(bill.PaymentStatus),
		PaymentMethod: string(bill.PaymentMethod),
		Paid:          money(bill.PaidAmount),
		Balance:       money(bill.BalanceAmount),
	}
	if bill.BillType == enum.BillTypeGST {
		r.GSTPercentage = bill.GSTPercentage.String()
		r.GSTAmount = money(bill.GSTAmount)
	}
	if bill.Customer != nil {
		r.Customer = bill.Customer.Name
		r.CustomerPhone = bill.Customer.PhoneNo
	}
	for _, item := range bill.Items {
		r.Lines = append(r.Lines, entity.ReceiptLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: money(item.Price),
			Amount:    money(item.Amount),
		})
	}
	return r
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewReceipt(width)

	doc.Title(r.Header.ShopName).
		Centered(r.Header.Address, r.Header.Phone)
	if r.Header.GSTIN != "" {
		doc.Centered("GSTIN: " + r.Header.GSTIN)
	}
	doc.Rule('-')

	doc.Pair("Bill No:", r.BillNumber).
		Pair("Date:", r.Date).
		Pair("Type:", r.BillType+" / "+r.BillCategory)
	if r.Customer != "" {
		doc.Pair("Customer:", r.Customer)
	}
	if r.CustomerPhone != "" {
		doc.Pair("Phone:", r.CustomerPhone)
	}
	doc.Rule('-')

	for _, line := range r.Lines {
		doc.Item(line.Name, fmt.Sprintf("%d", line.Quantity), line.UnitPrice, line.Amount)
	}
	doc.Rule('-')

	doc.Pair("Subtotal", r.Subtotal)
	if r.GSTAmount != "" {
		doc.Pair(fmt.Sprintf("GST @ %s%%", r.GSTPercentage), r.GSTAmount)
	}
	doc.Bold(true).Pair("TOTAL", r.Total).Bold(false)
	doc.Pair("Paid ("+r.PaymentMethod+")", r.Paid).
		Pair("Balance", r.Balance).
		Pair("Status", r.PaymentStatus)

	doc.Rule('-').
		Centered("Thank you for your business!").
		Cut()

	return doc.Bytes()
}
