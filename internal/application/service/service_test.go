package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/domain/enum"
	infraRepo "github.com/sangkips/billing-api/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	bills     *BillService
	customers *CustomerService
	products  *ProductService
	dashboard *DashboardService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&entity.Customer{}, &entity.Product{}, &entity.Bill{}, &entity.BillItem{},
		&entity.BillSequence{}, &entity.IdempotencyKey{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	customerRepo := infraRepo.NewCustomerRepository(db)
	productRepo := infraRepo.NewProductRepository(db)
	billRepo := infraRepo.NewBillRepository(db)
	log := zap.NewNop()

	return &testEnv{
		db: db,
		bills: NewBillService(
			infraRepo.NewTransactor(db),
			billRepo,
			infraRepo.NewBillSequenceRepository(db),
			productRepo,
			customerRepo,
			BillingConfig{SequenceScope: SequenceScopeGlobal, DefaultGSTPercentage: decimal.NewFromInt(18)},
			log,
		),
		customers: NewCustomerService(customerRepo, log),
		products:  NewProductService(productRepo, log),
		dashboard: NewDashboardService(billRepo),
	}
}

func (e *testEnv) customer(t *testing.T, aadhar string) *entity.Customer {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), &CustomerInput{
		Name: "Asha", AadharNo: aadhar, PhoneNo: "9876543210", Address: "MG Road, Pune",
	})
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return c
}

func (e *testEnv) product(t *testing.T, name string, price int64, stock int) *entity.Product {
	t.Helper()
	p, err := e.products.CreateProduct(context.Background(), &CreateProductInput{
		Name: name, Price: decimal.NewFromInt(price), Category: enum.ProductCategoryPowerTool, Stock: stock,
	})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return p
}

func (e *testEnv) stock(t *testing.T, p *entity.Product) int {
	t.Helper()
	var fresh entity.Product
	if err := e.db.Unscoped().First(&fresh, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("failed to reload product: %v", err)
	}
	return fresh.Stock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
