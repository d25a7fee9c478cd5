package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-api/internal/application/service"
	"github.com/sangkips/billing-api/internal/config"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/billing-api/internal/infrastructure/repository"
	"github.com/sangkips/billing-api/internal/presentation/http/handler"
	"github.com/sangkips/billing-api/pkg/printer"
	"github.com/sangkips/billing-api/pkg/spreadsheet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
	Meta    struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	log := zap.NewNop()
	cfg := &config.Config{
		App:         config.AppConfig{Name: "billing-api"},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}

	customerRepo := infraRepo.NewCustomerRepository(db)
	productRepo := infraRepo.NewProductRepository(db)
	billRepo := infraRepo.NewBillRepository(db)
	billService := service.NewBillService(
		infraRepo.NewTransactor(db), billRepo, infraRepo.NewBillSequenceRepository(db),
		productRepo, customerRepo,
		service.BillingConfig{SequenceScope: service.SequenceScopeGlobal, DefaultGSTPercentage: decimal.NewFromInt(18)},
		log,
	)
	none, _ := printer.New(printer.Config{Type: printer.TypeNone})

	router := Setup(&Handlers{
		Health:    handler.NewHealthHandler(cfg.App.Name, func(ctx context.Context) error { return database.Ping(ctx, db) }),
		Customer:  handler.NewCustomerHandler(service.NewCustomerService(customerRepo, log)),
		Product:   handler.NewProductHandler(service.NewProductService(productRepo, log)),
		Bill:      handler.NewBillHandler(billService),
		Dashboard: handler.NewDashboardHandler(service.NewDashboardService(billRepo)),
		Printer: handler.NewPrinterHandler(service.NewPrinterService(none, billRepo,
			entity.ReceiptHeader{ShopName: "Kale Tools"}, printer.Width80mm, log)),
	}, &Deps{
		Cfg:             cfg,
		Log:             log,
		IdempotencyRepo: infraRepo.NewIdempotencyRepository(db),
	})

	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) create(t *testing.T, path, body string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d %s", path, w.Code, w.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	return out.ID
}

func (s *testServer) stock(t *testing.T, productID string) int {
	t.Helper()
	w, env := s.do(t, http.MethodGet, "/api/v1/products/"+productID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get product: %d %s", w.Code, w.Body.String())
	}
	var p struct {
		Stock int `json:"stock"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return p.Stock
}

func TestBillLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)

	customerID := s.create(t, "/api/v1/customers",
		`{"name":"Asha","aadhar_no":"123456789012","phone_no":"9876543210","address":"MG Road"}`)
	productID := s.create(t, "/api/v1/products",
		`{"name":"Drill","price":"250.00","stock":"5"}`)

	body := fmt.Sprintf(`{"customer_id":%q,"bill_type":"GST","bill_category":"Sales","gst_percentage":18,
		"payment_status":"Paid","items":[{"product_id":%q,"quantity":2}]}`, customerID, productID)

	w, env := s.do(t, http.MethodPost, "/api/v1/bills", body, "Idempotency-Key", "till-1-0001")
	if w.Code != http.StatusCreated {
		t.Fatalf("create bill: %d %s", w.Code, w.Body.String())
	}
	var bill struct {
		ID         string          `json:"id"`
		BillNumber string          `json:"bill_number"`
		Total      decimal.Decimal `json:"total"`
		Customer   struct {
			Name string `json:"name"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(env.Data, &bill); err != nil {
		t.Fatalf("decode bill: %v", err)
	}
	if !bill.Total.Equal(decimal.NewFromInt(590)) || bill.Customer.Name != "Asha" {
		t.Fatalf("unexpected bill %+v", bill)
	}
	if s.stock(t, productID) != 3 {
		t.Fatal("expected stock 3 after bill")
	}

	replay, _ := s.do(t, http.MethodPost, "/api/v1/bills", body, "Idempotency-Key", "till-1-0001")
	if replay.Code != http.StatusCreated || replay.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatalf("expected replayed 201, got %d", replay.Code)
	}
	if replay.Body.String() != w.Body.String() {
		t.Fatal("replayed body differs")
	}
	if s.stock(t, productID) != 3 {
		t.Fatal("replay must not take stock again")
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/bills", body+" ", "Idempotency-Key", "till-1-0001")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("reused key with new body: expected 422, got %d", w.Code)
	}

	tooMany := fmt.Sprintf(`{"customer_id":%q,"bill_type":"NON-GST","bill_category":"Repair",
		"items":[{"product_id":%q,"quantity":10}]}`, customerID, productID)
	w, env = s.do(t, http.MethodPost, "/api/v1/bills", tooMany)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d %s", w.Code, w.Body.String())
	}
	var shortage struct {
		Available int `json:"available"`
		Requested int `json:"requested"`
	}
	if err := json.Unmarshal(env.Errors, &shortage); err != nil {
		t.Fatalf("decode shortage: %v", err)
	}
	if shortage.Available != 3 || shortage.Requested != 10 {
		t.Fatalf("unexpected shortage %s", env.Errors)
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/bills?type=GST&status=Paid&customer_id="+customerID, "")
	var list []json.RawMessage
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode bills: %v", err)
	}
	if w.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}

	w, env = s.do(t, http.MethodGet, "/api/v1/dashboard?range=today", "")
	var stats struct {
		TotalBills int             `json:"total_bills"`
		GSTBills   int             `json:"gst_bills"`
		Revenue    decimal.Decimal `json:"total_revenue"`
	}
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if w.Code != http.StatusOK || stats.TotalBills != 1 || stats.GSTBills != 1 || !stats.Revenue.Equal(decimal.NewFromInt(590)) {
		t.Fatalf("dashboard: %d %s", w.Code, w.Body.String())
	}

	w, env = s.do(t, http.MethodPost, "/api/v1/bills/"+bill.ID+"/print", "")
	if w.Code != http.StatusOK || env.Message != "Receipt generated but printing failed" {
		t.Fatalf("print with disabled printer: %d %s", w.Code, w.Body.String())
	}

	w, _ = s.do(t, http.MethodDelete, "/api/v1/bills/"+bill.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if s.stock(t, productID) != 5 {
		t.Fatal("expected stock restored to 5")
	}
	w, _ = s.do(t, http.MethodGet, "/api/v1/bills/"+bill.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestRequestErrors(t *testing.T) {
	s := setupServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"malformed json", http.MethodPost, "/api/v1/customers", `{"name":`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/bills/not-a-uuid", "", http.StatusBadRequest},
		{"missing customer", http.MethodGet, "/api/v1/customers/6f1c8a52-2d0e-4d59-9a57-3f1f5d0c9b11", "", http.StatusNotFound},
		{"customer validation", http.MethodPost, "/api/v1/customers", `{"name":"A","aadhar_no":"1","phone_no":"2","address":"x"}`, http.StatusUnprocessableEntity},
		{"unknown bill type", http.MethodPost, "/api/v1/bills", `{"bill_type":"VAT"}`, http.StatusUnprocessableEntity},
		{"unknown category filter", http.MethodGet, "/api/v1/products?category=tools", "", http.StatusUnprocessableEntity},
		{"unknown status filter", http.MethodGet, "/api/v1/bills?status=Refunded", "", http.StatusUnprocessableEntity},
		{"bad date filter", http.MethodGet, "/api/v1/bills?start_date=03/05/2026", "", http.StatusUnprocessableEntity},
		{"bad dashboard range", http.MethodGet, "/api/v1/dashboard?range=year", "", http.StatusUnprocessableEntity},
		{"fractional stock", http.MethodPost, "/api/v1/products", `{"name":"Saw","price":1,"stock":"2.5"}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := s.do(t, tc.method, tc.path, tc.body)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d %s", tc.code, w.Code, w.Body.String())
			}
			if env.Success || env.Meta.RequestID == "" {
				t.Fatalf("expected error envelope with request id, got %s", w.Body.String())
			}
		})
	}
}

func TestListPagination(t *testing.T) {
	s := setupServer(t)
	for i := 0; i < 3; i++ {
		s.create(t, "/api/v1/customers", fmt.Sprintf(
			`{"name":"C%d","aadhar_no":"12345678901%d","phone_no":"9876543210","address":"Pune"}`, i, i))
	}

	_, env := s.do(t, http.MethodGet, "/api/v1/customers?page=2&per_page=2", "")
	var page struct {
		Items      []json.RawMessage `json:"items"`
		Pagination struct {
			Total   int  `json:"total"`
			HasPrev bool `json:"has_prev"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Pagination.Total != 3 || !page.Pagination.HasPrev {
		t.Fatalf("unexpected page %s", env.Data)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/customers?search=c1", "")
	var all []json.RawMessage
	_ = json.Unmarshal(env.Data, &all)
	if len(all) != 1 {
		t.Fatalf("expected one search match, got %s", env.Data)
	}
}

func TestProductImportOverHTTP(t *testing.T) {
	s := setupServer(t)

	sheet, err := spreadsheet.Write("Products", service.ImportColumns, [][]interface{}{
		{"Hammer Drill", "3499", "power-tool", "3", ""},
		{"", "10", "other", "1", ""},
	})
	if err != nil {
		t.Fatalf("write sheet: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "products.xlsx")
	_, _ = part.Write(sheet)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	var result service.ImportResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Successful != 1 || result.Failed != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("unexpected import result %+v", result)
	}

	w, _ = s.do(t, http.MethodPost, "/api/v1/products/import", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", w.Code)
	}

	w, _ = s.do(t, http.MethodGet, "/api/v1/products/import/template", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Disposition") == "" {
		t.Fatalf("template: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	w, _ := s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	sqlDB, _ := s.db.DB()
	_ = sqlDB.Close()
	w, _ = s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with a closed db, got %d", w.Code)
	}
}
