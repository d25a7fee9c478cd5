package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-api/internal/application/service"
	"github.com/sangkips/billing-api/internal/config"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"github.com/sangkips/billing-api/internal/infrastructure/database"
	"github.com/sangkips/billing-api/internal/infrastructure/repository"
	"github.com/sangkips/billing-api/internal/infrastructure/scheduler"
	"github.com/sangkips/billing-api/internal/presentation/http/handler"
	"github.com/sangkips/billing-api/internal/presentation/http/routes"
	"github.com/sangkips/billing-api/pkg/logger"
	"github.com/sangkips/billing-api/pkg/printer"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	logCfg := logger.FromEnv(cfg.App.Env, cfg.Log.Level)
	if cfg.Log.Encoding != "" {
		logCfg.Encoding = cfg.Log.Encoding
	}
	zlog, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	// Set Gin mode based on environment
	if !cfg.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	if err := database.Migrate(db, &cfg.Database); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	billRepo := repository.NewBillRepository(db)
	sequenceRepo := repository.NewBillSequenceRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	customerService := service.NewCustomerService(customerRepo, zlog)
	productService := service.NewProductService(productRepo, zlog)
	billService := service.NewBillService(
		repository.NewTransactor(db),
		billRepo,
		sequenceRepo,
		productRepo,
		customerRepo,
		service.BillingConfig{
			SequenceScope:        cfg.Billing.SequenceScope,
			DefaultGSTPercentage: cfg.Billing.DefaultGSTPercentage,
		},
		zlog,
	)
	dashboardService := service.NewDashboardService(billRepo)

	// Initialize thermal printer
	thermalPrinter, err := printer.New(printer.Config{
		Type:      cfg.Printer.Type,
		USBPath:   cfg.Printer.USBPath,
		Address:   cfg.Printer.Address,
		OutputDir: cfg.Printer.OutputDir,
	})
	if err != nil {
		zlog.Warn("failed to initialize printer, printing disabled", zap.Error(err))
		thermalPrinter, _ = printer.New(printer.Config{Type: printer.TypeNone})
	}
	printerService := service.NewPrinterService(thermalPrinter, billRepo, entity.ReceiptHeader{
		ShopName: cfg.Shop.Name,
		Address:  cfg.Shop.Address,
		Phone:    cfg.Shop.Phone,
		GSTIN:    cfg.Shop.GSTIN,
	}, cfg.Printer.Width, zlog)

	// Background jobs
	jobs := scheduler.New(zlog)
	if err := jobs.ScheduleIdempotencyReaper(cfg.Idempotency.CleanupSchedule, idempotencyRepo); err != nil {
		zlog.Fatal("failed to schedule idempotency reaper", zap.Error(err))
	}
	jobs.Start()

	rateLimiter := routes.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := &routes.Handlers{
		Health:    handler.NewHealthHandler(cfg.App.Name, func(ctx context.Context) error { return database.Ping(ctx, db) }),
		Customer:  handler.NewCustomerHandler(customerService),
		Product:   handler.NewProductHandler(productService),
		Bill:      handler.NewBillHandler(billService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Printer:   handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		Cfg:             cfg,
		Log:             zlog,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("starting server",
			zap.String("name", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("port", cfg.App.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("printer", thermalPrinter.Kind()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	jobs.Stop(ctx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server stopped")
}
