package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spendscan/internal/api"
	"spendscan/internal/api/handlers"
	"spendscan/internal/repository"
	"spendscan/internal/service"
	"spendscan/pkg/config"
	"spendscan/pkg/logger"
	"spendscan/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting spendscan service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db, appLogger); err != nil {
		appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
	}

	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	budgetRepo := repository.NewBudgetRepository(db, appLogger)

	// External clients are stateless; construct them once and inject.
	hfClient := service.NewHFClient(&cfg.HuggingFace, appLogger)
	ocrService := service.NewOCRService(&cfg.OCR, appLogger)
	merchantService := service.NewMerchantService(hfClient, appLogger)

	processor := service.NewProcessorService(receiptRepo, ocrService, merchantService, &cfg.Processor, appLogger)
	processor.Start(ctx)

	receiptService := service.NewReceiptService(receiptRepo, processor, cfg.Uploads.Dir, appLogger)
	analyticsService := service.NewAnalyticsService(receiptRepo, budgetRepo, appLogger)
	budgetService := service.NewBudgetService(budgetRepo, receiptRepo, appLogger)

	receiptHandler := handlers.NewReceiptHandler(receiptService, cfg.Uploads.MaxSizeBytes, appLogger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, appLogger)
	budgetHandler := handlers.NewBudgetHandler(budgetService, appLogger)

	app := api.SetupRouter(receiptHandler, analyticsHandler, budgetHandler, cfg.Uploads.MaxSizeBytes)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	// Let in-flight extraction jobs finish before exiting.
	processor.Shutdown()
}
