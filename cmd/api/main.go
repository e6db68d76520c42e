package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"

	"invoice-recon/internal/config"
	"invoice-recon/internal/handler"
	"invoice-recon/internal/metrics"
	"invoice-recon/internal/repository"
	"invoice-recon/internal/service"
	"invoice-recon/pkg/logger"
)

// @title Invoice Reconciliation API
// @version 1.0
// @description API for reconciling ERP invoices against bank statements

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting Invoice Reconciliation Service")

	engineCfg, err := cfg.Reconciliation.EngineConfig()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Invalid reconciliation configuration")
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	logger.GetLogger().Info("Database connection established")

	m := metrics.New()

	invoiceRepo := repository.NewInvoiceRepository(db)
	reconRepo := repository.NewReconciliationRepository(db)

	invoiceService := service.NewInvoiceService(invoiceRepo)
	reconService, err := service.NewReconciliationService(
		invoiceRepo,
		reconRepo,
		engineCfg,
		m,
		cfg.App.BatchSize,
		cfg.Report.OutputDir,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to create reconciliation service")
	}

	router := handler.NewRouter(
		handler.NewReconciliationHandler(reconService),
		handler.NewInvoiceHandler(invoiceService),
		m,
	)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}
