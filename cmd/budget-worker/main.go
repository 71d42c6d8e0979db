package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/eval"
	"budget/internal/export"
	gexport "budget/internal/export/google"
	"budget/internal/export/memory"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger().WithComponent(log.ComponentWorker)
	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Choose the forecast export sink.
	var sink export.ForecastWriter
	switch cfg.ExportBackend {
	case "sheets":
		client, err := gexport.New(context.Background(), gexport.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets export", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Initialized Google Sheets export", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		sink = memory.New()
		logger.Info("Initialized in-memory export", "backend", cfg.ExportBackend)
	}

	// Initialize AMQP client for consuming forecast requests
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Periodically evict stale parsed formulas.
	caches := cache.NewManager()
	caches.Register(eval.ASTCache())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	forecastService := services.NewForecastService(
		sqliteRepo,
		sink,
		amqpClient,
		core.AccountNumber(cfg.DefaultAccount),
	)

	forecastWorker := worker.NewForecastWorker(
		forecastService,
		sqliteRepo,
		cfg.ForecastHorizon,
		cfg.ForecastInterval,
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		logger.Info("Shutting down worker...")
	})

	if err := forecastWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
