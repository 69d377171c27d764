package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"famledger/internal/amqp"
	"famledger/internal/backend"
	"famledger/internal/config"
	"famledger/internal/export"
	applog "famledger/internal/log"
	"famledger/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the worker")
		os.Exit(1)
	}

	store, err := backend.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if store.Cleanup != nil {
		defer func() {
			if err := store.Cleanup(); err != nil {
				logger.Error("backend cleanup failed", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer, err := export.NewClient(ctx, export.Options{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SheetName:     cfg.GoogleSheetName,
		ClientFile:    cfg.GoogleOAuthClientFile,
		ClientJSON:    cfg.GoogleOAuthClientJSON,
		TokenFile:     cfg.GoogleOAuthTokenFile,
		TokenJSON:     cfg.GoogleOAuthTokenJSON,
	})
	if err != nil {
		logger.Error("failed to initialize sheets client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(store.Store, writer, logger)

	logger.Info("famledger-worker started",
		"queue", cfg.AMQPQueue, "spreadsheet_id", cfg.GoogleSpreadsheetID)

	err = amqpClient.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		return syncWorker.HandleLedgerEvent(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped gracefully")
}
