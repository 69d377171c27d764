package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"famledger/internal/amqp"
	"famledger/internal/backend"
	"famledger/internal/config"
	apphttp "famledger/internal/http"
	"famledger/internal/identity"
	applog "famledger/internal/log"
	"famledger/internal/services"
)

func main() {
	cfg := config.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
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

	// Advisory event stream; the ledger works without it.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	provider := identity.Static{Session: identity.Session{
		UserID:      cfg.UserID,
		WorkspaceID: cfg.WorkspaceID,
	}}
	svc := services.NewLedgerService(store.Store, provider, events)
	srv := apphttp.NewServer(":"+cfg.Port, svc, provider, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Materialize due recurring transactions on an interval.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RecurringInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := svc.MaterializeRecurring(gctx, cfg.WorkspaceID)
				if err != nil {
					logger.Error("recurring materialization failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Info("materialized recurring transactions", "count", n)
				}
			}
		}
	})

	logger.Info("famledger started", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped gracefully")
}
