package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/clock"
	"moneta/internal/config"
	"moneta/internal/log"
	"moneta/internal/services"
	"moneta/internal/storage"
)

// The worker keeps the ledger moving without user interaction: it
// materializes due recurring payments and clears payments whose date
// has arrived, each on its own schedule.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{}).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var events services.Events
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	clk := clock.System{}
	processor := services.NewRecurringProcessor(repo, events, clk, cfg.StrictTransfers)
	payments := services.NewPaymentService(repo, events, clk, cfg.StrictTransfers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker configured",
		"materialize_interval", cfg.MaterializeInterval,
		"clearing_interval", cfg.ClearingInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// Catch up immediately on startup; a worker that was down for days
	// should not wait another interval to backfill.
	runMaterialize(ctx, logger, processor)
	runClearing(ctx, logger, payments)

	materializeTicker := time.NewTicker(cfg.MaterializeInterval)
	defer materializeTicker.Stop()
	clearingTicker := time.NewTicker(cfg.ClearingInterval)
	defer clearingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, worker stopping")
			return
		case <-materializeTicker.C:
			runMaterialize(ctx, logger, processor)
		case <-clearingTicker.C:
			runClearing(ctx, logger, payments)
		}
	}
}

func runMaterialize(ctx context.Context, logger *log.Logger, processor *services.RecurringProcessor) {
	count, err := processor.ProcessDue(ctx)
	if err != nil {
		logger.Error("Recurring payment processing failed", "error", err)
		return
	}
	logger.Info("Recurring payment processing complete", "payments_created", count)
}

func runClearing(ctx context.Context, logger *log.Logger, payments *services.PaymentService) {
	count, err := payments.ClearDuePayments(ctx)
	if err != nil {
		logger.Error("Clearing sweep failed", "error", err)
		return
	}
	logger.Info("Clearing sweep complete", "payments_cleared", count)
}
