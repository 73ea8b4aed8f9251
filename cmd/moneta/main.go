package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/clock"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	"moneta/internal/log"
	"moneta/internal/services"
	"moneta/internal/storage"
)

func main() {
	// Load .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger := log.New(log.Config{})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	port, _ := strconv.Atoi(cfg.Port)

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
			logger.Warn("Failed to initialize AMQP client, ledger events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled, ledger events will not be published")
	}

	clk := clock.System{}
	srv := apphttp.NewServer(apphttp.Config{
		Port:       port,
		Accounts:   services.NewAccountService(repo, events),
		Categories: services.NewCategoryService(repo, events),
		Payments:   services.NewPaymentService(repo, events, clk, cfg.StrictTransfers),
		Recurring:  services.NewRecurringService(repo, events),
		Processor:  services.NewRecurringProcessor(repo, events, clk, cfg.StrictTransfers),
		Logger:     logger,
		RateLimit:  120,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting moneta server", "port", cfg.Port, "strict_transfers", cfg.StrictTransfers)
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
