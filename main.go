package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/gogo/moodlog/internal/adapter/classifier"
	"github.com/xiaot623/gogo/moodlog/internal/config"
	"github.com/xiaot623/gogo/moodlog/internal/metrics"
	"github.com/xiaot623/gogo/moodlog/internal/observability"
	"github.com/xiaot623/gogo/moodlog/internal/repository"
	"github.com/xiaot623/gogo/moodlog/internal/service"
	handler "github.com/xiaot623/gogo/moodlog/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("moodlog stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(os.Stdout, "info")
		return err
	}
	observability.NewLogger(os.Stdout, cfg.LogLevel)

	slog.Info("starting moodlog",
		"http_port", cfg.HTTPPort,
		"database_driver", cfg.DatabaseDriver,
		"classifier_mode", cfg.ClassifierMode,
		"classifier_url", cfg.ClassifierURL,
	)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// Initialize classifier
	cls, err := classifier.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize service and server
	svc := service.New(db, cls, metrics.New(reg), cfg)
	server := handler.NewServer(svc, cfg, reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		slog.Info("HTTP API started", "addr", addr)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		svc.RunReconciler(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down moodlog")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown server gracefully", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("moodlog stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return repository.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return repository.NewSQLiteStore(cfg.DatabaseURL)
	}
}
