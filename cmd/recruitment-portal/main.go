package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/terra-clan/recruitment-portal/internal/api"
	"github.com/terra-clan/recruitment-portal/internal/catalog"
	"github.com/terra-clan/recruitment-portal/internal/cleanup"
	"github.com/terra-clan/recruitment-portal/internal/config"
	"github.com/terra-clan/recruitment-portal/internal/gateway"
	"github.com/terra-clan/recruitment-portal/internal/intake"
	"github.com/terra-clan/recruitment-portal/internal/metrics"
	"github.com/terra-clan/recruitment-portal/internal/session"
	"github.com/terra-clan/recruitment-portal/internal/storage"
	"github.com/terra-clan/recruitment-portal/pkg/client"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting recruitment-portal",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"session_backend", cfg.Session.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Open session storage (runs migrations for postgres)
	store, err := storage.Open(initCtx, cfg.StorageOptions())
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}

	// Load domain catalog
	catalogLoader := catalog.NewLoader()
	if err := catalogLoader.LoadDefault(); err != nil {
		slog.Error("failed to load embedded catalog", "error", err)
		os.Exit(1)
	}
	if cfg.Catalog.File != "" {
		if err := catalogLoader.LoadFromFile(cfg.Catalog.File); err != nil {
			slog.Warn("failed to load catalog file, using embedded catalog", "file", cfg.Catalog.File, "error", err)
		}
	}

	matcher, err := session.NewMatcher(cfg.Institution.EmailDomain)
	if err != nil {
		slog.Error("invalid institution email domain", "error", err)
		os.Exit(1)
	}
	gate := session.NewGate(store, matcher)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Submission gateway: the spreadsheet, optionally reached through a remote portal
	sheets := gateway.NewSheetsAppender(cfg.Credentials, gateway.WithRecorder(m))
	var formGateway intake.Gateway = sheets
	if cfg.Intake.SubmitURL != "" {
		slog.Info("forwarding form submissions", "url", cfg.Intake.SubmitURL)
		formGateway = client.NewClient(cfg.Intake.SubmitURL, client.WithTimeout(cfg.Intake.SubmitTimeout))
	}

	forms := intake.NewRegistry(intake.Config{
		Catalog:       catalogLoader,
		Gateway:       formGateway,
		Emails:        matcher,
		Recorder:      m,
		SubmitTimeout: cfg.Intake.SubmitTimeout,
	})

	// Initialize cleanup worker
	cleaner := cleanup.NewCleaner(forms, cfg.Cleanup.Interval, cfg.Intake.IdleTTL)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start cleanup worker
	cleaner.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Catalog:    catalogLoader,
		Gate:       gate,
		Forms:      forms,
		Store:      store,
		Submitter:  sheets,
		Metrics:    m,
		Gatherer:   registry,
		CookieName: cfg.Session.CookieName,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Intake.SubmitTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := store.Close(); err != nil {
		slog.Error("session store close error", "error", err)
	}

	slog.Info("recruitment-portal stopped")
}
