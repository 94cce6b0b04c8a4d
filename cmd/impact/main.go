package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MikeSquared-Agency/Impact/internal/api"
	"github.com/MikeSquared-Agency/Impact/internal/config"
	"github.com/MikeSquared-Agency/Impact/internal/hermes"
	"github.com/MikeSquared-Agency/Impact/internal/metrics"
	"github.com/MikeSquared-Agency/Impact/internal/scoring"
	"github.com/MikeSquared-Agency/Impact/internal/seed"
	"github.com/MikeSquared-Agency/Impact/internal/simulator"
	"github.com/MikeSquared-Agency/Impact/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	scoringCfg, _ := cfg.ScoringConfig()
	engine, err := scoring.NewEngine(scoringCfg)
	if err != nil {
		logger.Error("failed to build scoring engine", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var st store.Store
	if cfg.Database.URL != "" {
		db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		st = db
		logger.Info("connected to database")
	} else {
		st = store.NewMemoryStore()
		logger.Info("no database configured, using in-memory store")
	}
	defer st.Close()

	if err := st.BindModel(ctx, engine.Model().Name); err != nil {
		logger.Error("refusing to start on a store written under another model", "error", err)
		os.Exit(1)
	}

	// Seed
	if !cfg.Seed.Disabled {
		if err := seedStore(ctx, st, engine.Model(), cfg.Seed.Path, logger); err != nil {
			logger.Error("failed to seed store", "error", err)
			os.Exit(1)
		}
	}

	// Hermes (optional)
	var hermesClient hermes.Client = hermes.NoopClient{}
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	// Simulator
	sim := simulator.New(st, hermesClient, m, engine, logger)
	if err := sim.SetupSubscriptions(); err != nil {
		logger.Warn("failed to subscribe to toggle commands", "error", err)
	}
	if _, err := sim.Refresh(ctx, "startup"); err != nil {
		logger.Error("initial simulation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("simulator ready", "model", engine.Model().Name, "secondary_weight", scoringCfg.SecondaryWeight)

	// API server
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(sim, cfg.Server.AdminToken, cfg.Server.RateLimit, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}

func seedStore(ctx context.Context, st store.Store, model scoring.Model, path string, logger *slog.Logger) error {
	var (
		sc  seed.Scenario
		err error
	)
	if path != "" {
		sc, err = seed.LoadFile(path)
	} else {
		sc, err = seed.Default(model.Name)
	}
	if err != nil {
		return err
	}

	r, err := seed.Apply(ctx, st, model, sc)
	if errors.Is(err, seed.ErrStoreNotEmpty) {
		logger.Info("store already populated, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("store seeded", "source", seedSource(path),
		"touchpoints", len(r.TouchPoints), "personas", len(r.Personas), "services", len(r.Services))
	return nil
}

func seedSource(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
