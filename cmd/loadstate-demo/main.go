// Package main implements a demonstration binary for the loadstate
// orchestrator. It registers a small dependency graph of components,
// performs coordinated loads against flaky in-process data sources, and
// optionally exports Prometheus metrics while refreshing in a loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/loadstate/fetch"
	"github.com/c360/loadstate/metric"
	"github.com/c360/loadstate/orchestrator"
	"github.com/c360/loadstate/statestore"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "loadstate-demo"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting loadstate demo",
		"version", Version,
		"build_time", BuildTime,
		"metrics_port", cliCfg.MetricsPort,
		"refresh_interval", cliCfg.RefreshInterval)

	// Metrics are optional; port 0 disables them entirely
	var registry *metric.MetricsRegistry
	var metricsServer *metric.Server
	if cliCfg.MetricsPort > 0 {
		registry = metric.NewMetricsRegistry()
		metricsServer = metric.NewServer(cliCfg.MetricsPort, "/metrics", registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				slog.Warn("Metrics server shutdown", "error", err)
			}
		}()
		slog.Info("Metrics available", "address", metricsServer.Address())
	}

	orch, err := orchestrator.New(orchestrator.Dependencies{
		Logger:          logger,
		MetricsRegistry: registry,
	}, orchestrator.Options{
		StaleThreshold: cliCfg.StaleThreshold,
	})
	if err != nil {
		return fmt.Errorf("orchestrator setup: %w", err)
	}
	defer orch.Destroy()

	if err := registerComponents(orch); err != nil {
		return fmt.Errorf("component registration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchGlobalState(orch)

	if err := runScenario(ctx, orch); err != nil {
		return err
	}

	if cliCfg.RefreshInterval <= 0 {
		slog.Info("Demo scenario complete")
		return nil
	}

	slog.Info("Refreshing until interrupted", "interval", cliCfg.RefreshInterval)
	ticker := time.NewTicker(cliCfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received")
			return nil
		case <-ticker.C:
			if err := runScenario(ctx, orch); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("Refresh failed", "error", err)
			}
		}
	}
}

// registerComponents declares the demo dependency graph: a session must be
// ready before the wallet loads, and the portfolio view depends on both.
func registerComponents(orch *orchestrator.Orchestrator) error {
	configs := []statestore.Config{
		{
			ID:         "session",
			Timeout:    5 * time.Second,
			MaxRetries: 1,
			RetryDelay: 100 * time.Millisecond,
			Priority:   statestore.PriorityCritical,
		},
		{
			ID:           "wallet",
			Timeout:      10 * time.Second,
			MaxRetries:   3,
			RetryDelay:   200 * time.Millisecond,
			Dependencies: []string{"session"},
			Priority:     statestore.PriorityHigh,
		},
		{
			ID:           "portfolio",
			Timeout:      15 * time.Second,
			MaxRetries:   2,
			RetryDelay:   250 * time.Millisecond,
			Dependencies: []string{"session", "wallet"},
			Priority:     statestore.PriorityMedium,
		},
	}

	for _, cfg := range configs {
		if err := orch.RegisterComponent(cfg); err != nil {
			return err
		}
	}
	return nil
}

// runScenario loads the components in dependency order. The wallet's price
// source fails intermittently to exercise retries, fallbacks, and caching.
func runScenario(ctx context.Context, orch *orchestrator.Orchestrator) error {
	if _, err := orch.LoadComponentData(ctx, "session", []fetch.SourceSpec{
		{
			ID: "auth-token",
			Fetch: func(context.Context) (any, error) {
				return fmt.Sprintf("token-%d", time.Now().Unix()), nil
			},
		},
	}); err != nil {
		return fmt.Errorf("session load: %w", err)
	}

	walletResults, err := orch.LoadComponentData(ctx, "wallet", []fetch.SourceSpec{
		{
			ID:       "balances",
			Fetch:    flakyFetch("balances", 0.3, map[string]float64{"BTC": 0.42, "ETH": 3.1}),
			Cache:    true,
			CacheTTL: 30 * time.Second,
		},
		{
			ID:    "spot-prices",
			Fetch: flakyFetch("spot-prices", 0.6, map[string]float64{"BTC": 64250.0, "ETH": 3180.5}),
			Fallback: func(context.Context) (any, error) {
				// Stale but usable quote from the last session
				return map[string]float64{"BTC": 64000.0, "ETH": 3150.0}, nil
			},
			Cache:    true,
			CacheTTL: 10 * time.Second,
		},
	})
	if err != nil {
		return fmt.Errorf("wallet load: %w", err)
	}
	slog.Info("Wallet loaded", "sources", len(walletResults))

	if _, err := orch.LoadComponentData(ctx, "portfolio", []fetch.SourceSpec{
		{
			ID: "holdings-summary",
			Fetch: func(context.Context) (any, error) {
				return "42 assets across 3 chains", nil
			},
		},
	}); err != nil {
		return fmt.Errorf("portfolio load: %w", err)
	}

	return nil
}

// flakyFetch builds a fetcher that fails with the given probability.
func flakyFetch(name string, failureRate float64, value any) fetch.Fetcher {
	return func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(rand.Intn(50)) * time.Millisecond):
		}
		if rand.Float64() < failureRate {
			return nil, fmt.Errorf("%s: upstream unavailable", name)
		}
		return value, nil
	}
}

// watchGlobalState logs transitions of the aggregate loading flag. The
// stream is completed by Destroy on shutdown.
func watchGlobalState(orch *orchestrator.Orchestrator) {
	updates, _ := orch.GetGlobalLoadingState()
	go func() {
		for loading := range updates {
			slog.Debug("Global loading state changed", "loading", loading)
		}
	}()
}
