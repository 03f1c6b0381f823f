package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	LogLevel        string
	LogFormat       string
	MetricsPort     int
	RefreshInterval time.Duration
	StaleThreshold  time.Duration
	ShowVersion     bool
	ShowHelp        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LOADSTATE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: LOADSTATE_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LOADSTATE_LOG_FORMAT", "text"),
		"Log format: json, text (env: LOADSTATE_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("LOADSTATE_METRICS_PORT", 9090),
		"Prometheus metrics port, 0 to disable (env: LOADSTATE_METRICS_PORT)")

	flag.DurationVar(&cfg.RefreshInterval, "refresh-interval",
		getEnvDuration("LOADSTATE_REFRESH_INTERVAL", 0),
		"Reload the demo components on this interval; 0 runs once and exits (env: LOADSTATE_REFRESH_INTERVAL)")

	flag.DurationVar(&cfg.StaleThreshold, "stale-threshold",
		getEnvDuration("LOADSTATE_STALE_THRESHOLD", 5*time.Minute),
		"Force-fail loads with no progress for this long (env: LOADSTATE_STALE_THRESHOLD)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.StaleThreshold <= 0 {
		return fmt.Errorf("stale threshold must be positive: %s", cfg.StaleThreshold)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Loading Orchestrator Demonstration

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run the scenario once with text logging
  %s --log-format=text

  # Refresh every 15s and export Prometheus metrics on :9090
  %s --refresh-interval=15s --metrics-port=9090

  # Run with environment variables
  export LOADSTATE_LOG_LEVEL=debug
  %s

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
