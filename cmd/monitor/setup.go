package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rickgao/casualty-monitor/internal/api"
	"github.com/rickgao/casualty-monitor/internal/config"
	"github.com/rickgao/casualty-monitor/internal/version"
)

// loadConfig loads and validates the config, applying command-line overrides.
func loadConfig() (*config.MonitorConfig, error) {
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newAPIClient builds the dataset client from the api section.
func newAPIClient(cfg config.APIConfig, logger *slog.Logger) *api.Client {
	return api.NewClient(
		cfg.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Timeout),
		api.WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
		api.WithDatasetPaths(cfg.KilledPath, cfg.DailyPath),
		api.WithUserAgent(version.UserAgent(cfg.UserAgent)),
	)
}
