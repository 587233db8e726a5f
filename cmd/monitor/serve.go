package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rickgao/casualty-monitor/internal/cache"
	"github.com/rickgao/casualty-monitor/internal/config"
	"github.com/rickgao/casualty-monitor/internal/database"
	"github.com/rickgao/casualty-monitor/internal/metrics"
	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
	"github.com/rickgao/casualty-monitor/internal/poller"
	"github.com/rickgao/casualty-monitor/internal/server"
	"github.com/rickgao/casualty-monitor/internal/stream"
	"github.com/rickgao/casualty-monitor/internal/version"
	"github.com/rickgao/casualty-monitor/internal/writer"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", configPath,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	pipe := pipeline.New(newAPIClient(cfg.API, logger),
		pipeline.WithObserver(m),
		pipeline.WithLogger(logger),
	)
	snapshots := cache.New(pipe, logger)
	snapshots.OnLoad(m.ObserveSnapshot)

	hub := stream.NewHub(stream.HubConfig{
		PingInterval: cfg.Stream.PingInterval,
		WriteTimeout: cfg.Stream.WriteTimeout,
		BufferSize:   cfg.Stream.BufferSize,
	}, m, logger)
	snapshots.OnLoad(func(snap *model.Snapshot) {
		if err := hub.Publish(snap); err != nil {
			logger.Warn("failed to publish snapshot", "error", err)
		}
	})

	var db server.Pinger
	if cfg.Database.Enabled {
		arc, closeArchive, err := startArchive(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeArchive()
		snapshots.OnLoad(func(snap *model.Snapshot) { arc.writer.Enqueue(snap) })
		db = arc.pool
	}

	if cfg.Poller.Enabled {
		p := poller.New(poller.Config{
			Interval: cfg.Poller.Interval,
			Timeout:  cfg.Poller.Timeout,
		}, snapshots, logger)
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			p.Stop(stopCtx)
		}()
	} else {
		// Without the poller the first request would pay for the fetch.
		go func() {
			if _, err := snapshots.Get(ctx); err != nil {
				logger.Warn("initial fetch failed", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  cfg.Metrics.Path,
	}, server.Deps{
		Handler:  server.NewHandler(snapshots, db, cfg.Pipeline.Window),
		Stream:   hub,
		Gatherer: reg,
		Errors:   m,
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// Hijacked websocket connections are not tracked by the HTTP server.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", "error", err)
	}

	logger.Info("monitor stopped")
	return nil
}

type archive struct {
	pool   *pgxpool.Pool
	writer *writer.SnapshotWriter
}

// startArchive connects to Postgres, applies the schema and starts the
// snapshot writer. The returned func stops the writer and closes the pool.
func startArchive(ctx context.Context, cfg *config.MonitorConfig, logger *slog.Logger) (*archive, func(), error) {
	dbCfg := cfg.Database.Archive
	logger.Info("connecting to database",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"database", dbCfg.Name,
	)

	pool, err := database.Connect(ctx, dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	w := writer.NewSnapshotWriter(writer.DefaultWriterConfig(), pool, logger)
	if err := w.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("start snapshot writer: %w", err)
	}
	logger.Info("database connected")

	closeFn := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		w.Stop(stopCtx)
		pool.Close()
	}
	return &archive{pool: pool, writer: w}, closeFn, nil
}
