package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// Refresher reloads the snapshot, keeping the current one when the fetch
// fails. *cache.Cache implements it.
type Refresher interface {
	Reload(ctx context.Context) (*model.Snapshot, error)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Refresh interval (default: 1h)
	Timeout  time.Duration // Per-refresh timeout (default: 2m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Hour,
		Timeout:  2 * time.Minute,
	}
}

// Stats counts refresh outcomes.
type Stats struct {
	Refreshes int64
	Failures  int64
}

// Poller periodically refreshes the snapshot cache.
type Poller struct {
	cfg       Config
	refresher Refresher
	logger    *slog.Logger

	refreshes atomic.Int64
	failures  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, refresher Refresher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:       cfg,
		refresher: refresher,
		logger:    logger,
	}
}

// Start begins the refresh loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot poller started",
		"interval", p.cfg.Interval,
		"timeout", p.cfg.Timeout,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("snapshot poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns refresh counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Refreshes: p.refreshes.Load(),
		Failures:  p.failures.Load(),
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.refresh()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

// refresh performs one bounded refresh.
func (p *Poller) refresh() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	snap, err := p.refresher.Reload(ctx)
	if err != nil {
		p.failures.Add(1)
		p.logger.Warn("snapshot refresh failed",
			"err", err,
			"duration", time.Since(start),
		)
		return
	}

	p.refreshes.Add(1)
	p.logger.Info("snapshot refresh complete",
		"snapshot_id", snap.ID,
		"records", len(snap.Records),
		"reports", len(snap.Reports),
		"duration", time.Since(start),
	)
}
