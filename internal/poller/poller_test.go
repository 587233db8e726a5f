package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/rickgao/casualty-monitor/internal/cache"
	"github.com/rickgao/casualty-monitor/internal/model"
)

type mockRefresher struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (m *mockRefresher) Reload(ctx context.Context) (*model.Snapshot, error) {
	m.calls.Add(1)
	if m.fail.Load() {
		return nil, errors.New("upstream unavailable")
	}
	return model.NewSnapshot(nil, nil, 0), nil
}

func TestPoller_Refresh(t *testing.T) {
	r := &mockRefresher{}
	p := New(Config{Interval: time.Hour, Timeout: time.Second}, r, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.ctx = ctx

	p.refresh()
	r.fail.Store(true)
	p.refresh()

	stats := p.Stats()
	if stats.Refreshes != 1 {
		t.Errorf("Refreshes = %d, want 1", stats.Refreshes)
	}
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
}

func TestPoller_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &mockRefresher{}
	cfg := Config{
		Interval: 50 * time.Millisecond,
		Timeout:  time.Second,
	}

	p := New(cfg, r, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Immediate refresh plus at least one tick.
	time.Sleep(120 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if got := r.calls.Load(); got < 2 {
		t.Errorf("refresh calls = %d, want >= 2", got)
	}
}

func TestPoller_StopWithoutStart(t *testing.T) {
	p := New(DefaultConfig(), &mockRefresher{}, nil)
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop() without Start error: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Interval != time.Hour {
		t.Errorf("Interval = %v, want 1h", cfg.Interval)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Timeout)
	}
}

type flakyFetcher struct {
	fail atomic.Bool
}

func (f *flakyFetcher) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if f.fail.Load() {
		return nil, errors.New("upstream unavailable")
	}
	return model.NewSnapshot(nil, nil, 0), nil
}

func TestPoller_FailedRefreshKeepsSnapshot(t *testing.T) {
	f := &flakyFetcher{}
	snapshots := cache.New(f, nil)
	p := New(Config{Interval: time.Hour, Timeout: time.Second}, snapshots, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.ctx = ctx

	p.refresh()
	good, ok := snapshots.Peek()
	if !ok {
		t.Fatal("first refresh did not load a snapshot")
	}

	f.fail.Store(true)
	p.refresh()

	kept, ok := snapshots.Peek()
	if !ok || kept != good {
		t.Error("failed refresh dropped the cached snapshot")
	}
	if got := p.Stats().Failures; got != 1 {
		t.Errorf("Failures = %d, want 1", got)
	}
}
