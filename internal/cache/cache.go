// Package cache holds the process-wide snapshot of the fetched datasets.
//
// The snapshot is loaded lazily on first use and reused until Invalidate or
// Refresh is called. Reload swaps in a new snapshot only when the fetch
// succeeds. A failed load is never cached.
package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rickgao/casualty-monitor/internal/model"
)

const loadKey = "snapshot"

// Fetcher loads a fresh snapshot. *pipeline.Pipeline implements it.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*model.Snapshot, error)
}

// LoadHandler is called with every newly loaded snapshot.
type LoadHandler func(snap *model.Snapshot)

// Cache is a guarded lazily initialised snapshot.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	// mu guards snap only; it is never held across a fetch.
	mu   sync.RWMutex
	snap *model.Snapshot

	loads singleflight.Group

	handlersMu sync.RWMutex
	handlers   []LoadHandler
}

// New creates an empty Cache.
func New(fetcher Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
	}
}

// OnLoad registers a handler for newly loaded snapshots.
func (c *Cache) OnLoad(h LoadHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Get returns the cached snapshot, fetching it first if the cache is empty.
// Concurrent callers share a single fetch; each stops waiting when its own
// ctx is done.
func (c *Cache) Get(ctx context.Context) (*model.Snapshot, error) {
	if snap, ok := c.Peek(); ok {
		return snap, nil
	}
	return c.load(ctx)
}

// Peek returns the cached snapshot without fetching. It never blocks on a
// fetch in progress.
func (c *Cache) Peek() (*model.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap, c.snap != nil
}

// Invalidate drops the cached snapshot. The next Get fetches again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
	c.logger.Debug("snapshot invalidated")
}

// Refresh invalidates the cache and loads a new snapshot. If the load fails the
// cache stays empty.
func (c *Cache) Refresh(ctx context.Context) (*model.Snapshot, error) {
	c.Invalidate()
	return c.load(ctx)
}

// Reload fetches a new snapshot and swaps it in. If the fetch fails the
// current snapshot stays cached.
func (c *Cache) Reload(ctx context.Context) (*model.Snapshot, error) {
	return c.load(ctx)
}

// load joins the fetch in flight or starts one. The fetch itself is detached
// from ctx so one caller giving up does not fail the others.
func (c *Cache) load(ctx context.Context) (*model.Snapshot, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(loadKey, func() (any, error) {
		snap, err := c.fetcher.FetchSnapshot(fetchCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.snap = snap
		c.mu.Unlock()

		c.logger.Info("snapshot cached",
			"snapshot_id", snap.ID,
			"fetched_at", snap.FetchedAt,
		)
		c.notify(snap)
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) notify(snap *model.Snapshot) {
	c.handlersMu.RLock()
	handlers := make([]LoadHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.handlersMu.RUnlock()

	for _, h := range handlers {
		h(snap)
	}
}
