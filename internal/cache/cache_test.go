package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/casualty-monitor/internal/model"
)

type countingFetcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *countingFetcher) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return model.NewSnapshot(nil, nil, 0), nil
}

func TestCache_LazyAndReused(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)

	if _, ok := c.Peek(); ok {
		t.Fatal("Peek() on new cache should be empty")
	}
	if f.calls.Load() != 0 {
		t.Fatalf("fetch calls before Get = %d, want 0", f.calls.Load())
	}

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if first != second {
		t.Error("Get() should return the cached snapshot")
	}
	if f.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls.Load())
	}
}

func TestCache_InvalidateAndRefresh(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)

	first, _ := c.Get(context.Background())

	c.Invalidate()
	if _, ok := c.Peek(); ok {
		t.Error("Peek() after Invalidate should be empty")
	}

	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if second.ID == first.ID {
		t.Error("Get() after Invalidate should load a new snapshot")
	}

	third, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if third.ID == second.ID {
		t.Error("Refresh() should load a new snapshot")
	}
	if f.calls.Load() != 3 {
		t.Errorf("fetch calls = %d, want 3", f.calls.Load())
	}
}

func TestCache_ErrorNotCached(t *testing.T) {
	f := &countingFetcher{err: errors.New("boom")}
	c := New(f, nil)

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("Get() expected error")
	}
	if _, ok := c.Peek(); ok {
		t.Error("failed load should not be cached")
	}

	f.err = nil
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get() after recovery error: %v", err)
	}
	if f.calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2", f.calls.Load())
	}
}

func TestCache_RefreshFailureLeavesEmpty(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)
	c.Get(context.Background())

	f.err = errors.New("upstream down")
	if _, err := c.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() expected error")
	}
	if _, ok := c.Peek(); ok {
		t.Error("cache should be empty after failed refresh")
	}
}

func TestCache_ConcurrentGetFetchesOnce(t *testing.T) {
	f := &countingFetcher{delay: 20 * time.Millisecond}
	c := New(f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background()); err != nil {
				t.Errorf("Get() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if f.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls.Load())
	}
}

func TestCache_OnLoad(t *testing.T) {
	c := New(&countingFetcher{}, nil)

	var loaded []*model.Snapshot
	c.OnLoad(func(s *model.Snapshot) { loaded = append(loaded, s) })

	c.Get(context.Background())
	c.Get(context.Background())
	c.Refresh(context.Background())

	if len(loaded) != 2 {
		t.Errorf("handler calls = %d, want 2", len(loaded))
	}
}

type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	close(f.started)
	<-f.release
	return model.NewSnapshot(nil, nil, 0), nil
}

func TestCache_SlowFetchDoesNotBlockReaders(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
	c := New(f, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background())
		done <- err
	}()
	<-f.started

	peeked := make(chan bool, 1)
	go func() {
		_, ok := c.Peek()
		peeked <- ok
	}()
	select {
	case ok := <-peeked:
		if ok {
			t.Error("Peek() during first fetch reported a snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("Peek() blocked on the fetch in flight")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := c.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() with short ctx error = %v, want DeadlineExceeded", err)
	}
	if waited := time.Since(start); waited > time.Second {
		t.Errorf("Get() ignored its ctx, waited %v", waited)
	}

	close(f.release)
	if err := <-done; err != nil {
		t.Fatalf("first Get() error: %v", err)
	}
	if _, ok := c.Peek(); !ok {
		t.Error("snapshot not cached after fetch completed")
	}
}

func TestCache_ReloadKeepsSnapshotOnFailure(t *testing.T) {
	f := &countingFetcher{}
	c := New(f, nil)

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	f.err = errors.New("upstream down")
	if _, err := c.Reload(context.Background()); err == nil {
		t.Fatal("Reload() expected error")
	}
	kept, ok := c.Peek()
	if !ok || kept != first {
		t.Fatal("failed Reload() should keep the cached snapshot")
	}

	f.err = nil
	next, err := c.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if next.ID == first.ID {
		t.Error("Reload() should swap in a new snapshot")
	}
	if cur, _ := c.Peek(); cur != next {
		t.Error("Peek() should return the reloaded snapshot")
	}
}
