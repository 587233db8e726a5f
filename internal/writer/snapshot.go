package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

const insertSnapshotSQL = `
	INSERT INTO casualty_snapshots (
		snapshot_id, fetched_at, records, reports, skipped,
		total_deaths, cumulative_injured, children_count, men_count, women_count
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (snapshot_id) DO NOTHING
`

const upsertDailySQL = `
	INSERT INTO daily_casualties (report_date, killed_cum, injured_cum, snapshot_id)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (report_date) DO UPDATE
	SET killed_cum = EXCLUDED.killed_cum,
		injured_cum = EXCLUDED.injured_cum,
		snapshot_id = EXCLUDED.snapshot_id
`

// SnapshotWriter consumes snapshots and writes them to the archive tables.
type SnapshotWriter struct {
	cfg    WriterConfig
	logger *slog.Logger
	db     BatchSender

	input chan *model.Snapshot

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metricsMu sync.Mutex
	metrics   WriterMetrics
}

// NewSnapshotWriter creates a new SnapshotWriter.
func NewSnapshotWriter(cfg WriterConfig, db BatchSender, logger *slog.Logger) *SnapshotWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultWriterConfig().BufferSize
	}
	return &SnapshotWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan *model.Snapshot, cfg.BufferSize),
	}
}

// Start begins consuming snapshots.
func (w *SnapshotWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.consumeLoop()

	w.logger.Info("snapshot writer started", "buffer_size", w.cfg.BufferSize)
	return nil
}

// Stop gracefully shuts down the writer. Snapshots still queued are
// written before Stop returns unless ctx expires first.
func (w *SnapshotWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping snapshot writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("snapshot writer stop timed out")
		return ctx.Err()
	}

	w.drain(ctx)
	w.logger.Info("snapshot writer stopped")
	return nil
}

// Enqueue queues snap for writing. It never blocks; when the buffer is
// full the snapshot is dropped and false is returned.
func (w *SnapshotWriter) Enqueue(snap *model.Snapshot) bool {
	if snap == nil {
		return false
	}
	select {
	case w.input <- snap:
		return true
	default:
		w.metricsMu.Lock()
		w.metrics.Dropped++
		w.metricsMu.Unlock()
		w.logger.Warn("snapshot writer buffer full, dropping snapshot",
			"snapshot_id", snap.ID,
		)
		return false
	}
}

// Stats returns current metrics.
func (w *SnapshotWriter) Stats() WriterMetrics {
	w.metricsMu.Lock()
	defer w.metricsMu.Unlock()
	return w.metrics
}

func (w *SnapshotWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case snap := <-w.input:
			w.handleSnapshot(w.ctx, snap)
		}
	}
}

// drain writes whatever is left in the buffer after the consumer exits.
func (w *SnapshotWriter) drain(ctx context.Context) {
	for {
		select {
		case snap := <-w.input:
			w.handleSnapshot(ctx, snap)
		default:
			return
		}
	}
}

func (w *SnapshotWriter) handleSnapshot(ctx context.Context, snap *model.Snapshot) {
	start := time.Now()

	if err := w.Write(ctx, snap); err != nil {
		w.logger.Error("snapshot write failed", "error", err, "snapshot_id", snap.ID)
		w.metricsMu.Lock()
		w.metrics.Errors++
		w.metricsMu.Unlock()
		return
	}

	w.metricsMu.Lock()
	w.metrics.Snapshots++
	w.metrics.Days += int64(len(snap.Reports))
	w.metricsMu.Unlock()

	w.logger.Debug("archived snapshot",
		"snapshot_id", snap.ID,
		"days", len(snap.Reports),
		"duration", time.Since(start),
	)
}

// Write archives snap synchronously in a single batch.
func (w *SnapshotWriter) Write(ctx context.Context, snap *model.Snapshot) error {
	batch := buildBatch(snap)

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("exec batch statement %d: %w", i, err)
		}
	}
	return nil
}

// buildBatch queues the snapshot insert followed by one upsert per report.
func buildBatch(snap *model.Snapshot) *pgx.Batch {
	summary := pipeline.Summarize(snap.Records, snap.Reports)

	batch := &pgx.Batch{}
	batch.Queue(insertSnapshotSQL,
		snap.ID, snap.FetchedAt,
		len(snap.Records), len(snap.Reports), snap.Skipped,
		summary.TotalDeaths, summary.CumulativeInjured,
		summary.ChildrenCount, summary.MenCount, summary.WomenCount,
	)
	for _, r := range snap.Reports {
		batch.Queue(upsertDailySQL, r.ReportDate, r.KilledCumulative, r.InjuredCumulative, snap.ID)
	}
	return batch
}
