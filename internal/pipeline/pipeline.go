package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// Dataset names used in logs and metrics.
const (
	DatasetKilled = "killed"
	DatasetDaily  = "daily"
)

// Source provides the two raw datasets. *api.Client implements it.
type Source interface {
	GetKilled(ctx context.Context) ([]model.CasualtyRecord, []error, error)
	GetDailyReports(ctx context.Context) ([]model.DailyCasualtyReport, []error, error)
}

// FetchObserver is notified about every dataset fetch.
type FetchObserver interface {
	ObserveFetch(dataset string, duration time.Duration, err error)
	ObserveSkipped(dataset string, count int)
}

// Pipeline fetches the datasets from a Source.
type Pipeline struct {
	source   Source
	observer FetchObserver
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver registers a FetchObserver.
func WithObserver(o FetchObserver) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a Pipeline reading from source.
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FetchRawData retrieves both datasets. Reports are returned sorted by date.
// Either dataset failing yields ErrDataUnavailable and no data.
func (p *Pipeline) FetchRawData(ctx context.Context) ([]model.CasualtyRecord, []model.DailyCasualtyReport, error) {
	records, reports, _, err := p.fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, reports, nil
}

// FetchSnapshot retrieves both datasets and wraps them in a new Snapshot.
func (p *Pipeline) FetchSnapshot(ctx context.Context) (*model.Snapshot, error) {
	records, reports, skipped, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	snap := model.NewSnapshot(records, reports, skipped)
	p.logger.Info("snapshot fetched",
		"snapshot_id", snap.ID,
		"records", len(records),
		"reports", len(reports),
		"skipped", skipped,
	)
	return snap, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]model.CasualtyRecord, []model.DailyCasualtyReport, int, error) {
	var (
		records       []model.CasualtyRecord
		reports       []model.DailyCasualtyReport
		killedSkipped []error
		dailySkipped  []error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		var err error
		records, killedSkipped, err = p.source.GetKilled(gctx)
		p.observe(DatasetKilled, time.Since(start), err, len(killedSkipped))
		return err
	})

	g.Go(func() error {
		start := time.Now()
		var err error
		reports, dailySkipped, err = p.source.GetDailyReports(gctx)
		p.observe(DatasetDaily, time.Since(start), err, len(dailySkipped))
		return err
	})

	if err := g.Wait(); err != nil {
		p.logger.Error("dataset fetch failed", "error", err)
		return nil, nil, 0, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	SortReports(reports)
	return records, reports, len(killedSkipped) + len(dailySkipped), nil
}

func (p *Pipeline) observe(dataset string, d time.Duration, err error, skipped int) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveFetch(dataset, d, err)
	if err == nil && skipped > 0 {
		p.observer.ObserveSkipped(dataset, skipped)
	}
}

// SortReports orders reports ascending by date in place, keeping the upstream
// order of reports that share a date.
func SortReports(reports []model.DailyCasualtyReport) {
	slices.SortStableFunc(reports, func(a, b model.DailyCasualtyReport) int {
		return a.ReportDate.Compare(b.ReportDate)
	})
}
