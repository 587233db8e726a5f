package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

const dateLayout = "2006-01-02"

// SnapshotStore serves the current snapshot. *cache.Cache implements it.
type SnapshotStore interface {
	Get(ctx context.Context) (*model.Snapshot, error)
	Peek() (*model.Snapshot, bool)
	Refresh(ctx context.Context) (*model.Snapshot, error)
}

// Pinger checks a dependency. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the API routes.
type Handler struct {
	store  SnapshotStore
	db     Pinger
	window int
}

// NewHandler creates a Handler. db may be nil when the archive is disabled.
func NewHandler(store SnapshotStore, db Pinger, window int) *Handler {
	if window == 0 {
		window = pipeline.DefaultWindow
	}
	return &Handler{store: store, db: db, window: window}
}

type rangeQuery struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

type seriesQuery struct {
	Start  string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End    string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Window int    `query:"window"`
}

type seriesResponse struct {
	Start  string                   `json:"start,omitempty"`
	End    string                   `json:"end,omitempty"`
	Window int                      `json:"window"`
	Points model.DerivedDailySeries `json:"points"`
}

type agesResponse struct {
	Ages      []int              `json:"ages"`
	Unknown   int                `json:"unknown"`
	Histogram model.AgeHistogram `json:"histogram"`
}

type categoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

type categoriesResponse struct {
	Categories []categoryCount `json:"categories"`
	Total      int             `json:"total"`
}

type summaryResponse struct {
	SnapshotID uuid.UUID `json:"snapshot_id"`
	FetchedAt  time.Time `json:"fetched_at"`
	model.SummaryMetrics
}

type tableResponse struct {
	Start string           `json:"start,omitempty"`
	End   string           `json:"end,omitempty"`
	Rows  []model.TableRow `json:"rows"`
}

type snapshotResponse struct {
	SnapshotID uuid.UUID `json:"snapshot_id"`
	FetchedAt  time.Time `json:"fetched_at"`
	Records    int       `json:"records"`
	Reports    int       `json:"reports"`
	Skipped    int       `json:"skipped"`
}

type healthResponse struct {
	Status     string     `json:"status"`
	Time       string     `json:"time"`
	SnapshotID *uuid.UUID `json:"snapshot_id,omitempty"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	Database   string     `json:"database"`
}

// Health reports whether a snapshot is loaded and the archive is reachable.
func (h *Handler) Health(c echo.Context) error {
	resp := healthResponse{
		Status:   "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
		Database: "disabled",
	}
	if snap, ok := h.store.Peek(); ok {
		resp.SnapshotID = &snap.ID
		resp.FetchedAt = &snap.FetchedAt
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	return c.JSON(status, resp)
}

// Series returns the derived daily series for an optional date range.
func (h *Handler) Series(c echo.Context) error {
	q := seriesQuery{Window: h.window}
	if err := h.bind(c, &q); err != nil {
		return err
	}
	if err := pipeline.ValidateWindow(q.Window); err != nil {
		return err
	}

	snap, err := h.store.Get(c.Request().Context())
	if err != nil {
		return err
	}
	reports, start, end, err := filterReports(snap.Reports, rangeQuery{Start: q.Start, End: q.End})
	if err != nil {
		return err
	}

	resp := seriesResponse{Start: start, End: end, Window: q.Window, Points: model.DerivedDailySeries{}}
	if len(reports) > 0 {
		series, err := pipeline.DeriveDailySeries(reports, q.Window)
		if err != nil {
			return err
		}
		resp.Points = series
	}
	return c.JSON(http.StatusOK, resp)
}

// Table returns the daily deaths table for an optional date range, newest first.
func (h *Handler) Table(c echo.Context) error {
	var q rangeQuery
	if err := h.bind(c, &q); err != nil {
		return err
	}

	snap, err := h.store.Get(c.Request().Context())
	if err != nil {
		return err
	}
	reports, start, end, err := filterReports(snap.Reports, q)
	if err != nil {
		return err
	}

	resp := tableResponse{Start: start, End: end, Rows: []model.TableRow{}}
	if len(reports) > 0 {
		series, err := pipeline.DeriveDailySeries(reports, pipeline.MinWindow)
		if err != nil {
			return err
		}
		resp.Rows = pipeline.DailyTable(series)
	}
	return c.JSON(http.StatusOK, resp)
}

// Ages returns the known ages and their per-year histogram.
func (h *Handler) Ages(c echo.Context) error {
	snap, err := h.store.Get(c.Request().Context())
	if err != nil {
		return err
	}
	ages := pipeline.AgeHistogramInput(snap.Records)
	return c.JSON(http.StatusOK, agesResponse{
		Ages:      ages,
		Unknown:   len(snap.Records) - len(ages),
		Histogram: pipeline.HistogramBins(ages),
	})
}

// Categories returns the demographic bucket counts in display order.
func (h *Handler) Categories(c echo.Context) error {
	snap, err := h.store.Get(c.Request().Context())
	if err != nil {
		return err
	}
	counts := pipeline.CountCategories(snap.Records)

	resp := categoriesResponse{
		Categories: make([]categoryCount, 0, len(model.Categories)),
		Total:      counts.Total(),
	}
	for _, cat := range model.Categories {
		resp.Categories = append(resp.Categories, categoryCount{Category: cat, Count: counts[cat]})
	}
	return c.JSON(http.StatusOK, resp)
}

// Summary returns the headline metrics over the full snapshot.
func (h *Handler) Summary(c echo.Context) error {
	snap, err := h.store.Get(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaryResponse{
		SnapshotID:     snap.ID,
		FetchedAt:      snap.FetchedAt,
		SummaryMetrics: pipeline.Summarize(snap.Records, snap.Reports),
	})
}

// Refresh discards the cached snapshot and fetches a new one.
func (h *Handler) Refresh(c echo.Context) error {
	snap, err := h.store.Refresh(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshotResponse{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		Records:    len(snap.Records),
		Reports:    len(snap.Reports),
		Skipped:    snap.Skipped,
	})
}

func (h *Handler) bind(c echo.Context, q any) error {
	if err := c.Bind(q); err != nil {
		return err
	}
	return c.Validate(q)
}

// filterReports applies the query range. An open end defaults to the bound
// of the series, widened so it never crosses the given end. It returns the
// filtered reports and the effective range.
func filterReports(reports []model.DailyCasualtyReport, q rangeQuery) ([]model.DailyCasualtyReport, string, string, error) {
	if len(reports) == 0 {
		if q.Start != "" && q.End != "" && q.Start > q.End {
			return nil, q.Start, q.End, pipeline.ErrInvalidRange
		}
		return nil, q.Start, q.End, nil
	}

	first, last, err := pipeline.DateBounds(reports)
	if err != nil {
		return nil, "", "", err
	}
	start, end := first, last
	if q.Start != "" {
		if start, err = time.Parse(dateLayout, q.Start); err != nil {
			return nil, "", "", fmt.Errorf("%w: start must be YYYY-MM-DD, got %q", errInvalidDate, q.Start)
		}
	}
	if q.End != "" {
		if end, err = time.Parse(dateLayout, q.End); err != nil {
			return nil, "", "", fmt.Errorf("%w: end must be YYYY-MM-DD, got %q", errInvalidDate, q.End)
		}
	}

	switch {
	case q.Start == "" && q.End != "" && end.Before(start):
		start = end
	case q.End == "" && q.Start != "" && start.After(end):
		end = start
	}

	filtered, err := pipeline.FilterByDateRange(reports, start, end)
	if err != nil {
		return nil, "", "", err
	}
	return filtered, start.Format(dateLayout), end.Format(dateLayout), nil
}
