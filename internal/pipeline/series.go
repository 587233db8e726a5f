package pipeline

import (
	"fmt"
	"time"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// Moving-average window bounds, in days.
const (
	MinWindow     = 1
	MaxWindow     = 30
	DefaultWindow = 7
)

// dateOf truncates t to midnight UTC of its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterByDateRange returns the reports whose date lies in [start, end], in their
// original order. Only the calendar date of start and end is considered.
func FilterByDateRange(reports []model.DailyCasualtyReport, start, end time.Time) ([]model.DailyCasualtyReport, error) {
	start, end = dateOf(start), dateOf(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s after end %s", ErrInvalidRange,
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	filtered := make([]model.DailyCasualtyReport, 0, len(reports))
	for _, r := range reports {
		d := dateOf(r.ReportDate)
		if d.Before(start) || d.After(end) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// DateBounds returns the earliest and latest report dates.
func DateBounds(reports []model.DailyCasualtyReport) (first, last time.Time, err error) {
	if len(reports) == 0 {
		return time.Time{}, time.Time{}, ErrEmptySeries
	}

	first, last = dateOf(reports[0].ReportDate), dateOf(reports[0].ReportDate)
	for _, r := range reports[1:] {
		d := dateOf(r.ReportDate)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, nil
}

// ValidateWindow checks a moving-average window size.
func ValidateWindow(window int) error {
	if window < MinWindow || window > MaxWindow {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidWindow, window, MinWindow, MaxWindow)
	}
	return nil
}

// DeriveDailySeries turns a date-ordered cumulative series into daily increments
// and their trailing moving average.
//
// The first increment is the first cumulative value. Negative increments from
// upstream corrections are kept as-is. Near the start the averaging window
// shrinks to the points available.
func DeriveDailySeries(reports []model.DailyCasualtyReport, window int) (model.DerivedDailySeries, error) {
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrEmptySeries
	}

	series := make(model.DerivedDailySeries, len(reports))
	var sum int64

	for i, r := range reports {
		inc := r.KilledCumulative
		if i > 0 {
			inc -= reports[i-1].KilledCumulative
		}

		sum += inc
		if i >= window {
			sum -= series[i-window].IncrementalDeaths
		}
		n := min(i+1, window)

		series[i] = model.DailyPoint{
			Date:              r.ReportDate,
			KilledCumulative:  r.KilledCumulative,
			IncrementalDeaths: inc,
			MovingAverage:     float64(sum) / float64(n),
		}
	}

	return series, nil
}

// DailyTable lists the series newest first, as shown in the daily deaths table.
func DailyTable(series model.DerivedDailySeries) []model.TableRow {
	rows := make([]model.TableRow, len(series))
	for i, p := range series {
		rows[len(series)-1-i] = model.TableRow{
			Date:             p.Date,
			Deaths:           p.IncrementalDeaths,
			CumulativeDeaths: p.KilledCumulative,
		}
	}
	return rows
}
