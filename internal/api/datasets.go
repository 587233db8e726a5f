package api

import (
	"context"
	"fmt"

	"github.com/rickgao/casualty-monitor/internal/model"
)

// GetKilled fetches the killed dataset. The returned error is non-nil only when
// the dataset as a whole is unavailable; per-element failures come back in skipped.
func (c *Client) GetKilled(ctx context.Context) (records []model.CasualtyRecord, skipped []error, err error) {
	elems, err := c.getArray(ctx, c.killedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("get killed: %w", err)
	}

	records, skipped = DecodeKilled(elems)
	c.logDecode("killed", len(elems), len(records), skipped)
	return records, skipped, nil
}

// GetDailyReports fetches the daily casualties dataset in upstream order.
func (c *Client) GetDailyReports(ctx context.Context) (reports []model.DailyCasualtyReport, skipped []error, err error) {
	elems, err := c.getArray(ctx, c.dailyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("get daily reports: %w", err)
	}

	reports, skipped = DecodeDaily(elems)
	c.logDecode("daily", len(elems), len(reports), skipped)
	return reports, skipped, nil
}

func (c *Client) logDecode(dataset string, total, kept int, skipped []error) {
	if len(skipped) == 0 {
		c.logger.Debug("dataset decoded", "dataset", dataset, "elements", total)
		return
	}

	c.logger.Warn("skipped malformed elements",
		"dataset", dataset,
		"elements", total,
		"kept", kept,
		"skipped", len(skipped),
		"first_error", skipped[0],
	)
}
