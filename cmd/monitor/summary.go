package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rickgao/casualty-monitor/internal/model"
	"github.com/rickgao/casualty-monitor/internal/pipeline"
)

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Poller.Timeout)
	defer cancel()

	pipe := pipeline.New(newAPIClient(cfg.API, logger), pipeline.WithLogger(logger))
	records, reports, err := pipe.FetchRawData(ctx)
	if err != nil {
		return err
	}

	var latest *model.DailyPoint
	if series, err := pipeline.DeriveDailySeries(reports, cfg.Pipeline.Window); err == nil {
		latest = &series[len(series)-1]
	} else if !errors.Is(err, pipeline.ErrEmptySeries) {
		return err
	}

	printSummary(cmd.OutOrStdout(), pipeline.Summarize(records, reports), latest, cfg.Pipeline.Window)
	logger.Debug("summary printed", "records", len(records), "reports", len(reports))
	return nil
}

// printSummary writes the headline figures with thousands separators.
func printSummary(w io.Writer, s model.SummaryMetrics, latest *model.DailyPoint, window int) {
	p := message.NewPrinter(language.English)

	if latest != nil {
		p.Fprintf(w, "Casualty summary, data through %s\n\n", latest.Date.Format(time.DateOnly))
	} else {
		p.Fprintf(w, "Casualty summary, no daily reports\n\n")
	}

	p.Fprintf(w, "%-22s %12d\n", "Total deaths:", s.TotalDeaths)
	p.Fprintf(w, "%-22s %12d\n", "Injured:", s.CumulativeInjured)
	p.Fprintf(w, "%-22s %12d\n", "Children killed:", s.ChildrenCount)
	p.Fprintf(w, "%-22s %12d\n", "Men killed:", s.MenCount)
	p.Fprintf(w, "%-22s %12d\n", "Women killed:", s.WomenCount)

	if latest != nil {
		fmt.Fprintln(w)
		p.Fprintf(w, "%-22s %12d\n", "Deaths on last day:", latest.IncrementalDeaths)
		p.Fprintf(w, "%-22s %12.1f\n", fmt.Sprintf("%d-day average:", window), latest.MovingAverage)
	}
}
