package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rickgao/casualty-monitor/internal/stream"
)

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging, os.Stderr)

	url := fmt.Sprintf("ws://localhost:%d/api/v1/stream", cfg.Server.Port)
	if len(args) == 1 {
		url = args[0]
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := stream.NewClient(stream.ClientConfig{
		URL:          url,
		BufferSize:   cfg.Stream.BufferSize,
		WriteTimeout: cfg.Stream.WriteTimeout,
	}, logger)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer client.Close()

	logger.Info("watching", "url", url)
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-client.Errors():
			return fmt.Errorf("stream closed: %w", err)
		case ev := <-client.Events():
			printEvent(out, ev)
		}
	}
}

// printEvent writes one line per snapshot event.
func printEvent(w io.Writer, ev stream.Event) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s  snapshot %s  deaths=%d injured=%d children=%d men=%d women=%d skipped=%d\n",
		ev.FetchedAt.Format(time.RFC3339),
		ev.SnapshotID,
		ev.Summary.TotalDeaths,
		ev.Summary.CumulativeInjured,
		ev.Summary.ChildrenCount,
		ev.Summary.MenCount,
		ev.Summary.WomenCount,
		ev.Skipped,
	)
}
