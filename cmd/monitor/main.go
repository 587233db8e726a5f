// Command monitor fetches the casualty datasets and serves the derived
// series, demographics and summary metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Casualty dataset monitor",
	Long: `monitor fetches the killed-persons and daily casualty datasets,
derives daily deaths, moving averages and demographic breakdowns, and
serves them over a JSON API with a live websocket feed.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, poller and archive",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fetch the datasets once and print the headline figures",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var watchCmd = &cobra.Command{
	Use:   "watch [url]",
	Short: "Subscribe to a running monitor and print each refresh",
	Example: `  monitor watch
  monitor watch ws://monitor.internal:8080/api/v1/stream`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run:   runVersion,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
