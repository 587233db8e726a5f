package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/casualty-monitor/internal/version"
)

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Fprintln(cmd.OutOrStdout(), "monitor", version.String())
}
