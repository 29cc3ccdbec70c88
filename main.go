package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "doner",
		Short: "Doner - order checkout and payment reconciliation service",
		Long: `Doner stages checkouts, issues payment invoices and turns confirmed
payments into orders exactly once.

Configuration is read from the environment and an optional config.yaml
in . or ./config.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reapCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}
