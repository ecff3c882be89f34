package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
	jsonLogs     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smartpick",
	Short: "Smart-money stock candidate selection",
	Long: `smartpick screens US index constituents for beaten-down, profitable
companies, scores them on superinvestor and insider buying plus an AI
qualitative review, and recommends one symbol per run with a PDF thesis.
Recently recommended symbols are held out for a cooldown period.

Usage:
  go run ./cmd/smartpick [command]

Examples:
  go run ./cmd/smartpick run
  go run ./cmd/smartpick run --symbols AAPL,MSFT --dry-run
  go run ./cmd/smartpick history list
  go run ./cmd/smartpick scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it with ctx.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML overriding env thresholds")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON lines")
}
