package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/smartpick/internal/brain"
	"github.com/wonny/smartpick/internal/collector"
	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/selection"
	"github.com/wonny/smartpick/internal/strategyconfig"
)

var (
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one recommendation pass",
		Long: `Screens the universe, scores survivors, drops symbols still in cooldown,
ranks the rest and records the top pick.

Flags:
  --symbols    comma separated symbols instead of the index universe
  --dry-run    rank and report without writing history
  --workers    concurrent symbol analysis (default ANALYSIS_WORKERS)

Example:
  go run ./cmd/smartpick run
  go run ./cmd/smartpick run --symbols AAPL,MSFT,KO --dry-run
  go run ./cmd/smartpick run --strategy configs/strategy/smart_money_v1.yaml`,
		RunE: runRecommendation,
	}

	// Flags
	runSymbols string
	runDryRun  bool
	runWorkers int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSymbols, "symbols", "", "comma separated symbols (default: S&P 500 + NASDAQ-100 + Dow)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "do not record the recommendation")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent symbol analysis")
}

func runRecommendation(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	var universe contracts.UniverseSource
	if runSymbols != "" {
		universe = collector.ParseSymbols(runSymbols)
	}

	orchestrator, err := a.buildOrchestrator(cmd.Context(), universe)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	runCfg := a.runConfig(brain.GenerateRunID(), runDryRun, runWorkers)

	snapshot, err := strategyconfig.NewRunSnapshot(a.strategy, a.strategyYAML, runCfg.RunID)
	if err != nil {
		return fmt.Errorf("strategy snapshot: %w", err)
	}
	a.log.WithFields(map[string]interface{}{
		"run_id":      runCfg.RunID,
		"strategy_id": snapshot.StrategyID,
		"config_hash": snapshot.ConfigHash[:12],
	}).Info("Strategy loaded")

	PrintHeader("Smart Money Candidate Selection",
		[2]string{"Run ID", runCfg.RunID},
		[2]string{"Strategy", snapshot.StrategyID},
		[2]string{"Cooldown", fmt.Sprintf("%d days", runCfg.CooldownDays)},
		[2]string{"Dry Run", strconv.FormatBool(runCfg.DryRun)},
	)

	result, err := orchestrator.Run(cmd.Context(), runCfg)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	printRunResult(result)
	return nil
}

func printRunResult(result *brain.RunResult) {
	fmt.Println()
	PrintKeyValue("Universe", strconv.Itoa(result.UniverseSize), 10)
	PrintKeyValue("Screened", strconv.Itoa(result.Screened), 10)
	PrintKeyValue("Analyzed", strconv.Itoa(result.Analyzed), 10)
	if result.Dropped > 0 {
		PrintKeyValue("Dropped", strconv.Itoa(result.Dropped), 10)
	}
	if result.Pruned > 0 {
		PrintKeyValue("Pruned", strconv.Itoa(result.Pruned), 10)
	}
	PrintKeyValue("Duration", fmt.Sprintf("%.1fs", result.Duration.Seconds()), 10)

	if len(result.Filtered) > 0 {
		fmt.Println("\nFiltered at screening:")
		reasons := make([]string, 0, len(result.Filtered))
		for reason := range result.Filtered {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			PrintKeyValue(reason, strconv.Itoa(result.Filtered[reason]), 16)
		}
	}

	if len(result.Excluded) > 0 {
		fmt.Printf("\nExcluding %d recently recommended symbols (cooldown):\n", len(result.Excluded))
		PrintList(brain.ExclusionSummary(result.Excluded, 5))
	}
	if result.Skipped > 0 {
		fmt.Printf("Filtered out %d recently recommended candidate(s)\n", result.Skipped)
	}

	if result.Outcome.Empty() {
		PrintWarning(result.Outcome.Message())
		return
	}

	fmt.Println("\nTop candidates:")
	widths := []int{4, 8, 12, 8, 10}
	PrintTableHeader([]string{"#", "Symbol", "Smart Money", "Total", "Above Low"}, widths)
	for _, c := range selection.Top(result.Ranked, 5) {
		PrintTableRow([]string{
			strconv.Itoa(c.Rank),
			c.Symbol,
			fmt.Sprintf("%d/10", c.Score.SmartMoney),
			fmt.Sprintf("%.1f", c.Score.Total),
			fmt.Sprintf("%.2f%%", c.Score.PriceDeltaPct),
		}, widths)
	}

	top := result.Recommendation
	fmt.Println()
	PrintSuccess(fmt.Sprintf("Recommendation: %s (%s)  total %.1f/20", top.Symbol, top.Screening.Name, top.Score.Total))
	if result.Recorded {
		PrintInfo("Recorded in history")
	} else {
		PrintInfo("Dry run: history not updated")
	}
	switch {
	case result.ReportErr != nil:
		PrintWarning(fmt.Sprintf("Report failed: %v", result.ReportErr))
	case result.ReportPath != "":
		PrintInfo("Report: " + result.ReportPath)
	}
}
