package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and maintain the recommendation history",
	Long: `The history file maps each recommended symbol to its last
recommendation date, score and price delta. Symbols inside the cooldown
are skipped by "run".

Subcommands:
  list    - all entries, most recent first
  show    - one symbol
  prune   - drop entries older than the retention period`,
}

var (
	historyListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recommendation history",
		RunE:  listHistory,
	}

	historyShowCmd = &cobra.Command{
		Use:   "show [symbol]",
		Short: "Show one symbol's last recommendation",
		Args:  cobra.ExactArgs(1),
		RunE:  showHistory,
	}

	historyPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Remove entries older than the retention period",
		RunE:  pruneHistory,
	}

	pruneRetentionDays int
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyPruneCmd.Flags().IntVar(&pruneRetentionDays, "retention-days", 0, "override RETENTION_DAYS")
}

func listHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.history.Load(); err != nil {
		return err
	}

	entries := a.history.List()
	PrintHeader("Recommendation History",
		[2]string{"File", a.history.Path()},
		[2]string{"Entries", fmt.Sprintf("%d", len(entries))},
	)
	if len(entries) == 0 {
		PrintInfo("No recommendations recorded yet")
		return nil
	}

	cooldown := a.strategy.History.CooldownDays
	widths := []int{8, 12, 8, 8, 10, 10}
	PrintTableHeader([]string{"Symbol", "Date", "Days", "Smart", "Delta", "Status"}, widths)
	for _, e := range entries {
		status := "eligible"
		if e.DaysAgo <= cooldown {
			status = "cooldown"
		}
		PrintTableRow([]string{
			e.Symbol,
			e.LastRecommended.Format("2006-01-02"),
			fmt.Sprintf("%d", e.DaysAgo),
			fmt.Sprintf("%.0f/10", e.Score),
			fmt.Sprintf("%.2f%%", e.PriceDelta),
			status,
		}, widths)
	}
	return nil
}

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.history.Load(); err != nil {
		return err
	}

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	info, ok := a.history.Info(symbol)
	if !ok {
		PrintInfo(fmt.Sprintf("%s has never been recommended", symbol))
		return nil
	}

	_, cooling := a.history.ExcludedSymbols(a.strategy.History.CooldownDays)[symbol]

	PrintHeader("Recommendation: " + symbol)
	PrintKeyValue("Last", info.LastRecommended.Format("2006-01-02 15:04 MST"), 12)
	PrintKeyValue("Days ago", fmt.Sprintf("%d", info.DaysAgo), 12)
	PrintKeyValue("Smart money", fmt.Sprintf("%.0f/10", info.Score), 12)
	PrintKeyValue("Price delta", fmt.Sprintf("%.2f%%", info.PriceDelta), 12)
	PrintKeyValue("In cooldown", fmt.Sprintf("%v", cooling), 12)
	return nil
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	if err := a.history.Load(); err != nil {
		return err
	}

	retention := a.strategy.History.RetentionDays
	if pruneRetentionDays > 0 {
		retention = pruneRetentionDays
	}
	if retention < a.strategy.History.CooldownDays {
		return fmt.Errorf("retention %d days is shorter than the %d day cooldown", retention, a.strategy.History.CooldownDays)
	}

	removed, err := a.history.Prune(retention)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	PrintSuccess(fmt.Sprintf("Removed %d entries older than %d days", removed, retention))
	return nil
}
