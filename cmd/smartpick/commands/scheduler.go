package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smartpick/internal/api"
	"github.com/wonny/smartpick/internal/api/handlers"
	"github.com/wonny/smartpick/internal/scheduler"
	"github.com/wonny/smartpick/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run recommendations on a schedule",
	Long: `Starts the cron daemon or runs a registered job once.

Registered jobs:
  recommendation  - SCHEDULE (default weekdays 07:30)
  history_prune   - Sundays 03:00

Example:
  go run ./cmd/smartpick scheduler start
  go run ./cmd/smartpick scheduler run recommendation`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler (Ctrl+C to stop)",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerHTTPAddr string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerListCmd)

	schedulerStartCmd.Flags().StringVar(&schedulerHTTPAddr, "http", "", "serve the status API on this address (default API_ADDR)")
}

func initScheduler(cmd *cobra.Command, a *app, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	orchestrator, err := a.buildOrchestrator(cmd.Context(), nil)
	if err != nil {
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	opts = append([]scheduler.Option{scheduler.WithRetry(2, 10*time.Minute)}, opts...)
	sched := scheduler.New(a.log, opts...)

	recommendation := jobs.NewRecommendationJob(orchestrator, a.runConfig("", false, 0), a.cfg.Schedule, a.log)
	if err := sched.AddJob(recommendation); err != nil {
		return nil, err
	}
	prune := jobs.NewHistoryPruneJob(a.history, a.strategy.History.RetentionDays, a.log)
	if err := sched.AddJob(prune); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	events := handlers.NewEventHub(a.log)
	sched, err := initScheduler(cmd, a, scheduler.WithListener(events.Publish))
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := a.history.Load(); err != nil {
		return err
	}

	sched.Start()

	addr := schedulerHTTPAddr
	if addr == "" {
		addr = a.cfg.APIAddr
	}
	var server *api.Server
	if addr != "" {
		router := api.NewRouter(
			handlers.NewHistoryHandler(a.history, a.strategy.History.CooldownDays, a.log),
			handlers.NewJobHandler(sched, a.log),
			events,
			a.log,
		)
		server = api.New(addr, a.log, router)
		go func() {
			if err := server.Start(); err != nil {
				a.log.WithError(err).Error("API server stopped")
			}
		}()
	}

	PrintHeader("Scheduler started")
	for _, name := range sched.GetAllJobs() {
		PrintKeyValue(name, sched.NextRun(name).Format("2006-01-02 15:04:05"), 16)
	}
	if server != nil {
		PrintInfo("Status API: http://" + addr + "/api/jobs")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Warn("API shutdown failed")
		}
	}
	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(cmd, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunJobSync(args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.1fs", result.JobName, result.Duration.Seconds()))
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := initScheduler(cmd, a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	widths := []int{16, 20}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}
