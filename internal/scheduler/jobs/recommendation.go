package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/smartpick/internal/brain"
	"github.com/wonny/smartpick/pkg/logger"
)

// PipelineRunner is satisfied by *brain.Orchestrator
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// RecommendationJob runs the full pipeline on a schedule
type RecommendationJob struct {
	runner   PipelineRunner
	config   brain.RunConfig
	schedule string
	logger   *logger.Logger

	newRunID func() string
}

// NewRecommendationJob creates the daily recommendation job. config.RunID is
// replaced on every run.
func NewRecommendationJob(runner PipelineRunner, config brain.RunConfig, schedule string, log *logger.Logger) *RecommendationJob {
	return &RecommendationJob{
		runner:   runner,
		config:   config,
		schedule: schedule,
		logger:   log,
		newRunID: brain.GenerateRunID,
	}
}

// Name returns the job name
func (j *RecommendationJob) Name() string {
	return "recommendation"
}

// Schedule returns the cron schedule
func (j *RecommendationJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run. Empty outcomes succeed so they are not retried.
func (j *RecommendationJob) Run(ctx context.Context) error {
	cfg := j.config
	cfg.RunID = j.newRunID()

	result, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline run %s: %w", cfg.RunID, err)
	}

	fields := map[string]interface{}{
		"run_id":  cfg.RunID,
		"outcome": string(result.Outcome),
	}
	if result.Recommendation != nil {
		fields["symbol"] = result.Recommendation.Symbol
		fields["total"] = result.Recommendation.Score.Total
		fields["report"] = result.ReportPath
	}
	j.logger.WithFields(fields).Info("Scheduled recommendation finished")

	return nil
}
