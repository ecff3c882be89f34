package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

// HistoryPruneJob drops history entries older than the retention period
type HistoryPruneJob struct {
	history       contracts.RecommendationHistory
	retentionDays int
	logger        *logger.Logger
}

// NewHistoryPruneJob creates a new history prune job
func NewHistoryPruneJob(history contracts.RecommendationHistory, retentionDays int, log *logger.Logger) *HistoryPruneJob {
	return &HistoryPruneJob{
		history:       history,
		retentionDays: retentionDays,
		logger:        log,
	}
}

// Name returns the job name
func (j *HistoryPruneJob) Name() string {
	return "history_prune"
}

// Schedule returns the cron schedule (Sunday 03:00)
func (j *HistoryPruneJob) Schedule() string {
	return "0 0 3 * * 0"
}

// Run reloads the file and prunes it
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	if err := j.history.Load(); err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	removed, err := j.history.Prune(j.retentionDays)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed":        removed,
			"retention_days": j.retentionDays,
		}).Info("History prune completed")
	}
	return nil
}
