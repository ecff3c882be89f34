package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/smartpick/internal/scheduler"
	"github.com/wonny/smartpick/pkg/logger"
)

// JobController is the scheduler surface exposed over HTTP
type JobController interface {
	GetAllJobs() []string
	GetJobStats() map[string]scheduler.JobStats
	NextRun(jobName string) time.Time
	RunJob(jobName string) error
}

// JobHandler serves scheduler status and manual triggers
type JobHandler struct {
	jobs   JobController
	logger *logger.Logger
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobController, log *logger.Logger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: log,
	}
}

// JobItem is a job's stats plus its next activation
type JobItem struct {
	scheduler.JobStats
	NextRun *time.Time `json:"next_run,omitempty"`
}

// List returns registered jobs in name order
// GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	stats := h.jobs.GetJobStats()

	items := make([]JobItem, 0, len(stats))
	for _, name := range h.jobs.GetAllJobs() {
		item := JobItem{JobStats: stats[name]}
		if next := h.jobs.NextRun(name); !next.IsZero() {
			item.NextRun = &next
		}
		items = append(items, item)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"items": items,
	})
}

// Run starts a job in the background
// POST /api/jobs/{name}/run
func (h *JobHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.jobs.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "started",
	})
}
