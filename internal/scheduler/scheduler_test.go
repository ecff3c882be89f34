package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartpick/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	failures int32 // number of leading runs that fail
	runs     int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJobRejectsDuplicatesAndBadSchedules(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 3 * * 0"}))
	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 3 * * 0"}))
	assert.Error(t, s.AddJob(&countingJob{name: "b", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRunJobSyncRetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
}

func TestRunJobSyncGivesUp(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	require.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()
	_, err := s.RunJobSync("missing")
	assert.Error(t, err)
	assert.Error(t, s.RunJob("missing"))
	assert.Error(t, s.RemoveJob("missing"))
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))
	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.True(t, s.NextRun("a").IsZero())
}

func TestStartSchedulesNextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}))

	s.Start()
	defer s.Stop()

	assert.False(t, s.NextRun("a").IsZero())
}

func TestScheduledJobFires(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "tick", schedule: "* * * * * *"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&job.runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestJobHistoryKeepsLatest(t *testing.T) {
	h := &JobHistory{}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxHistory+20; i++ {
		h.AddResult(JobResult{StartTime: base.Add(time.Duration(i) * time.Minute), Success: i%2 == 0})
	}

	assert.Len(t, h.Results, MaxHistory)
	latest := h.GetLatestResults(2)
	require.Len(t, latest, 2)
	assert.True(t, latest[0].StartTime.After(latest[1].StartTime))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetFailedResults(), MaxHistory/2)
	assert.Empty(t, (&JobHistory{}).GetLatestResults(5))
	assert.Zero(t, (&JobHistory{}).GetSuccessRate())
}

func TestListenerReceivesResults(t *testing.T) {
	var got []JobResult
	s := New(logger.Nop(), WithRetry(0, time.Millisecond), WithListener(func(r JobResult) {
		got = append(got, r)
	}))
	require.NoError(t, s.AddJob(&countingJob{name: "once", schedule: "@daily", failures: 1}))

	_, err := s.RunJobSync("once")
	require.NoError(t, err)
	_, err = s.RunJobSync("once")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.False(t, got[0].Success)
	assert.True(t, got[1].Success)
}
