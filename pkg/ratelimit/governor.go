package ratelimit

import (
	"context"
	"time"

	"github.com/wonny/smartpick/pkg/logger"
)

// SafetyMargin is added to every computed wait so the oldest record is
// strictly outside the window when the caller resumes.
const SafetyMargin = 100 * time.Millisecond

// Clock abstracts time for the governor
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Governor bounds calls to one external resource to MaxCalls in any trailing
// Window. Callers over the limit are suspended, never rejected.
// ⭐ SSOT: Alpha Vantage 호출 레이트 리밋은 여기서만
type Governor struct {
	maxCalls int
	window   time.Duration
	clock    Clock
	logger   *logger.Logger

	// sem serializes evict-wait-append; a channel so waiting to enter is cancellable
	sem   chan struct{}
	calls []time.Time // oldest first
}

// Option configures a Governor
type Option func(*Governor)

// WithClock replaces the wall clock (tests)
func WithClock(c Clock) Option {
	return func(g *Governor) { g.clock = c }
}

// WithLogger attaches a logger for wait notices
func WithLogger(l *logger.Logger) Option {
	return func(g *Governor) { g.logger = l }
}

// New creates a governor allowing maxCalls per window
func New(maxCalls int, window time.Duration, opts ...Option) *Governor {
	if maxCalls < 1 {
		maxCalls = 1
	}
	g := &Governor{
		maxCalls: maxCalls,
		window:   window,
		clock:    realClock{},
		logger:   logger.Nop(),
		sem:      make(chan struct{}, 1),
		calls:    make([]time.Time, 0, maxCalls),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit blocks until a call is allowed, then records it. It never fails.
func (g *Governor) Admit() {
	_ = g.AdmitContext(context.Background())
}

// AdmitContext is Admit with cancellation. It returns ctx.Err() if ctx ends
// before the call is admitted; no record is added in that case.
func (g *Governor) AdmitContext(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-g.sem }()

	now := g.clock.Now()
	g.evict(now)

	if len(g.calls) >= g.maxCalls {
		// after evict the oldest record is at most window old, so wait >= 0
		wait := g.calls[0].Add(g.window).Sub(now)
		g.logger.WithFields(map[string]interface{}{
			"wait":      wait.Round(time.Millisecond).String(),
			"max_calls": g.maxCalls,
			"window":    g.window.String(),
		}).Info("Rate limit reached, waiting")

		if err := g.clock.Sleep(ctx, wait+SafetyMargin); err != nil {
			return err
		}
		now = g.clock.Now()
		g.evict(now)
	}

	g.calls = append(g.calls, now)
	return nil
}

// CurrentUsage returns the number of calls inside the window as of now.
// It evicts stale records but never adds one.
func (g *Governor) CurrentUsage() int {
	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	g.evict(g.clock.Now())
	return len(g.calls)
}

// Reset clears all records
func (g *Governor) Reset() {
	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	g.calls = g.calls[:0]
}

// MaxCalls returns the configured ceiling
func (g *Governor) MaxCalls() int { return g.maxCalls }

// Window returns the configured window length
func (g *Governor) Window() time.Duration { return g.window }

// evict drops records older than now-window. A record exactly window old is kept.
func (g *Governor) evict(now time.Time) {
	i := 0
	for i < len(g.calls) && now.Sub(g.calls[i]) > g.window {
		i++
	}
	if i > 0 {
		g.calls = append(g.calls[:0], g.calls[i:]...)
	}
}
