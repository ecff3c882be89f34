package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when Sleep or Advance is called
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	slept  []time.Duration
	cancel bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAdmitUnderLimitDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	g := New(3, 10*time.Second, WithClock(clock))

	for i := 0; i < 3; i++ {
		g.Admit()
		clock.Advance(time.Second)
	}

	assert.Empty(t, clock.slept)
	assert.Equal(t, 3, g.CurrentUsage())
}

func TestAdmitAtLimitWaitsForOldest(t *testing.T) {
	clock := newFakeClock()
	g := New(2, 10*time.Second, WithClock(clock))

	g.Admit() // t=0
	clock.Advance(3 * time.Second)
	g.Admit() // t=3
	clock.Advance(2 * time.Second)
	g.Admit() // t=5 -> must wait until 10 (+margin)

	require.Len(t, clock.slept, 1)
	assert.Equal(t, 5*time.Second+SafetyMargin, clock.slept[0])
	// t=0 evicted after the wait; t=3 and the new call remain
	assert.Equal(t, 2, g.CurrentUsage())
}

func TestAdmitWaitsWhenOldestIsExactlyWindowOld(t *testing.T) {
	clock := newFakeClock()
	g := New(2, 10*time.Second, WithClock(clock))

	g.Admit()
	g.Admit()
	clock.Advance(10 * time.Second)
	g.Admit()

	// both t=0 records are still inside the closed window, so a wait is required
	require.Len(t, clock.slept, 1)
	assert.Equal(t, SafetyMargin, clock.slept[0])
	assert.Equal(t, 1, g.CurrentUsage())
}

func TestCurrentUsageEvictsButNeverAdds(t *testing.T) {
	clock := newFakeClock()
	g := New(5, time.Minute, WithClock(clock))

	g.Admit()
	g.Admit()
	assert.Equal(t, 2, g.CurrentUsage())
	assert.Equal(t, 2, g.CurrentUsage())

	clock.Advance(time.Minute + time.Millisecond)
	assert.Equal(t, 0, g.CurrentUsage())
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	g := New(2, time.Minute, WithClock(clock))

	g.Admit()
	g.Admit()
	g.Reset()

	assert.Equal(t, 0, g.CurrentUsage())
	g.Admit()
	assert.Empty(t, clock.slept)
}

func TestAdmitContextCancelled(t *testing.T) {
	clock := newFakeClock()
	g := New(1, time.Minute, WithClock(clock))
	g.Admit()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.AdmitContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, g.CurrentUsage(), "cancelled admit must not add a record")
}

// No closed window [t-W, t] ending at an admitted call holds more than maxCalls records.
func TestSlidingWindowProperty(t *testing.T) {
	configs := []struct {
		maxCalls int
		window   time.Duration
	}{
		{1, time.Second},
		{3, 10 * time.Second},
		{5, time.Minute},
		{75, time.Minute},
	}

	for _, cfg := range configs {
		rng := rand.New(rand.NewSource(int64(cfg.maxCalls)))
		clock := newFakeClock()
		g := New(cfg.maxCalls, cfg.window, WithClock(clock))

		var admitted []time.Time
		for i := 0; i < 500; i++ {
			// bursts of zero gap mixed with occasional pauses
			if rng.Intn(4) == 0 {
				clock.Advance(time.Duration(rng.Int63n(int64(cfg.window))))
			}
			g.Admit()
			admitted = append(admitted, clock.Now())
		}

		for i, end := range admitted {
			start := end.Add(-cfg.window)
			count := 0
			for _, ts := range admitted[:i+1] {
				if !ts.Before(start) {
					count++
				}
			}
			require.LessOrEqualf(t, count, cfg.maxCalls,
				"max=%d window=%s: %d calls in window ending at call %d", cfg.maxCalls, cfg.window, count, i)
		}
	}
}

func TestAdmitConcurrentCallers(t *testing.T) {
	clock := newFakeClock()
	g := New(4, 10*time.Second, WithClock(clock))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Admit()
		}()
	}
	wg.Wait()

	// 20 calls at 4 per window need at least 4 waits
	assert.GreaterOrEqual(t, len(clock.slept), 4)
	assert.LessOrEqual(t, g.CurrentUsage(), 4)
}

func TestRealClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := realClock{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
