package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartpick/pkg/logger"
)

var base = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: base}
	s := NewStore(filepath.Join(t.TempDir(), "history.json"), logger.Nop(), WithNow(clock.Now))
	require.NoError(t, s.Load())
	return s, clock
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.ExcludedSymbols(60))
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	writeFile(t, path, "{not json")

	s := NewStore(path, logger.Nop())
	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Len())
}

func TestLoadAcceptsNaiveTimestampsAndSkipsBadDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	writeFile(t, path, `{
  "AAA": {"date": "2025-01-01T09:30:00.123456", "score": 17, "price_delta": 3.2},
  "BBB": {"date": "2025-01-02T10:00:00Z", "score": 12.5, "price_delta": 8},
  "CCC": {"date": "yesterday", "score": 1, "price_delta": 1}
}`)

	s := NewStore(path, logger.Nop(), WithNow(func() time.Time { return base }))
	require.NoError(t, s.Load())

	assert.Equal(t, 2, s.Len())
	info, ok := s.Info("AAA")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 30, 0, 123456000, time.UTC), info.LastRecommended)
	assert.Equal(t, 17.0, info.Score)
	assert.Equal(t, 3.2, info.PriceDelta)
	assert.Equal(t, 9, info.DaysAgo)

	_, ok = s.Info("CCC")
	assert.False(t, ok)
}

func TestRecordPersistsAndReloads(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Record("AAA", 17, 3))

	var raw map[string]map[string]interface{}
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2025-01-10T12:00:00Z", raw["AAA"]["date"])
	assert.Equal(t, 17.0, raw["AAA"]["score"])
	assert.Equal(t, 3.0, raw["AAA"]["price_delta"])

	reloaded := NewStore(s.Path(), logger.Nop(), WithNow(func() time.Time { return base }))
	require.NoError(t, reloaded.Load())
	info, ok := reloaded.Info("AAA")
	require.True(t, ok)
	assert.True(t, info.LastRecommended.Equal(base))
}

func TestRecordOverwrites(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Record("AAA", 10, 1))
	clock.Set(base.Add(100 * day))
	require.NoError(t, s.Record("AAA", 15, 2))

	info, ok := s.Info("AAA")
	require.True(t, ok)
	assert.Equal(t, 15.0, info.Score)
	assert.Equal(t, 0, info.DaysAgo)
	assert.Equal(t, 1, s.Len())
}

func TestRecordLeavesNoTempFiles(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Record("AAA", 10, 1))
	require.NoError(t, s.Record("BBB", 11, 2))

	files, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "history.json", files[0].Name())
}

func TestRecordWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "x")

	// parent "directory" is a regular file
	s := NewStore(filepath.Join(blocker, "history.json"), logger.Nop())
	require.NoError(t, s.Load())

	err := s.Record("AAA", 1, 1)
	assert.Error(t, err)
}

// blockTarget replaces the history file with a non-empty directory so the
// final rename fails while the temp file can still be written.
func blockTarget(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.MkdirAll(filepath.Join(path, "sub"), 0o755))
}

func TestRecordWriteFailureRollsBack(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Record("AAA", 6, 2))
	before, _ := s.Info("AAA")

	blockTarget(t, s.Path())
	clock.Set(base.Add(3 * day))

	assert.Error(t, s.Record("AAA", 9, 1))
	after, ok := s.Info("AAA")
	require.True(t, ok)
	assert.Equal(t, before, after, "previous entry restored")

	assert.Error(t, s.Record("BBB", 4, 1))
	_, ok = s.Info("BBB")
	assert.False(t, ok, "new entry dropped")
	assert.Equal(t, 1, s.Len())
}

func TestPruneWriteFailureRollsBack(t *testing.T) {
	s, clock := newTestStore(t)
	clock.Set(base.Add(-400 * day))
	require.NoError(t, s.Record("OLD", 5, 9))
	clock.Set(base)

	blockTarget(t, s.Path())

	removed, err := s.Prune(365)
	assert.Error(t, err)
	assert.Equal(t, 0, removed)
	_, ok := s.Info("OLD")
	assert.True(t, ok)
}

func TestCooldownBoundary(t *testing.T) {
	const cooldown = 60

	tests := []struct {
		name     string
		at       time.Time
		excluded bool
	}{
		{"same instant", base, true},
		{"one second later", base.Add(time.Second), true},
		{"one day later", base.Add(day), true},
		{"exactly at cooldown end", base.Add(cooldown * day), true},
		{"just after cooldown end", base.Add(cooldown*day + time.Nanosecond), false},
		{"long after", base.Add(365 * day), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock := newTestStore(t)
			require.NoError(t, s.Record("AAA", 10, 1))

			clock.Set(tt.at)
			_, got := s.ExcludedSymbols(cooldown)["AAA"]
			assert.Equal(t, tt.excluded, got)
		})
	}
}

func TestUnknownSymbolNeverExcluded(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Record("AAA", 10, 1))

	excluded := s.ExcludedSymbols(60)
	_, ok := excluded["ZZZ"]
	assert.False(t, ok)
	assert.Len(t, excluded, 1)
}

func TestPrune(t *testing.T) {
	s, clock := newTestStore(t)

	clock.Set(base.Add(-400 * day))
	require.NoError(t, s.Record("OLD", 5, 9))
	clock.Set(base.Add(-100 * day))
	require.NoError(t, s.Record("MID", 12, 4))
	clock.Set(base)
	require.NoError(t, s.Record("NEW", 17, 3))

	before, _ := s.Info("MID")

	removed, err := s.Prune(365)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := s.Info("OLD")
	assert.False(t, ok)

	after, ok := s.Info("MID")
	require.True(t, ok)
	assert.Equal(t, before, after)

	reloaded := NewStore(s.Path(), logger.Nop(), WithNow(clock.Now))
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Len())
}

func TestPruneWithoutRemovalsDoesNotWrite(t *testing.T) {
	s, _ := newTestStore(t)

	removed, err := s.Prune(365)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr), "prune with nothing removed must not create the file")
}

func TestListMostRecentFirst(t *testing.T) {
	s, clock := newTestStore(t)
	clock.Set(base.Add(-10 * day))
	require.NoError(t, s.Record("AAA", 1, 1))
	clock.Set(base)
	require.NoError(t, s.Record("BBB", 2, 2))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "BBB", list[0].Symbol)
	assert.Equal(t, "AAA", list[1].Symbol)
	assert.Equal(t, 10, list[1].DaysAgo)
}

func TestConcurrentRecordIsSerialized(t *testing.T) {
	s, _ := newTestStore(t)

	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"}
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(sym string, score float64) {
			defer wg.Done()
			assert.NoError(t, s.Record(sym, score, 1))
		}(sym, float64(i))
	}
	wg.Wait()

	reloaded := NewStore(s.Path(), logger.Nop())
	require.NoError(t, reloaded.Load())
	assert.Equal(t, len(symbols), reloaded.Len())
}
