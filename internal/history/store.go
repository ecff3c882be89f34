// Package history persists the last recommendation per symbol and answers
// cooldown questions against it.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

const day = 24 * time.Hour

// dateLayouts are tried in order when reading the file. The second accepts
// timestamps written without a zone offset.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// fileEntry is the on-disk record: {"date": ISO-8601, "score": n, "price_delta": n}
type fileEntry struct {
	Date       string  `json:"date"`
	Score      float64 `json:"score"`
	PriceDelta float64 `json:"price_delta"`
}

// Store is the JSON-file backed recommendation history
// ⭐ SSOT: 추천 이력 파일은 이 Store만 읽고 쓴다
type Store struct {
	path   string
	logger *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]contracts.HistoryEntry
}

// Option configures a Store
type Option func(*Store)

// WithNow replaces the wall clock (tests)
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store for path. Call Load before use.
func NewStore(path string, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		path:    path,
		logger:  log.WithComponent("history"),
		now:     time.Now,
		entries: make(map[string]contracts.HistoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing, unreadable or corrupt file leaves the store
// empty and is never an error; the return value exists for interface symmetry.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]contracts.HistoryEntry)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.WithField("path", s.path).Debug("No history file, starting empty")
		} else {
			s.logger.WithError(err).WithField("path", s.path).Warn("Failed to read history, starting empty")
		}
		return nil
	}

	raw := make(map[string]fileEntry)
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Corrupt history file, starting empty")
		return nil
	}

	for symbol, fe := range raw {
		at, err := parseDate(fe.Date)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"date":   fe.Date,
			}).Warn("Skipping history entry with invalid date")
			continue
		}
		s.entries[symbol] = contracts.HistoryEntry{
			Symbol:        symbol,
			RecommendedAt: at,
			Score:         fe.Score,
			PriceDelta:    fe.PriceDelta,
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"path":    s.path,
		"entries": len(s.entries),
	}).Info("Loaded recommendation history")
	return nil
}

// ExcludedSymbols returns symbols recommended within the last cooldownDays.
// An entry recorded at T is excluded for every query time up to and including T+C.
func (s *Store) ExcludedSymbols(cooldownDays int) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-time.Duration(cooldownDays) * day)
	excluded := make(map[string]struct{})
	for symbol, e := range s.entries {
		if !e.RecommendedAt.Before(cutoff) {
			excluded[symbol] = struct{}{}
		}
	}
	return excluded
}

// Record upserts symbol with the current time and rewrites the file.
// On a write failure the in-memory state is rolled back to match the file.
func (s *Store) Record(symbol string, score, priceDelta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.entries[symbol]
	s.entries[symbol] = contracts.HistoryEntry{
		Symbol:        symbol,
		RecommendedAt: s.now(),
		Score:         score,
		PriceDelta:    priceDelta,
	}
	if err := s.persist(); err != nil {
		if existed {
			s.entries[symbol] = prev
		} else {
			delete(s.entries, symbol)
		}
		return fmt.Errorf("failed to record %s: %w", symbol, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"score":  score,
	}).Info("Recorded recommendation")
	return nil
}

// Prune removes entries older than retentionDays and persists only when
// something was removed. It returns the number of removed entries.
func (s *Store) Prune(retentionDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-time.Duration(retentionDays) * day)
	removed := make(map[string]contracts.HistoryEntry)
	for symbol, e := range s.entries {
		if e.RecommendedAt.Before(cutoff) {
			removed[symbol] = e
			delete(s.entries, symbol)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	if err := s.persist(); err != nil {
		for symbol, e := range removed {
			s.entries[symbol] = e
		}
		return 0, fmt.Errorf("failed to persist pruned history: %w", err)
	}
	s.logger.WithFields(map[string]interface{}{
		"removed":        len(removed),
		"retention_days": retentionDays,
	}).Info("Pruned recommendation history")
	return len(removed), nil
}

// Info returns the display view of symbol's last recommendation
func (s *Store) Info(symbol string) (contracts.RecommendationInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[symbol]
	if !ok {
		return contracts.RecommendationInfo{}, false
	}
	return s.info(e), true
}

// List returns all entries, most recent first
func (s *Store) List() []contracts.RecommendationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contracts.RecommendationInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, s.info(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastRecommended.Equal(out[j].LastRecommended) {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].LastRecommended.After(out[j].LastRecommended)
	})
	return out
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) info(e contracts.HistoryEntry) contracts.RecommendationInfo {
	return contracts.RecommendationInfo{
		Symbol:          e.Symbol,
		LastRecommended: e.RecommendedAt,
		DaysAgo:         int(s.now().Sub(e.RecommendedAt) / day),
		Score:           e.Score,
		PriceDelta:      e.PriceDelta,
	}
}

// persist rewrites the whole file via temp file + rename. Caller holds mu.
func (s *Store) persist() error {
	raw := make(map[string]fileEntry, len(s.entries))
	for symbol, e := range s.entries {
		raw[symbol] = fileEntry{
			Date:       e.RecommendedAt.Format(time.RFC3339Nano),
			Score:      e.Score,
			PriceDelta: e.PriceDelta,
		}
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
