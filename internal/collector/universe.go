// Package collector assembles the pipeline's external inputs: the symbol
// universe and per-symbol smart-money activity.
package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/external/wikipedia"
	"github.com/wonny/smartpick/pkg/logger"
	"github.com/wonny/smartpick/pkg/redis"
)

// IndexSource lists the constituents of a market index
type IndexSource interface {
	FetchConstituents(ctx context.Context, index wikipedia.Index) ([]string, error)
}

// IndexUniverse is the union of several index constituent lists
// ⭐ SSOT: 유니버스 생성은 여기서만
type IndexUniverse struct {
	source  IndexSource
	indexes []wikipedia.Index
	cache   *redis.Cache
	logger  *logger.Logger
	now     func() time.Time
}

// NewIndexUniverse creates a universe over indexes. cache may be nil.
func NewIndexUniverse(source IndexSource, indexes []wikipedia.Index, cache *redis.Cache, log *logger.Logger) *IndexUniverse {
	if len(indexes) == 0 {
		indexes = wikipedia.AllIndexes
	}
	return &IndexUniverse{
		source:  source,
		indexes: indexes,
		cache:   cache,
		logger:  log.WithComponent("universe"),
		now:     time.Now,
	}
}

// Symbols returns the deduplicated, sorted union. A failing index is logged
// and skipped; only an empty union is an error.
func (u *IndexUniverse) Symbols(ctx context.Context) ([]string, error) {
	key := redis.UniverseKey(u.now())

	var cached []string
	if hit, err := u.cache.Get(ctx, key, &cached); err != nil {
		u.logger.WithError(err).Warn("Universe cache read failed")
	} else if hit && len(cached) > 0 {
		u.logger.WithField("count", len(cached)).Debug("Universe served from cache")
		return cached, nil
	}

	seen := make(map[string]struct{})
	for _, index := range u.indexes {
		symbols, err := u.source.FetchConstituents(ctx, index)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			u.logger.WithError(err).WithField("index", string(index)).Warn("Failed to fetch index constituents")
			continue
		}
		for _, s := range symbols {
			seen[s] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil, fmt.Errorf("universe: %w", contracts.ErrNoData)
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)

	if err := u.cache.Set(ctx, key, out, redis.TTLDaily); err != nil {
		u.logger.WithError(err).Warn("Universe cache write failed")
	}

	u.logger.WithFields(map[string]interface{}{
		"indexes": len(u.indexes),
		"count":   len(out),
	}).Info("Universe built")
	return out, nil
}

// StaticUniverse is a fixed symbol list (targeted runs, tests)
type StaticUniverse []string

// ParseSymbols splits "aaa, BBB,,ccc" into normalized symbols
func ParseSymbols(s string) StaticUniverse {
	var out StaticUniverse
	for _, part := range strings.Split(s, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// Symbols returns the list deduplicated in first-seen order
func (s StaticUniverse) Symbols(ctx context.Context) ([]string, error) {
	return Dedupe(s), nil
}

// Dedupe removes repeated symbols keeping the first occurrence
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var (
	_ contracts.UniverseSource = (*IndexUniverse)(nil)
	_ contracts.UniverseSource = StaticUniverse(nil)
)
