package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
	"github.com/wonny/smartpick/pkg/redis"
)

// SuperinvestorSource reports notable-fund activity for a symbol
type SuperinvestorSource interface {
	FetchActivity(ctx context.Context, symbol string) (contracts.SuperinvestorActivity, error)
}

// InsiderSource reports insider transactions for a symbol
type InsiderSource interface {
	FetchActivity(ctx context.Context, symbol string) (contracts.InsiderActivity, error)
}

// ActivityCollector combines superinvestor and insider activity, cached per day
// ⭐ SSOT: 스마트머니 활동 수집은 여기서만
type ActivityCollector struct {
	superinvestors SuperinvestorSource
	insiders       InsiderSource
	cache          *redis.Cache
	ttl            time.Duration
	logger         *logger.Logger
	now            func() time.Time
}

// NewActivityCollector creates a collector. cache may be nil; ttl <= 0 uses 12h.
func NewActivityCollector(super SuperinvestorSource, insider InsiderSource, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *ActivityCollector {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &ActivityCollector{
		superinvestors: super,
		insiders:       insider,
		cache:          cache,
		ttl:            ttl,
		logger:         log.WithComponent("activity"),
		now:            time.Now,
	}
}

// Activity returns the combined fact. Nothing found on either site is a
// zero-valued axis; only transport failures are errors.
func (a *ActivityCollector) Activity(ctx context.Context, symbol string) (contracts.ActivityFact, error) {
	key := redis.ActivityKey(symbol, a.now())

	var fact contracts.ActivityFact
	if hit, err := a.cache.Get(ctx, key, &fact); err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Warn("Activity cache read failed")
	} else if hit {
		return fact, nil
	}

	super, err := a.superinvestors.FetchActivity(ctx, symbol)
	if err != nil {
		return contracts.ActivityFact{}, fmt.Errorf("superinvestor activity: %w", err)
	}

	insider, err := a.insiders.FetchActivity(ctx, symbol)
	if err != nil {
		return contracts.ActivityFact{}, fmt.Errorf("insider activity: %w", err)
	}

	fact = contracts.ActivityFact{
		Symbol:        symbol,
		Superinvestor: super,
		Insider:       insider,
	}

	if err := a.cache.Set(ctx, key, fact, a.ttl); err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Warn("Activity cache write failed")
	}

	a.logger.WithFields(map[string]interface{}{
		"symbol":              symbol,
		"superinvestor_buys":  super.Buys,
		"superinvestor_sells": super.Sells,
		"insider_net_value":   insider.NetValue,
	}).Debug("Collected activity")
	return fact, nil
}

var _ contracts.ActivitySource = (*ActivityCollector)(nil)
