package collector

import (
	"context"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
	"github.com/wonny/smartpick/pkg/redis"
)

// FinancialsSource reports quarterly income statements and earnings
type FinancialsSource interface {
	IncomeStatement(ctx context.Context, symbol string) ([]contracts.QuarterlyFinancial, error)
	Earnings(ctx context.Context, symbol string) ([]contracts.QuarterlyEarning, error)
}

// NewsSource reports recent headlines
type NewsSource interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]contracts.NewsItem, error)
}

// ResearchCollector gathers background for the analyzer and the report.
// Each part is best effort; a complete result is cached for the day.
// ⭐ SSOT: 리서치 수집은 여기서만
type ResearchCollector struct {
	financials FinancialsSource
	news       NewsSource // optional
	newsLimit  int
	cache      *redis.Cache
	logger     *logger.Logger
	now        func() time.Time
}

// NewResearchCollector creates a collector. news and cache may be nil.
func NewResearchCollector(financials FinancialsSource, news NewsSource, newsLimit int, cache *redis.Cache, log *logger.Logger) *ResearchCollector {
	return &ResearchCollector{
		financials: financials,
		news:       news,
		newsLimit:  newsLimit,
		cache:      cache,
		logger:     log.WithComponent("research"),
		now:        time.Now,
	}
}

// Research returns whatever could be gathered. Only cancellation is an error.
func (r *ResearchCollector) Research(ctx context.Context, symbol string) (contracts.Research, error) {
	key := redis.ResearchKey(symbol, r.now())
	log := r.logger.WithField("symbol", symbol)

	var res contracts.Research
	if hit, err := r.cache.Get(ctx, key, &res); err != nil {
		log.WithError(err).Warn("Research cache read failed")
	} else if hit {
		return res, nil
	}

	complete := true

	financials, err := r.financials.IncomeStatement(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return contracts.Research{}, ctx.Err()
		}
		log.WithError(err).Warn("Quarterly financials unavailable")
		complete = false
	}

	earnings, err := r.financials.Earnings(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return contracts.Research{}, ctx.Err()
		}
		log.WithError(err).Warn("Earnings history unavailable")
		complete = false
	}

	var news []contracts.NewsItem
	if r.news != nil {
		news, err = r.news.Headlines(ctx, symbol, r.newsLimit)
		if err != nil {
			if ctx.Err() != nil {
				return contracts.Research{}, ctx.Err()
			}
			log.WithError(err).Warn("News unavailable")
			complete = false
		}
	}

	res = contracts.Research{
		Financials: mergeReportedEPS(financials, earnings),
		Earnings:   earnings,
		News:       news,
	}

	if complete {
		if err := r.cache.Set(ctx, key, res, redis.TTLDaily); err != nil {
			log.WithError(err).Warn("Research cache write failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"quarters": len(res.Financials),
		"earnings": len(res.Earnings),
		"news":     len(res.News),
	}).Debug("Collected research")
	return res, nil
}

// mergeReportedEPS fills each quarter's EPS from the earnings report of the same fiscal date
func mergeReportedEPS(financials []contracts.QuarterlyFinancial, earnings []contracts.QuarterlyEarning) []contracts.QuarterlyFinancial {
	eps := make(map[string]*float64, len(earnings))
	for _, e := range earnings {
		eps[e.FiscalDateEnding] = e.ReportedEPS
	}
	for i := range financials {
		if financials[i].ReportedEPS == nil {
			financials[i].ReportedEPS = eps[financials[i].FiscalDateEnding]
		}
	}
	return financials
}

var _ contracts.ResearchSource = (*ResearchCollector)(nil)
