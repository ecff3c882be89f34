package selection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/logger"
)

// Screener applies hard-cut qualification rules to one symbol at a time
// ⭐ SSOT: 스크리닝 로직은 여기서만
type Screener struct {
	config ScreenerConfig
	data   contracts.MarketDataSource
	logger *logger.Logger
	now    func() time.Time
}

// ScreenerConfig defines hard cut conditions
// SSOT: strategy YAML screening section
type ScreenerConfig struct {
	MinDropFromHigh float64 // fraction, 0.25 = at least 25% below the 52w high
	MinMarketCap    float64 // USD

	// Debt/equity is carried for scoring; filtering on it is opt-in
	EnforceMaxDebtToEquity bool
	MaxDebtToEquity        float64

	LookbackDays int // price window for low/high, normally 365
}

// DefaultScreenerConfig returns default configuration
func DefaultScreenerConfig() ScreenerConfig {
	return ScreenerConfig{
		MinDropFromHigh: 0.25,
		MinMarketCap:    1_000_000_000,
		MaxDebtToEquity: 2.0,
		LookbackDays:    365,
	}
}

// NewScreener creates a new screener
func NewScreener(config ScreenerConfig, data contracts.MarketDataSource, log *logger.Logger) *Screener {
	if config.LookbackDays <= 0 {
		config.LookbackDays = 365
	}
	return &Screener{
		config: config,
		data:   data,
		logger: log.WithComponent("screener"),
		now:    time.Now,
	}
}

// Screen fetches data for symbol and returns its ScreeningFact, or an error
// wrapping contracts.ErrNotQualified with the filter name.
func (s *Screener) Screen(ctx context.Context, symbol string) (contracts.ScreeningFact, error) {
	bars, err := s.data.DailyCloses(ctx, symbol)
	if err != nil {
		return contracts.ScreeningFact{}, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}

	price, low, high, ok := s.priceRange(bars)
	if !ok {
		return contracts.ScreeningFact{}, contracts.NotQualified(symbol, "price_data", "missing or invalid price history")
	}

	drop := (high - price) / high
	if drop < s.config.MinDropFromHigh {
		return contracts.ScreeningFact{}, contracts.NotQualified(symbol, "drop_from_high",
			fmt.Sprintf("only %.1f%% below high, need %.0f%%", drop*100, s.config.MinDropFromHigh*100))
	}

	overview, err := s.data.Overview(ctx, symbol)
	if err != nil && !errors.Is(err, contracts.ErrNoData) {
		return contracts.ScreeningFact{}, fmt.Errorf("failed to fetch overview for %s: %w", symbol, err)
	}

	if overview.MarketCap == nil || *overview.MarketCap < s.config.MinMarketCap {
		return contracts.ScreeningFact{}, contracts.NotQualified(symbol, "market_cap", "")
	}

	netIncome := overview.NetIncome()
	if netIncome == nil || *netIncome <= 0 {
		return contracts.ScreeningFact{}, contracts.NotQualified(symbol, "net_income", "negative or missing")
	}

	if s.config.EnforceMaxDebtToEquity && overview.DebtToEquity != nil && *overview.DebtToEquity > s.config.MaxDebtToEquity {
		return contracts.ScreeningFact{}, contracts.NotQualified(symbol, "debt_to_equity", "")
	}

	// FCF is informational; a failed cash flow fetch does not disqualify
	fcf, err := s.data.FreeCashFlow(ctx, symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("Free cash flow unavailable")
		fcf = nil
	}

	return contracts.ScreeningFact{
		Symbol:          symbol,
		Name:            overview.Name,
		Sector:          overview.Sector,
		Industry:        overview.Industry,
		Exchange:        overview.Exchange,
		Description:     overview.Description,
		CurrentPrice:    round2(price),
		Low52W:          round2(low),
		High52W:         round2(high),
		AboveLowPct:     round2((price - low) / low * 100),
		DropFromHighPct: round2(drop * 100),
		MarketCap:       *overview.MarketCap,
		NetIncome:       netIncome,
		FreeCashFlow:    fcf,
		DebtToEquity:    overview.DebtToEquity,
		Valuation:       overview.Valuation,
		ScreenedAt:      s.now(),
	}, nil
}

// ScreenAll screens symbols in order and returns the qualifying facts.
// Rejections are counted by filter name; fetch failures under "error".
func (s *Screener) ScreenAll(ctx context.Context, symbols []string) ([]contracts.ScreeningFact, map[string]int, error) {
	passed := make([]contracts.ScreeningFact, 0)
	filtered := make(map[string]int) // Filter name -> count

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return passed, filtered, err
		}

		fact, err := s.Screen(ctx, symbol)
		if err != nil {
			filtered[RejectReason(err)]++
			s.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"reason": err.Error(),
			}).Debug("Symbol skipped")
			continue
		}
		passed = append(passed, fact)
	}

	s.logger.WithFields(map[string]interface{}{
		"total_input":  len(symbols),
		"passed":       len(passed),
		"filtered_out": len(symbols) - len(passed),
		"filters":      filtered,
	}).Info("Screening completed")

	return passed, filtered, nil
}

// RejectReason maps a Screen error to a filter name for counting
func RejectReason(err error) string {
	var nq *contracts.NotQualifiedError
	if errors.As(err, &nq) {
		return nq.Reason
	}
	return "error"
}

// priceRange returns the latest close and the min/max close within the lookback window
func (s *Screener) priceRange(bars []contracts.PriceBar) (price, low, high float64, ok bool) {
	start := s.now().AddDate(0, 0, -s.config.LookbackDays)

	window := make([]contracts.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date.After(start) && b.Close > 0 && !math.IsNaN(b.Close) {
			window = append(window, b)
		}
	}
	if len(window) == 0 {
		return 0, 0, 0, false
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].Date.Before(window[j].Date)
	})

	price = window[len(window)-1].Close
	low, high = price, price
	for _, b := range window {
		low = math.Min(low, b.Close)
		high = math.Max(high, b.Close)
	}
	return price, low, high, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
