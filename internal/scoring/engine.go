// Package scoring turns screening, activity and qualitative facts into a
// CompositeScore. Everything here is pure: no I/O, no clock, no randomness.
package scoring

import (
	"github.com/wonny/smartpick/internal/contracts"
)

// Point table
const (
	SuperinvestorBase       = 3
	SuperinvestorNetBuyer   = 2 // buys > sells
	SuperinvestorMixed      = 1 // 0 < buys <= sells
	InsiderSignificant      = 3 // net > threshold
	InsiderNetPositive      = 2
	InsiderAnyBuy           = 1
	MaxSuperinvestor        = SuperinvestorBase + SuperinvestorNetBuyer
	MaxInsider              = InsiderSignificant
	MaxSmartMoney           = 10
	MaxQualitative          = 10.0
	MaxBonus                = 2.0
	DefaultInsiderThreshold = 100_000.0
	DefaultLowDebtToEquity  = 0.5
	DefaultNearLowPct       = 5.0
	minQualitativeSubScore  = 1.0
	maxQualitativeSubScore  = 10.0
)

// Thresholds are the tunable cut-offs of the point table
type Thresholds struct {
	InsiderSignificance float64 // USD net insider buying that earns full insider points
	LowDebtToEquity     float64 // D/E strictly below this earns a bonus point
	NearLowPct          float64 // above-low pct strictly below this earns a bonus point
}

// DefaultThresholds returns the documented defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		InsiderSignificance: DefaultInsiderThreshold,
		LowDebtToEquity:     DefaultLowDebtToEquity,
		NearLowPct:          DefaultNearLowPct,
	}
}

// Engine computes composite scores
// ⭐ SSOT: 점수 계산 로직은 여기서만
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine. Zero-valued thresholds fall back to defaults.
func NewEngine(t Thresholds) *Engine {
	d := DefaultThresholds()
	if t.InsiderSignificance <= 0 {
		t.InsiderSignificance = d.InsiderSignificance
	}
	if t.LowDebtToEquity <= 0 {
		t.LowDebtToEquity = d.LowDebtToEquity
	}
	if t.NearLowPct <= 0 {
		t.NearLowPct = d.NearLowPct
	}
	return &Engine{thresholds: t}
}

// Thresholds returns the effective thresholds
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Score builds the CompositeScore for one symbol
func (e *Engine) Score(s contracts.ScreeningFact, a contracts.ActivityFact, q contracts.QualitativeScore) contracts.CompositeScore {
	super := SuperinvestorComponent(a.Superinvestor)
	insider := InsiderComponent(a.Insider, e.thresholds.InsiderSignificance)
	smart := super + insider
	qual := QualitativeComponent(q)
	bonus := e.BonusComponent(s)

	return contracts.CompositeScore{
		Superinvestor: super,
		Insider:       insider,
		SmartMoney:    smart,
		Qualitative:   qual,
		Bonus:         bonus,
		Total:         float64(smart) + qual + bonus,
		PriceDeltaPct: s.AboveLowPct,
	}
}

// SuperinvestorComponent awards 0..5 points for notable-fund buying
func SuperinvestorComponent(a contracts.SuperinvestorActivity) int {
	if a.Buys <= 0 {
		return 0
	}
	points := SuperinvestorBase
	if a.Buys > a.Sells {
		points += SuperinvestorNetBuyer
	} else {
		points += SuperinvestorMixed
	}
	return points
}

// InsiderComponent awards 0..3 points for insider buying. Any buy earns a
// point even when net value is negative; that overlap is intentional.
func InsiderComponent(a contracts.InsiderActivity, threshold float64) int {
	switch {
	case a.NetValue > threshold:
		return InsiderSignificant
	case a.NetValue > 0:
		return InsiderNetPositive
	case a.Buys > 0:
		return InsiderAnyBuy
	default:
		return 0
	}
}

// QualitativeComponent is management/2 + sustainability/2. A missing
// (non-positive) sub-score counts as neutral; others are clamped to 1..10.
func QualitativeComponent(q contracts.QualitativeScore) float64 {
	return subScore(q.Management)/2 + subScore(q.Sustainability)/2
}

// BonusComponent awards up to 2 points for low leverage and proximity to the 52w low
func (e *Engine) BonusComponent(s contracts.ScreeningFact) float64 {
	bonus := 0.0
	if s.DebtToEquity != nil && *s.DebtToEquity < e.thresholds.LowDebtToEquity {
		bonus++
	}
	if s.AboveLowPct < e.thresholds.NearLowPct {
		bonus++
	}
	return bonus
}

func subScore(v float64) float64 {
	if v <= 0 {
		return contracts.NeutralQualitativeScore
	}
	return Clamp(v, minQualitativeSubScore, maxQualitativeSubScore)
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
