package contracts

import (
	"context"
	"time"
)

// UniverseSource lists the symbols a run considers
// ⭐ SSOT: 유니버스 인터페이스
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}

// Screener produces a ScreeningFact or an error wrapping ErrNotQualified
// ⭐ SSOT: 스크리닝 인터페이스
type Screener interface {
	Screen(ctx context.Context, symbol string) (ScreeningFact, error)
}

// ActivitySource returns smart-money activity. "Nothing found" is a zero
// fact, not an error; errors are transport failures only.
type ActivitySource interface {
	Activity(ctx context.Context, symbol string) (ActivityFact, error)
}

// QualitativeAnalyzer scores management and sustainability from the screening
// fact and whatever research was gathered. When the analyzer is unavailable
// it returns NeutralQualitative rather than an error.
type QualitativeAnalyzer interface {
	Analyze(ctx context.Context, fact ScreeningFact, research Research) (QualitativeScore, error)
}

// ReportInput is everything the report generator receives
type ReportInput struct {
	RunID       string
	GeneratedAt time.Time
	Top         Candidate
	Ranked      []Candidate
}

// ReportWriter renders a report and returns where it was written
type ReportWriter interface {
	Write(ctx context.Context, in ReportInput) (string, error)
}

// RecommendationHistory is the cooldown store used by the pipeline
type RecommendationHistory interface {
	Load() error
	ExcludedSymbols(cooldownDays int) map[string]struct{}
	Prune(retentionDays int) (int, error)
	Record(symbol string, score, priceDelta float64) error
	Info(symbol string) (RecommendationInfo, bool)
}
