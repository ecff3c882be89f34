package contracts

import (
	"context"
	"time"
)

// QuarterlyFinancial is one quarterly income statement. Nil fields were not reported.
type QuarterlyFinancial struct {
	FiscalDateEnding string   `json:"fiscal_date_ending"`
	TotalRevenue     *float64 `json:"total_revenue,omitempty"`
	NetIncome        *float64 `json:"net_income,omitempty"`
	ReportedEPS      *float64 `json:"reported_eps,omitempty"`
}

// QuarterlyEarning is one reported quarter against the consensus estimate
type QuarterlyEarning struct {
	FiscalDateEnding string   `json:"fiscal_date_ending"`
	ReportedDate     string   `json:"reported_date"`
	ReportedEPS      *float64 `json:"reported_eps,omitempty"`
	EstimatedEPS     *float64 `json:"estimated_eps,omitempty"`
	SurprisePct      *float64 `json:"surprise_pct,omitempty"`
}

// NewsItem is one recent headline
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
}

// Research is the background gathered for a screened symbol. Every part is
// optional; a part that could not be fetched is left empty.
// ⭐ SSOT: 리서치 데이터 → 분석/리포트 전달
type Research struct {
	Financials []QuarterlyFinancial `json:"financials,omitempty"` // most recent first
	Earnings   []QuarterlyEarning   `json:"earnings,omitempty"`   // most recent first
	News       []NewsItem           `json:"news,omitempty"`
}

// Empty reports whether nothing was gathered
func (r Research) Empty() bool {
	return len(r.Financials) == 0 && len(r.Earnings) == 0 && len(r.News) == 0
}

// ResearchSource gathers Research for a symbol. Missing parts are not errors;
// an error means the whole lookup was abandoned (cancellation).
type ResearchSource interface {
	Research(ctx context.Context, symbol string) (Research, error)
}

// ThesisWriter produces the key investment reasons for the recommended candidate
type ThesisWriter interface {
	Thesis(ctx context.Context, c Candidate) ([]string, error)
}
