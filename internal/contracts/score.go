package contracts

// CompositeScore is recomputed for every run and never mutated after scoring.
//
//	SmartMoney = Superinvestor + Insider
//	Total      = SmartMoney + Qualitative + Bonus
type CompositeScore struct {
	Superinvestor int     `json:"superinvestor"` // 0..5
	Insider       int     `json:"insider"`       // 0..3
	SmartMoney    int     `json:"smart_money"`   // 0..10
	Qualitative   float64 `json:"qualitative"`   // 0..10
	Bonus         float64 `json:"bonus"`         // 0..2
	Total         float64 `json:"total"`
	PriceDeltaPct float64 `json:"price_delta_pct"` // tie-break, lower is better
}

// Candidate carries everything gathered for one symbol through ranking and reporting
// ⭐ SSOT: 점수화 → 랭킹 → 리포트 전달
type Candidate struct {
	Symbol      string           `json:"symbol"`
	Rank        int              `json:"rank"` // 1-based, 0 until ranked
	Screening   ScreeningFact    `json:"screening"`
	Activity    ActivityFact     `json:"activity"`
	Qualitative QualitativeScore `json:"qualitative"`
	Score       CompositeScore   `json:"score"`
	Research    Research         `json:"research"`
	Thesis      []string         `json:"thesis,omitempty"` // recommended candidate only
}

// IsTopRanked checks if the candidate is in the top n
func (c *Candidate) IsTopRanked(n int) bool {
	return c.Rank <= n && c.Rank > 0
}
