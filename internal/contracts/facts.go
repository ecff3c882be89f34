package contracts

import "time"

// ScreeningFact is the per-symbol output of the screener. Immutable once produced.
// ⭐ SSOT: 스크리닝 결과 → 분석 단계 전달
type ScreeningFact struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
	Description string `json:"description,omitempty"`

	CurrentPrice    float64 `json:"current_price"`
	Low52W          float64 `json:"low_52w"`
	High52W         float64 `json:"high_52w"`
	AboveLowPct     float64 `json:"above_low_pct"`      // (price-low)/low*100
	DropFromHighPct float64 `json:"drop_from_high_pct"` // (high-price)/high*100

	MarketCap    float64   `json:"market_cap"`
	NetIncome    *float64  `json:"net_income,omitempty"`
	FreeCashFlow *float64  `json:"free_cash_flow,omitempty"`
	DebtToEquity *float64  `json:"debt_to_equity,omitempty"`
	Valuation    Valuation `json:"valuation"`

	ScreenedAt time.Time `json:"screened_at"`
}

// Valuation holds the provider's valuation ratios. Nil means not reported.
type Valuation struct {
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"` // fraction, 0.012 = 1.2%
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	AnalystTarget  *float64 `json:"analyst_target,omitempty"`
}

// SuperinvestorActivity summarizes notable-fund trades in a symbol
type SuperinvestorActivity struct {
	Buys    int      `json:"buys"`
	Sells   int      `json:"sells"`
	Holds   int      `json:"holds"`
	Buyers  []string `json:"buyers,omitempty"`
	Sellers []string `json:"sellers,omitempty"`
}

// HasAddition reports any recent buy/add activity
func (s SuperinvestorActivity) HasAddition() bool {
	return s.Buys > 0
}

// TotalActivity is buys + sells + holds
func (s SuperinvestorActivity) TotalActivity() int {
	return s.Buys + s.Sells + s.Holds
}

// InsiderActivity summarizes insider transactions. NetValue is signed USD:
// purchases add, sales subtract.
type InsiderActivity struct {
	Buys     int     `json:"buys"`
	Sells    int     `json:"sells"`
	NetValue float64 `json:"net_value"`
}

// ActivityFact is the smart-money input for one symbol. The zero value means
// "no activity found" and is a valid input to scoring.
type ActivityFact struct {
	Symbol        string                `json:"symbol"`
	Superinvestor SuperinvestorActivity `json:"superinvestor"`
	Insider       InsiderActivity       `json:"insider"`
}

// NeutralQualitativeScore is used for any sub-score the analyzer could not produce
const NeutralQualitativeScore = 5.0

// QualitativeScore is the analyzer's assessment. Sub-scores are on a 1..10 scale.
type QualitativeScore struct {
	Management              float64 `json:"management"`
	Sustainability          float64 `json:"sustainability"`
	ManagementRationale     string  `json:"management_rationale,omitempty"`
	SustainabilityRationale string  `json:"sustainability_rationale,omitempty"`
	Outlook                 string  `json:"outlook,omitempty"`
	Neutral                 bool    `json:"neutral"` // true when produced without an analyzer
}

// NeutralQualitative returns the documented default used when no analysis is available
func NeutralQualitative(reason string) QualitativeScore {
	return QualitativeScore{
		Management:              NeutralQualitativeScore,
		Sustainability:          NeutralQualitativeScore,
		ManagementRationale:     reason,
		SustainabilityRationale: reason,
		Neutral:                 true,
	}
}
