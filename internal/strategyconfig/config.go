package strategyconfig

import "time"

// Config는 후보 선정 전략의 임계값 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Screening Screening `yaml:"screening" json:"screening"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	History   History   `yaml:"history" json:"history"`
	Report    Report    `yaml:"report" json:"report"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Screening hard-cut filters
type Screening struct {
	MinDropFromHighPct     float64 `yaml:"min_drop_from_high_pct" json:"min_drop_from_high_pct"` // fraction 0..1
	MinMarketCapUSD        float64 `yaml:"min_market_cap_usd" json:"min_market_cap_usd"`
	MaxDebtToEquity        float64 `yaml:"max_debt_to_equity" json:"max_debt_to_equity"`
	EnforceMaxDebtToEquity bool    `yaml:"enforce_max_debt_to_equity" json:"enforce_max_debt_to_equity"`
	LookbackDays           int     `yaml:"lookback_days" json:"lookback_days"`
}

// Scoring point-table cut-offs
type Scoring struct {
	InsiderSignificanceUSD float64 `yaml:"insider_significance_usd" json:"insider_significance_usd"`
	InsiderLookbackDays    int     `yaml:"insider_lookback_days" json:"insider_lookback_days"`
	LowDebtToEquity        float64 `yaml:"low_debt_to_equity" json:"low_debt_to_equity"`
	NearLowPct             float64 `yaml:"near_low_pct" json:"near_low_pct"`
}

// History cooldown policy
type History struct {
	CooldownDays  int `yaml:"cooldown_days" json:"cooldown_days"`
	RetentionDays int `yaml:"retention_days" json:"retention_days"`
}

// Report output
type Report struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// RunSnapshot records which thresholds produced a run
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	StrategyID string    `json:"strategy_id"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}
