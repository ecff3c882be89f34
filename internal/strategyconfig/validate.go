package strategyconfig

import (
	"fmt"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Screening ===
	if err := validatePctRange(cfg.Screening.MinDropFromHighPct, "screening.min_drop_from_high_pct"); err != nil {
		return err
	}
	if cfg.Screening.MinMarketCapUSD < 0 {
		return ValidationError{"screening.min_market_cap_usd", "must be >= 0"}
	}
	if cfg.Screening.EnforceMaxDebtToEquity && cfg.Screening.MaxDebtToEquity <= 0 {
		return ValidationError{"screening.max_debt_to_equity", "must be > 0 when enforced"}
	}
	if cfg.Screening.LookbackDays <= 0 {
		return ValidationError{"screening.lookback_days", "must be > 0"}
	}

	// === Scoring ===
	if cfg.Scoring.InsiderSignificanceUSD <= 0 {
		return ValidationError{"scoring.insider_significance_usd", "must be > 0"}
	}
	if cfg.Scoring.InsiderLookbackDays <= 0 {
		return ValidationError{"scoring.insider_lookback_days", "must be > 0"}
	}
	if cfg.Scoring.LowDebtToEquity <= 0 {
		return ValidationError{"scoring.low_debt_to_equity", "must be > 0"}
	}
	if cfg.Scoring.NearLowPct <= 0 {
		return ValidationError{"scoring.near_low_pct", "must be > 0"}
	}

	// === History ===
	// retention < cooldown이면 쿨다운 중인 종목이 삭제됨
	if cfg.History.CooldownDays <= 0 {
		return ValidationError{"history.cooldown_days", "must be > 0"}
	}
	if cfg.History.RetentionDays < cfg.History.CooldownDays {
		return ValidationError{"history.retention_days", "must be >= cooldown_days"}
	}

	// === Report ===
	if cfg.Report.TopN <= 0 {
		return ValidationError{"report.top_n", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Screening.MinDropFromHighPct < 0.1 {
		warnings = append(warnings, Warning{
			Code:    "SHALLOW_DROP",
			Message: "min drop from high < 10%: most of the universe will pass screening",
		})
	}

	if cfg.Screening.MinMarketCapUSD < 300_000_000 {
		warnings = append(warnings, Warning{
			Code:    "MICRO_CAP",
			Message: "market cap floor < $300M: activity data is sparse for small caps",
		})
	}

	if cfg.History.CooldownDays < 14 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_COOLDOWN",
			Message: "cooldown < 14 days: the same symbol may be recommended repeatedly",
		})
	}

	return warnings
}

// validatePctRange는 퍼센트 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
