package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/smartpick/internal/scoring"
	"github.com/wonny/smartpick/internal/selection"
	"github.com/wonny/smartpick/pkg/config"
)

// DefaultStrategyID names the built-in thresholds
const DefaultStrategyID = "smart_money_v1"

// FromEnv builds the base strategy from environment configuration
// ⭐ SSOT: env 기본값 → YAML 덮어쓰기 순서
func FromEnv(cfg *config.Config) *Config {
	return &Config{
		Meta: Meta{StrategyID: DefaultStrategyID, Version: "env"},
		Screening: Screening{
			MinDropFromHighPct: cfg.Screening.MinDropFromHighPct,
			MinMarketCapUSD:    cfg.Screening.MinMarketCap,
			MaxDebtToEquity:    cfg.Screening.MaxDebtToEquity,
			LookbackDays:       365,
		},
		Scoring: Scoring{
			InsiderSignificanceUSD: cfg.Screening.MinInsiderBuyValue,
			InsiderLookbackDays:    cfg.Screening.InsiderLookbackDays,
			LowDebtToEquity:        scoring.DefaultLowDebtToEquity,
			NearLowPct:             scoring.DefaultNearLowPct,
		},
		History: History{
			CooldownDays:  cfg.History.CooldownDays,
			RetentionDays: cfg.History.RetentionDays,
		},
		Report: Report{TopN: 5},
	}
}

// Load reads YAML file on top of base and returns Config with raw bytes.
// Keys absent from the file keep base values.
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string, base *Config) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read strategy file: %w", err)
	}

	cfg := *base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to decode strategy file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, data, err
	}

	return &cfg, data, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewRunSnapshot creates a snapshot for the run log
func NewRunSnapshot(cfg *Config, yamlData []byte, runID string) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &RunSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		StrategyID: cfg.Meta.StrategyID,
		RunID:      runID,
		CreatedAt:  time.Now(),
	}, nil
}

// ScreenerConfig maps the screening section onto the screener
func (c *Config) ScreenerConfig() selection.ScreenerConfig {
	return selection.ScreenerConfig{
		MinDropFromHigh:        c.Screening.MinDropFromHighPct,
		MinMarketCap:           c.Screening.MinMarketCapUSD,
		EnforceMaxDebtToEquity: c.Screening.EnforceMaxDebtToEquity,
		MaxDebtToEquity:        c.Screening.MaxDebtToEquity,
		LookbackDays:           c.Screening.LookbackDays,
	}
}

// Thresholds maps the scoring section onto the scoring engine
func (c *Config) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{
		InsiderSignificance: c.Scoring.InsiderSignificanceUSD,
		LowDebtToEquity:     c.Scoring.LowDebtToEquity,
		NearLowPct:          c.Scoring.NearLowPct,
	}
}
