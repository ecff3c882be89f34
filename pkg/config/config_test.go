package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	// Check defaults
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 75, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 60, cfg.History.CooldownDays)
	assert.Equal(t, 365, cfg.History.RetentionDays)
	assert.Equal(t, 100_000.0, cfg.Screening.MinInsiderBuyValue)
	assert.Equal(t, 1_000_000_000.0, cfg.Screening.MinMarketCap)
	assert.Equal(t, 0.25, cfg.Screening.MinDropFromHighPct)
	assert.Equal(t, 1, cfg.AnalysisWorkers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("RATE_LIMIT_MAX_CALLS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("COOLDOWN_DAYS", "30")
	t.Setenv("RETENTION_DAYS", "90")
	t.Setenv("MIN_MARKET_CAP", "2_000_000_000")
	t.Setenv("LLM_PROVIDER", "GEMINI")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 5, cfg.RateLimit.MaxCalls)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 30, cfg.History.CooldownDays)
	assert.Equal(t, 90, cfg.History.RetentionDays)
	assert.Equal(t, 2_000_000_000.0, cfg.Screening.MinMarketCap)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestValidateRetentionShorterThanCooldown(t *testing.T) {
	t.Setenv("COOLDOWN_DAYS", "60")
	t.Setenv("RETENTION_DAYS", "30")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RETENTION_DAYS")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Env:             "test",
			RateLimit:       RateLimitConfig{MaxCalls: 75, Window: time.Minute},
			History:         HistoryConfig{Path: "h.json", CooldownDays: 60, RetentionDays: 365},
			AnalysisWorkers: 1,
			LLM:             LLMConfig{Provider: "none"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"retention equals cooldown", func(c *Config) { c.History.RetentionDays = 60 }, false},
		{"invalid env", func(c *Config) { c.Env = "invalid" }, true},
		{"zero max calls", func(c *Config) { c.RateLimit.MaxCalls = 0 }, true},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, true},
		{"zero cooldown", func(c *Config) { c.History.CooldownDays = 0 }, true},
		{"retention below cooldown", func(c *Config) { c.History.RetentionDays = 59 }, true},
		{"empty history path", func(c *Config) { c.History.Path = "" }, true},
		{"zero workers", func(c *Config) { c.AnalysisWorkers = 0 }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "openai" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")
	assert.Equal(t, 2*time.Hour, getEnvAsDuration("TEST_DURATION", "1h"))

	t.Setenv("TEST_DURATION", "garbage")
	assert.Equal(t, time.Hour, getEnvAsDuration("TEST_DURATION", "1h"))
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")
	assert.Equal(t, 100, getEnvAsInt("TEST_INT", 50))

	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 50, getEnvAsInt("TEST_INT", 50))
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "1_500.5")
	assert.Equal(t, 1500.5, getEnvAsFloat("TEST_FLOAT", 1))
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
}
