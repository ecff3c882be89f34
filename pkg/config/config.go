package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	Env string // development, staging, production

	// Rate ceiling for the capacity-constrained data source
	RateLimit RateLimitConfig

	// Recommendation history
	History HistoryConfig

	// Screening & scoring thresholds
	Screening ScreeningConfig

	// External APIs
	AlphaVantage AlphaVantageConfig
	LLM          LLMConfig
	Scrape       ScrapeConfig

	// Redis (activity cache)
	Redis RedisConfig

	// Pipeline
	AnalysisWorkers int
	ReportDir       string
	Schedule        string
	APIAddr         string // status API for the scheduler daemon; empty disables

	// Logging
	LogLevel  string
	LogFormat string
}

// RateLimitConfig bounds calls-per-window to Alpha Vantage
type RateLimitConfig struct {
	MaxCalls int
	Window   time.Duration
}

// HistoryConfig holds recommendation history settings
type HistoryConfig struct {
	Path          string
	CooldownDays  int
	RetentionDays int
}

// ScreeningConfig holds hard-cut and scoring thresholds
type ScreeningConfig struct {
	MinMarketCap        float64
	MaxDebtToEquity     float64
	MinDropFromHighPct  float64 // fraction, 0.25 = 25%
	MinInsiderBuyValue  float64 // USD
	InsiderLookbackDays int
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey  string
	BaseURL string
}

// LLMConfig holds qualitative analyzer configuration
type LLMConfig struct {
	Provider        string // claude, gemini, none
	AnthropicAPIKey string
	GeminiAPIKey    string
	Model           string
	Timeout         time.Duration
}

// ScrapeConfig controls pacing for HTML sources (dataroma, openinsider, wikipedia)
type ScrapeConfig struct {
	RatePerSecond float64
	UserAgent     string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	Enabled     bool
	ActivityTTL time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		RateLimit: RateLimitConfig{
			MaxCalls: getEnvAsInt("RATE_LIMIT_MAX_CALLS", 75),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", "60s"),
		},

		History: HistoryConfig{
			Path:          getEnv("HISTORY_PATH", "recommendation_history.json"),
			CooldownDays:  getEnvAsInt("COOLDOWN_DAYS", 60),
			RetentionDays: getEnvAsInt("RETENTION_DAYS", 365),
		},

		Screening: ScreeningConfig{
			MinMarketCap:        getEnvAsFloat("MIN_MARKET_CAP", 1_000_000_000),
			MaxDebtToEquity:     getEnvAsFloat("MAX_DEBT_TO_EQUITY", 2.0),
			MinDropFromHighPct:  getEnvAsFloat("MIN_DROP_FROM_HIGH_PCT", 0.25),
			MinInsiderBuyValue:  getEnvAsFloat("MIN_INSIDER_BUY_VALUE", 100_000),
			InsiderLookbackDays: getEnvAsInt("INSIDER_LOOKBACK_DAYS", 180),
		},

		AlphaVantage: AlphaVantageConfig{
			APIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
			BaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", ""), // empty: client default endpoint
		},

		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "claude")),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			Model:           getEnv("LLM_MODEL", ""),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", "60s"),
		},

		Scrape: ScrapeConfig{
			RatePerSecond: getEnvAsFloat("SCRAPE_RATE_PER_SEC", 1),
			UserAgent: getEnv("SCRAPE_USER_AGENT",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"),
		},

		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			Enabled:     getEnvAsBool("REDIS_ENABLED", false),
			ActivityTTL: getEnvAsDuration("ACTIVITY_CACHE_TTL", "12h"),
		},

		AnalysisWorkers: getEnvAsInt("ANALYSIS_WORKERS", 1),
		ReportDir:       getEnv("REPORT_DIR", "reports"),
		Schedule:        getEnv("SCHEDULE", "0 30 7 * * 1-5"), // 평일 07:30
		APIAddr:         getEnv("API_ADDR", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks startup invariants. A violation is fatal: a retention shorter
// than the cooldown would let Prune drop entries that are still cooling down.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" && c.Env != "test" {
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.RateLimit.MaxCalls <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_CALLS must be > 0, got %d", c.RateLimit.MaxCalls)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0, got %s", c.RateLimit.Window)
	}

	if c.History.CooldownDays <= 0 {
		return fmt.Errorf("COOLDOWN_DAYS must be > 0, got %d", c.History.CooldownDays)
	}
	if c.History.RetentionDays < c.History.CooldownDays {
		return fmt.Errorf("RETENTION_DAYS (%d) must be >= COOLDOWN_DAYS (%d)",
			c.History.RetentionDays, c.History.CooldownDays)
	}
	if c.History.Path == "" {
		return fmt.Errorf("HISTORY_PATH is required")
	}

	if c.AnalysisWorkers < 1 {
		return fmt.Errorf("ANALYSIS_WORKERS must be >= 1, got %d", c.AnalysisWorkers)
	}

	switch c.LLM.Provider {
	case "claude", "gemini", "none":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of: claude, gemini, none")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(valueStr, "_", ""), 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
