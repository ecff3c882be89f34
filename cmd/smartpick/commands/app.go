package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/wonny/smartpick/internal/analyzer"
	"github.com/wonny/smartpick/internal/brain"
	"github.com/wonny/smartpick/internal/collector"
	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/external/alphavantage"
	"github.com/wonny/smartpick/internal/external/dataroma"
	"github.com/wonny/smartpick/internal/external/googlenews"
	"github.com/wonny/smartpick/internal/external/openinsider"
	"github.com/wonny/smartpick/internal/external/wikipedia"
	"github.com/wonny/smartpick/internal/history"
	"github.com/wonny/smartpick/internal/report"
	"github.com/wonny/smartpick/internal/scoring"
	"github.com/wonny/smartpick/internal/selection"
	"github.com/wonny/smartpick/internal/strategyconfig"
	"github.com/wonny/smartpick/pkg/config"
	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
	"github.com/wonny/smartpick/pkg/ratelimit"
	"github.com/wonny/smartpick/pkg/redis"
)

// app holds what every command needs
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	strategy     *strategyconfig.Config
	strategyYAML []byte
	history      *history.Store
	redis        *redis.Client
}

// loadApp reads env config, the optional strategy file and the history store
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if jsonLogs {
		cfg.LogFormat = "json"
	}

	// logs go to stderr so the run summary on stdout stays readable
	log := logger.NewWithWriter(cfg, os.Stderr)

	strategy := strategyconfig.FromEnv(cfg)
	var yamlData []byte
	if strategyPath != "" {
		strategy, yamlData, err = strategyconfig.Load(strategyPath, strategy)
		if err != nil {
			return nil, fmt.Errorf("load strategy: %w", err)
		}
	} else if err := strategyconfig.Validate(strategy); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	store := history.NewStore(cfg.History.Path, log)

	return &app{
		cfg:          cfg,
		log:          log,
		strategy:     strategy,
		strategyYAML: yamlData,
		history:      store,
	}, nil
}

// close releases the Redis connection if one was opened
func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// cache connects Redis when enabled; a failed connection degrades to no cache
func (a *app) cache(ctx context.Context) *redis.Cache {
	if a.redis == nil {
		client, err := redis.New(ctx, a.cfg.Redis)
		if err != nil {
			a.log.WithError(err).Warn("Redis unavailable, continuing without cache")
			client, _ = redis.New(ctx, config.RedisConfig{})
		}
		a.redis = client
	}
	return redis.NewCache(a.redis, "smartpick")
}

// buildOrchestrator wires every collaborator. universe nil means the index universe.
func (a *app) buildOrchestrator(ctx context.Context, universe contracts.UniverseSource) (*brain.Orchestrator, error) {
	log := a.log
	cache := a.cache(ctx)

	// Alpha Vantage: every attempt, retries included, passes the governor
	governor := ratelimit.New(a.cfg.RateLimit.MaxCalls, a.cfg.RateLimit.Window,
		ratelimit.WithLogger(log.WithComponent("ratelimit")))
	apiHTTP := httputil.New(log).WithGovernor(governor)
	market := alphavantage.NewClient(apiHTTP, a.cfg.AlphaVantage.APIKey, a.cfg.AlphaVantage.BaseURL, log)

	// scraped sites: paced, browser user agent
	scrapeHTTP := httputil.New(log).
		WithPacing(a.cfg.Scrape.RatePerSecond).
		WithUserAgent(a.cfg.Scrape.UserAgent)

	if universe == nil {
		universe = collector.NewIndexUniverse(wikipedia.NewClient(scrapeHTTP, "", log), wikipedia.AllIndexes, cache, log)
	}

	activity := collector.NewActivityCollector(
		dataroma.NewClient(scrapeHTTP, "", log),
		openinsider.NewClient(scrapeHTTP, "", a.strategy.Scoring.InsiderLookbackDays, log),
		cache,
		a.cfg.Redis.ActivityTTL,
		log,
	)

	// quarterly results share the Alpha Vantage governor; headlines are scraped
	research := collector.NewResearchCollector(market, googlenews.NewClient(scrapeHTTP, "", log), googlenews.DefaultLimit, cache, log)

	qualitative, err := analyzer.New(ctx, a.cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("init analyzer: %w", err)
	}
	if !qualitative.Available() {
		log.Warn("No LLM credentials configured, qualitative scores will be neutral")
	}

	return brain.NewOrchestrator(
		universe,
		selection.NewScreener(a.strategy.ScreenerConfig(), market, log),
		activity,
		qualitative,
		scoring.NewEngine(a.strategy.Thresholds()),
		selection.NewRanker(log),
		a.history,
		report.NewPDFWriter(a.cfg.ReportDir, log),
		log,
		brain.WithResearch(research),
		brain.WithThesis(qualitative),
	), nil
}

// runConfig builds the per-run settings from strategy and env
func (a *app) runConfig(runID string, dryRun bool, workers int) brain.RunConfig {
	if workers <= 0 {
		workers = a.cfg.AnalysisWorkers
	}
	return brain.RunConfig{
		RunID:         runID,
		DryRun:        dryRun,
		Workers:       workers,
		CooldownDays:  a.strategy.History.CooldownDays,
		RetentionDays: a.strategy.History.RetentionDays,
		TopN:          a.strategy.Report.TopN,
	}
}
