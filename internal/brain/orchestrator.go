package brain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/smartpick/internal/collector"
	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/scoring"
	"github.com/wonny/smartpick/internal/selection"
	"github.com/wonny/smartpick/pkg/logger"
)

// Outcome is the terminal state of a run
type Outcome string

const (
	OutcomeRecommended         Outcome = "recommended"
	OutcomeNoQualifyingSymbols Outcome = "no_qualifying_symbols"
	OutcomeNoCandidates        Outcome = "no_candidates_after_analysis"
	OutcomeAllExcluded         Outcome = "all_candidates_excluded"
)

// Message returns the user-facing terminal message
func (o Outcome) Message() string {
	switch o {
	case OutcomeRecommended:
		return "Recommendation selected."
	case OutcomeNoQualifyingSymbols:
		return "No symbols passed screening. Nothing to analyze."
	case OutcomeNoCandidates:
		return "Symbols passed screening but none survived activity and qualitative analysis."
	case OutcomeAllExcluded:
		return "Every analyzed candidate was recommended within the cooldown period."
	default:
		return string(o)
	}
}

// Empty reports whether the run ended without a recommendation
func (o Outcome) Empty() bool {
	return o != OutcomeRecommended
}

// Orchestrator runs universe → screen → analyze → score → exclude → rank → record → report
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	universe contracts.UniverseSource
	screener contracts.Screener
	activity contracts.ActivitySource
	analyzer contracts.QualitativeAnalyzer
	engine   *scoring.Engine
	ranker   *selection.Ranker
	history  contracts.RecommendationHistory
	report   contracts.ReportWriter   // optional
	research contracts.ResearchSource // optional
	thesis   contracts.ThesisWriter   // optional

	logger *logger.Logger
	now    func() time.Time
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	RunID         string
	DryRun        bool // rank and report, but do not record history
	Workers       int  // concurrent symbol analysis; <=1 is sequential
	CooldownDays  int
	RetentionDays int
	TopN          int // candidates handed to the report
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	RunID          string
	Outcome        Outcome
	StartedAt      time.Time
	Duration       time.Duration
	Pruned         int
	UniverseSize   int
	Screened       int
	Filtered       map[string]int // screener reject reason -> count
	Analyzed       int
	Dropped        int // activity or analysis failures
	Excluded       []contracts.RecommendationInfo // every symbol in cooldown at run start
	Skipped        int                            // scored candidates removed by the cooldown
	Ranked         []contracts.Candidate
	Recommendation *contracts.Candidate
	Recorded       bool
	ReportPath     string
	ReportErr      error
}

// Option configures optional collaborators
type Option func(*Orchestrator)

// WithResearch gathers financials, earnings and news for each screened symbol
func WithResearch(src contracts.ResearchSource) Option {
	return func(o *Orchestrator) { o.research = src }
}

// WithThesis generates the key investment reasons for the recommendation
func WithThesis(w contracts.ThesisWriter) Option {
	return func(o *Orchestrator) { o.thesis = w }
}

// NewOrchestrator creates a new orchestrator. report may be nil.
func NewOrchestrator(
	universe contracts.UniverseSource,
	screener contracts.Screener,
	activity contracts.ActivitySource,
	analyzer contracts.QualitativeAnalyzer,
	engine *scoring.Engine,
	ranker *selection.Ranker,
	history contracts.RecommendationHistory,
	report contracts.ReportWriter,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		universe: universe,
		screener: screener,
		activity: activity,
		analyzer: analyzer,
		engine:   engine,
		ranker:   ranker,
		history:  history,
		report:   report,
		logger:   log.WithComponent("pipeline"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one recommendation run. Empty outcomes are not errors; the
// returned error is reserved for cancellation, universe failure and history writes.
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	result := &RunResult{
		RunID:     config.RunID,
		StartedAt: o.now(),
		Filtered:  make(map[string]int),
	}
	defer func() { result.Duration = o.now().Sub(result.StartedAt) }()

	o.logger.WithFields(map[string]interface{}{
		"run_id":   config.RunID,
		"dry_run":  config.DryRun,
		"workers":  config.Workers,
		"cooldown": config.CooldownDays,
	}).Info("Starting pipeline run")

	// 1. history: the excluded set is computed once and reused after scoring
	if err := o.history.Load(); err != nil {
		return result, fmt.Errorf("load history: %w", err)
	}
	excluded := o.history.ExcludedSymbols(config.CooldownDays)
	result.Excluded = o.cooldownInfo(excluded)
	pruned, err := o.history.Prune(config.RetentionDays)
	if err != nil {
		return result, fmt.Errorf("prune history: %w", err)
	}
	result.Pruned = pruned

	// 2. universe and screening
	symbols, err := o.universe.Symbols(ctx)
	if err != nil {
		return result, fmt.Errorf("universe: %w", err)
	}
	symbols = collector.Dedupe(symbols)
	result.UniverseSize = len(symbols)

	facts, err := o.screen(ctx, symbols, result.Filtered)
	if err != nil {
		return result, err
	}
	result.Screened = len(facts)
	if len(facts) == 0 {
		return o.finish(result, OutcomeNoQualifyingSymbols), nil
	}

	// 3. activity, qualitative analysis and scoring
	scored, err := o.analyze(ctx, facts, config.Workers)
	if err != nil {
		return result, err
	}
	result.Analyzed = len(scored)
	result.Dropped = len(facts) - len(scored)
	if len(scored) == 0 {
		return o.finish(result, OutcomeNoCandidates), nil
	}

	// 4. cooldown exclusion
	survivors := make([]contracts.Candidate, 0, len(scored))
	for _, c := range scored {
		if _, skip := excluded[c.Symbol]; skip {
			result.Skipped++
			continue
		}
		survivors = append(survivors, c)
	}
	if result.Skipped > 0 {
		o.logger.WithField("skipped", result.Skipped).Info("Filtered out recently recommended candidates")
	}
	if len(survivors) == 0 {
		return o.finish(result, OutcomeAllExcluded), nil
	}

	// 5. rank, then write the thesis for the winner
	result.Ranked = o.ranker.Rank(survivors)
	if err := o.writeThesis(ctx, &result.Ranked[0]); err != nil {
		return result, err
	}
	top := result.Ranked[0]
	result.Recommendation = &top

	// 6. record, then report
	if config.DryRun {
		o.logger.Info("Skipping history record (dry run mode)")
	} else {
		// history keeps the smart money score, not the total
		if err := o.history.Record(top.Symbol, float64(top.Score.SmartMoney), top.Score.PriceDeltaPct); err != nil {
			return result, fmt.Errorf("record recommendation %s: %w", top.Symbol, err)
		}
		result.Recorded = true
	}

	if o.report != nil {
		topN := config.TopN
		if topN <= 0 {
			topN = 5
		}
		path, err := o.report.Write(ctx, contracts.ReportInput{
			RunID:       config.RunID,
			GeneratedAt: o.now(),
			Top:         top,
			Ranked:      selection.Top(result.Ranked, topN),
		})
		if err != nil {
			result.ReportErr = err
			o.logger.WithError(err).WithField("symbol", top.Symbol).Warn("Report generation failed")
		}
		result.ReportPath = path
	}

	return o.finish(result, OutcomeRecommended), nil
}

// writeThesis fills c.Thesis. A failed thesis leaves it empty; only cancellation is returned.
func (o *Orchestrator) writeThesis(ctx context.Context, c *contracts.Candidate) error {
	if o.thesis == nil {
		return nil
	}
	points, err := o.thesis.Thesis(ctx, *c)
	if err != nil {
		if isCancel(ctx, err) {
			return ctx.Err()
		}
		o.logger.WithError(err).WithField("symbol", c.Symbol).Warn("Thesis generation failed, using derived reasons")
		return nil
	}
	c.Thesis = points
	return nil
}

func (o *Orchestrator) finish(result *RunResult, outcome Outcome) *RunResult {
	result.Outcome = outcome

	fields := map[string]interface{}{
		"run_id":   result.RunID,
		"outcome":  string(outcome),
		"universe": result.UniverseSize,
		"screened": result.Screened,
		"analyzed": result.Analyzed,
		"excluded": len(result.Excluded),
		"skipped":  result.Skipped,
	}
	if result.Recommendation != nil {
		fields["symbol"] = result.Recommendation.Symbol
		fields["total"] = result.Recommendation.Score.Total
	}
	o.logger.WithFields(fields).Info(outcome.Message())
	return result
}

// cooldownInfo resolves the excluded set into display rows, most recent first
func (o *Orchestrator) cooldownInfo(excluded map[string]struct{}) []contracts.RecommendationInfo {
	infos := make([]contracts.RecommendationInfo, 0, len(excluded))
	for symbol := range excluded {
		info, ok := o.history.Info(symbol)
		if !ok {
			info = contracts.RecommendationInfo{Symbol: symbol}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].DaysAgo != infos[j].DaysAgo {
			return infos[i].DaysAgo < infos[j].DaysAgo
		}
		return infos[i].Symbol < infos[j].Symbol
	})
	return infos
}

// screen runs the screener over symbols and dedupes passing facts by symbol
func (o *Orchestrator) screen(ctx context.Context, symbols []string, filtered map[string]int) ([]contracts.ScreeningFact, error) {
	facts := make([]contracts.ScreeningFact, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fact, err := o.screener.Screen(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			filtered[selection.RejectReason(err)]++
			continue
		}
		if _, dup := seen[fact.Symbol]; dup {
			continue
		}
		seen[fact.Symbol] = struct{}{}
		facts = append(facts, fact)

		if (i+1)%50 == 0 {
			o.logger.WithFields(map[string]interface{}{
				"progress": i + 1,
				"total":    len(symbols),
				"passed":   len(facts),
			}).Info("Screening progress")
		}
	}

	o.logger.WithFields(map[string]interface{}{
		"input":    len(symbols),
		"passed":   len(facts),
		"filtered": filtered,
	}).Info("Screening completed")

	return facts, nil
}

// analyze scores each fact. Failed symbols are dropped; output keeps input order.
func (o *Orchestrator) analyze(ctx context.Context, facts []contracts.ScreeningFact, workers int) ([]contracts.Candidate, error) {
	slots := make([]*contracts.Candidate, len(facts))

	if workers <= 1 {
		for i, fact := range facts {
			c, err := o.analyzeOne(ctx, fact)
			if err != nil {
				return nil, err
			}
			slots[i] = c
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, fact := range facts {
			g.Go(func() error {
				c, err := o.analyzeOne(gctx, fact)
				if err != nil {
					return err
				}
				slots[i] = c
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	candidates := make([]contracts.Candidate, 0, len(facts))
	for _, c := range slots {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates, nil
}

// analyzeOne returns (nil, nil) when the symbol is dropped, and an error only on cancellation
func (o *Orchestrator) analyzeOne(ctx context.Context, fact contracts.ScreeningFact) (*contracts.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := o.logger.WithField("symbol", fact.Symbol)

	activity, err := o.activity.Activity(ctx, fact.Symbol)
	if err != nil {
		if isCancel(ctx, err) {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("Activity fetch failed, dropping symbol")
		return nil, nil
	}

	var research contracts.Research
	if o.research != nil {
		research, err = o.research.Research(ctx, fact.Symbol)
		if err != nil {
			if isCancel(ctx, err) {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("Research unavailable, analyzing without it")
			research = contracts.Research{}
		}
	}

	qualitative, err := o.analyzer.Analyze(ctx, fact, research)
	if err != nil {
		if isCancel(ctx, err) {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("Qualitative analysis failed, dropping symbol")
		return nil, nil
	}

	score := o.engine.Score(fact, activity, qualitative)
	log.WithFields(map[string]interface{}{
		"smart_money": score.SmartMoney,
		"qualitative": score.Qualitative,
		"bonus":       score.Bonus,
		"total":       score.Total,
	}).Debug("Symbol scored")

	return &contracts.Candidate{
		Symbol:      fact.Symbol,
		Screening:   fact,
		Activity:    activity,
		Qualitative: qualitative,
		Score:       score,
		Research:    research,
	}, nil
}

func isCancel(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// ExclusionSummary lists the first limit excluded symbols, then "... and N more"
func ExclusionSummary(excluded []contracts.RecommendationInfo, limit int) []string {
	lines := make([]string, 0, limit+1)
	for i, info := range excluded {
		if i == limit {
			lines = append(lines, fmt.Sprintf("... and %d more", len(excluded)-limit))
			break
		}
		if info.LastRecommended.IsZero() {
			lines = append(lines, info.Symbol)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: last recommended %d days ago (smart money %.0f/10)", info.Symbol, info.DaysAgo, info.Score))
	}
	return lines
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s", time.Now().Format("20060102_150405"))
}
