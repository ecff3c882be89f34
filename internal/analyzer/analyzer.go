// Package analyzer produces qualitative management and sustainability scores
// with an LLM. Without a usable provider it returns neutral scores.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/internal/scoring"
	"github.com/wonny/smartpick/pkg/config"
	"github.com/wonny/smartpick/pkg/logger"
)

const systemJSON = "You are a financial analyst assistant. Always return valid JSON."
const systemText = "You are a financial analyst assistant."

// Analyzer scores management quality and business sustainability
// ⭐ SSOT: 정성 평가(LLM)는 여기서만
type Analyzer struct {
	provider Provider // nil means neutral-only
	timeout  time.Duration
	logger   *logger.Logger
}

// New builds an analyzer from config. A missing credential is not an error:
// the analyzer falls back to neutral scores and says so in the log.
func New(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (*Analyzer, error) {
	log = log.WithComponent("analyzer")

	var provider Provider
	switch cfg.Provider {
	case ProviderClaude:
		if cfg.AnthropicAPIKey == "" {
			log.Warn("ANTHROPIC_API_KEY not set, qualitative scores will be neutral")
			break
		}
		provider = NewClaudeProvider(cfg.AnthropicAPIKey, cfg.Model)
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set, qualitative scores will be neutral")
			break
		}
		p, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		provider = p
	case ProviderNone, "":
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return NewWithProvider(provider, cfg.Timeout, log), nil
}

// NewWithProvider creates an analyzer around provider; nil gives neutral scores
func NewWithProvider(provider Provider, timeout time.Duration, log *logger.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Analyzer{
		provider: provider,
		timeout:  timeout,
		logger:   log,
	}
}

// Available reports whether a provider is configured
func (a *Analyzer) Available() bool {
	return a.provider != nil
}

// Analyze returns the qualitative score for fact. Provider failures degrade
// to the neutral score per sub-score; only context cancellation is an error.
func (a *Analyzer) Analyze(ctx context.Context, fact contracts.ScreeningFact, research contracts.Research) (contracts.QualitativeScore, error) {
	if a.provider == nil {
		return contracts.NeutralQualitative("AI analysis not available: no provider configured"), nil
	}

	background := companyContext(fact, research)

	mgmt, mgmtNote := a.score(ctx, fact.Symbol, "management", managementPrompt(fact.Symbol, background))
	sust, sustNote := a.score(ctx, fact.Symbol, "sustainability", sustainabilityPrompt(fact.Symbol, background))
	if err := ctx.Err(); err != nil {
		return contracts.QualitativeScore{}, err
	}
	outlook := a.outlook(ctx, fact.Symbol, background)

	return contracts.QualitativeScore{
		Management:              mgmt,
		Sustainability:          sust,
		ManagementRationale:     mgmtNote,
		SustainabilityRationale: sustNote,
		Outlook:                 outlook,
	}, nil
}

// ThesisPoints is the number of key reasons requested for a thesis
const ThesisPoints = 5

// Thesis asks the provider for the key investment reasons of c. Without a
// provider it returns (nil, nil) and callers fall back to derived reasons.
func (a *Analyzer) Thesis(ctx context.Context, c contracts.Candidate) ([]string, error) {
	if a.provider == nil {
		return nil, nil
	}

	text, err := a.complete(ctx, systemJSON, thesisPrompt(c, companyContext(c.Screening, c.Research)))
	if err != nil {
		return nil, fmt.Errorf("thesis %s: %w", c.Symbol, err)
	}

	points, err := parseThesisResponse(text)
	if err != nil {
		return nil, fmt.Errorf("thesis %s: %w", c.Symbol, err)
	}
	return points, nil
}

// score runs one JSON-scored prompt; any failure yields the neutral score
func (a *Analyzer) score(ctx context.Context, symbol, aspect, prompt string) (float64, string) {
	text, err := a.complete(ctx, systemJSON, prompt)
	if err != nil {
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"symbol": symbol,
			"aspect": aspect,
		}).Warn("Qualitative analysis failed, using neutral score")
		return contracts.NeutralQualitativeScore, "Analysis failed."
	}

	resp, err := parseScoreResponse(text)
	if err != nil {
		a.logger.WithError(err).WithFields(map[string]interface{}{
			"symbol": symbol,
			"aspect": aspect,
		}).Warn("Unparseable analysis response, using neutral score")
		return contracts.NeutralQualitativeScore, "Analysis failed to parse JSON."
	}
	return resp.Score, resp.Analysis
}

func (a *Analyzer) outlook(ctx context.Context, symbol, background string) string {
	text, err := a.complete(ctx, systemText, outlookPrompt(symbol, background))
	if err != nil {
		a.logger.WithError(err).WithField("symbol", symbol).Warn("Outlook analysis failed")
		return "Outlook analysis not available."
	}
	return strings.TrimSpace(text)
}

func (a *Analyzer) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.provider.Complete(ctx, system, prompt)
}

// scoreResponse is the JSON contract of the scoring prompts
type scoreResponse struct {
	Score    float64 `json:"score"`
	Analysis string  `json:"analysis"`
}

var errEmptyResponse = errors.New("empty response")

// parseScoreResponse strips code fences, falls back to the outermost {...}
// and clamps the score to 1..10.
func parseScoreResponse(text string) (scoreResponse, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return scoreResponse{}, errEmptyResponse
	}

	var resp scoreResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return scoreResponse{}, fmt.Errorf("no json object in response: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
			return scoreResponse{}, fmt.Errorf("invalid json in response: %w", err)
		}
	}

	if resp.Score <= 0 {
		resp.Score = contracts.NeutralQualitativeScore
	}
	resp.Score = scoring.Clamp(resp.Score, 1, 10)
	return resp, nil
}

// parseThesisResponse reads a JSON list of strings, tolerating fences and
// surrounding prose. Blank points are dropped and at most ThesisPoints kept.
func parseThesisResponse(text string) ([]string, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errEmptyResponse
	}

	var raw []string
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no json list in response: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("invalid json list in response: %w", err)
		}
	}

	points := make([]string, 0, ThesisPoints)
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" && len(points) < ThesisPoints {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return nil, errEmptyResponse
	}
	return points, nil
}

var (
	_ contracts.QualitativeAnalyzer = (*Analyzer)(nil)
	_ contracts.ThesisWriter        = (*Analyzer)(nil)
)
