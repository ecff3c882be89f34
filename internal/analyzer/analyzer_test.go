package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/config"
	"github.com/wonny/smartpick/pkg/logger"
)

// scriptedProvider answers by matching a keyword in the prompt
type scriptedProvider struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	prompts []string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	for key, err := range p.errs {
		if strings.Contains(prompt, key) {
			return "", err
		}
	}
	for key, answer := range p.answers {
		if strings.Contains(prompt, key) {
			return answer, nil
		}
	}
	return "", errors.New("no scripted answer")
}

func sampleFact() contracts.ScreeningFact {
	de := 0.3
	return contracts.ScreeningFact{
		Symbol:          "AAA",
		Name:            "Alpha Corp",
		Sector:          "TECHNOLOGY",
		CurrentPrice:    61.8,
		Low52W:          60,
		High52W:         120,
		DropFromHighPct: 48.5,
		MarketCap:       5e9,
		DebtToEquity:    &de,
	}
}

func TestAnalyzeWithoutProviderIsNeutral(t *testing.T) {
	a := NewWithProvider(nil, 0, logger.Nop())
	assert.False(t, a.Available())

	q, err := a.Analyze(context.Background(), sampleFact(), contracts.Research{})
	require.NoError(t, err)
	assert.True(t, q.Neutral)
	assert.Equal(t, contracts.NeutralQualitativeScore, q.Management)
	assert.Equal(t, contracts.NeutralQualitativeScore, q.Sustainability)
}

func TestAnalyzeParsesScores(t *testing.T) {
	p := &scriptedProvider{answers: map[string]string{
		"management quality":      "```json\n{\"score\": 8, \"analysis\": \"Disciplined buybacks.\"}\n```",
		"business sustainability": `Here you go: {"score": 6, "analysis": "Narrow moat."} hope it helps`,
		"outlook":                 "  Steady growth expected.  ",
	}}
	a := NewWithProvider(p, time.Second, logger.Nop())

	q, err := a.Analyze(context.Background(), sampleFact(), contracts.Research{})
	require.NoError(t, err)

	assert.Equal(t, 8.0, q.Management)
	assert.Equal(t, 6.0, q.Sustainability)
	assert.Equal(t, "Disciplined buybacks.", q.ManagementRationale)
	assert.Equal(t, "Narrow moat.", q.SustainabilityRationale)
	assert.Equal(t, "Steady growth expected.", q.Outlook)
	assert.False(t, q.Neutral)

	require.Len(t, p.prompts, 3)
	assert.Contains(t, p.prompts[0], "Alpha Corp (AAA)")
	assert.Contains(t, p.prompts[0], "Debt/Equity: 0.30")
}

func TestAnalyzeProviderFailureIsNeutralPerAspect(t *testing.T) {
	p := &scriptedProvider{
		answers: map[string]string{"business sustainability": `{"score": 9, "analysis": "Wide moat."}`},
		errs: map[string]error{
			"management quality": errors.New("overloaded"),
			"outlook":            errors.New("overloaded"),
		},
	}
	a := NewWithProvider(p, time.Second, logger.Nop())

	q, err := a.Analyze(context.Background(), sampleFact(), contracts.Research{})
	require.NoError(t, err)
	assert.Equal(t, contracts.NeutralQualitativeScore, q.Management)
	assert.Equal(t, "Analysis failed.", q.ManagementRationale)
	assert.Equal(t, 9.0, q.Sustainability)
	assert.Equal(t, "Outlook analysis not available.", q.Outlook)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{errs: map[string]error{"": context.Canceled}}
	_, err := NewWithProvider(p, time.Second, logger.Nop()).Analyze(ctx, sampleFact(), contracts.Research{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseScoreResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		score   float64
		wantErr bool
	}{
		{"plain", `{"score": 7, "analysis": "ok"}`, 7, false},
		{"fenced", "```json\n{\"score\": 4}\n```", 4, false},
		{"embedded", `Result: {"score": 3.5} end`, 3.5, false},
		{"above range", `{"score": 14}`, 10, false},
		{"missing score", `{"analysis": "x"}`, 5, false},
		{"empty", "   ", 0, true},
		{"no json", "I cannot help with that", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseScoreResponse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.score, resp.Score)
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LLMConfig
		available bool
		wantErr   bool
	}{
		{"none", config.LLMConfig{Provider: ProviderNone}, false, false},
		{"claude without key", config.LLMConfig{Provider: ProviderClaude}, false, false},
		{"gemini without key", config.LLMConfig{Provider: ProviderGemini}, false, false},
		{"claude with key", config.LLMConfig{Provider: ProviderClaude, AnthropicAPIKey: "sk-test"}, true, false},
		{"unknown", config.LLMConfig{Provider: "gpt"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(context.Background(), tt.cfg, logger.Nop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.available, a.Available())
		})
	}
}

func sampleResearch() contracts.Research {
	rev, ni, eps, est, surprise := 1.1e9, 1.4e8, 1.12, 1.05, 6.7
	return contracts.Research{
		Financials: []contracts.QuarterlyFinancial{
			{FiscalDateEnding: "2025-03-31", TotalRevenue: &rev, NetIncome: &ni, ReportedEPS: &eps},
		},
		Earnings: []contracts.QuarterlyEarning{
			{FiscalDateEnding: "2025-03-31", ReportedEPS: &eps, EstimatedEPS: &est, SurprisePct: &surprise},
		},
		News: []contracts.NewsItem{
			{Title: "Alpha Corp beats estimates - Reuters", Published: time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)},
			{Title: "Undated headline"},
		},
	}
}

func TestCompanyContextIncludesResearch(t *testing.T) {
	fact := sampleFact()
	fact.Industry = "SEMICONDUCTORS"
	fact.Description = "Makes chips."

	background := companyContext(fact, sampleResearch())

	assert.Contains(t, background, "Industry: SEMICONDUCTORS")
	assert.Contains(t, background, "Summary: Makes chips.")
	assert.Contains(t, background, "- 2025-03-31: revenue $1100000000, net income $140000000, EPS 1.12")
	assert.Contains(t, background, "reported 1.12, estimated 1.05, surprise 6.7%")
	assert.Contains(t, background, "Recent News:\n- Alpha Corp beats estimates - Reuters (2025-06-02)\n- Undated headline\n")
}

func TestCompanyContextWithoutResearch(t *testing.T) {
	background := companyContext(sampleFact(), contracts.Research{})
	assert.NotContains(t, background, "Recent News")
	assert.NotContains(t, background, "Quarterly results")
}

func TestAnalyzePassesResearchToPrompts(t *testing.T) {
	p := &scriptedProvider{answers: map[string]string{
		"management quality":      `{"score": 7}`,
		"business sustainability": `{"score": 7}`,
		"outlook":                 "Fine.",
	}}
	_, err := NewWithProvider(p, time.Second, logger.Nop()).Analyze(context.Background(), sampleFact(), sampleResearch())
	require.NoError(t, err)

	require.Len(t, p.prompts, 3)
	for _, prompt := range p.prompts {
		assert.Contains(t, prompt, "Alpha Corp beats estimates")
	}
}

func sampleCandidate() contracts.Candidate {
	return contracts.Candidate{
		Symbol:    "AAA",
		Screening: sampleFact(),
		Activity: contracts.ActivityFact{
			Superinvestor: contracts.SuperinvestorActivity{Buys: 2, Buyers: []string{"Berkshire Hathaway"}},
			Insider:       contracts.InsiderActivity{Buys: 1, NetValue: 150_000},
		},
		Research: sampleResearch(),
	}
}

func TestThesis(t *testing.T) {
	p := &scriptedProvider{answers: map[string]string{
		"investment thesis": "```json\n[\"Trades 3% above its 52-week low\", \" \", \"Insiders bought $150,000 net\", \"Berkshire added\", \"Low leverage\", \"EPS beat by 6.7%\", \"extra\"]\n```",
	}}
	a := NewWithProvider(p, time.Second, logger.Nop())

	points, err := a.Thesis(context.Background(), sampleCandidate())
	require.NoError(t, err)
	require.Len(t, points, ThesisPoints)
	assert.Equal(t, "Trades 3% above its 52-week low", points[0])
	assert.Equal(t, "Insiders bought $150,000 net", points[1])

	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], `"net_value": 150000`)
	assert.Contains(t, p.prompts[0], "Berkshire Hathaway")
	assert.Contains(t, p.prompts[0], "Alpha Corp beats estimates")
}

func TestThesisWithoutProvider(t *testing.T) {
	points, err := NewWithProvider(nil, 0, logger.Nop()).Thesis(context.Background(), sampleCandidate())
	require.NoError(t, err)
	assert.Nil(t, points)
}

func TestThesisProviderFailure(t *testing.T) {
	p := &scriptedProvider{errs: map[string]error{"investment thesis": errors.New("overloaded")}}
	_, err := NewWithProvider(p, time.Second, logger.Nop()).Thesis(context.Background(), sampleCandidate())
	assert.Error(t, err)
}

func TestParseThesisResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr bool
	}{
		{"plain", `["a", "b"]`, []string{"a", "b"}, false},
		{"embedded", `Here: ["a"] done`, []string{"a"}, false},
		{"trimmed", `["  a  ", ""]`, []string{"a"}, false},
		{"all blank", `["", " "]`, nil, true},
		{"object", `{"reasons": 1}`, nil, true},
		{"empty", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseThesisResponse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
