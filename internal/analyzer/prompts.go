package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wonny/smartpick/internal/contracts"
)

// companyContext is the free-text background handed to every prompt
func companyContext(f contracts.ScreeningFact, r contracts.Research) string {
	var b strings.Builder
	if f.Name != "" {
		fmt.Fprintf(&b, "Company: %s (%s)\n", f.Name, f.Symbol)
	} else {
		fmt.Fprintf(&b, "Ticker: %s\n", f.Symbol)
	}
	if f.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", f.Sector)
	}
	if f.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", f.Industry)
	}
	fmt.Fprintf(&b, "Price: $%.2f (52w low $%.2f, 52w high $%.2f, %.1f%% below high)\n",
		f.CurrentPrice, f.Low52W, f.High52W, f.DropFromHighPct)
	if f.MarketCap > 0 {
		fmt.Fprintf(&b, "Market cap: $%.0f\n", f.MarketCap)
	}
	if f.FreeCashFlow != nil {
		fmt.Fprintf(&b, "Free cash flow: $%.0f\n", *f.FreeCashFlow)
	}
	if f.DebtToEquity != nil {
		fmt.Fprintf(&b, "Debt/Equity: %.2f\n", *f.DebtToEquity)
	}
	if v := f.Valuation.PERatio; v != nil {
		fmt.Fprintf(&b, "P/E: %.1f\n", *v)
	}
	if v := f.Valuation.ForwardPE; v != nil {
		fmt.Fprintf(&b, "Forward P/E: %.1f\n", *v)
	}
	if v := f.Valuation.AnalystTarget; v != nil {
		fmt.Fprintf(&b, "Analyst target: $%.2f\n", *v)
	}
	if f.Description != "" {
		fmt.Fprintf(&b, "Summary: %s\n", f.Description)
	}

	if len(r.Financials) > 0 {
		b.WriteString("\nQuarterly results (most recent first):\n")
		for _, q := range r.Financials {
			fmt.Fprintf(&b, "- %s: revenue %s, net income %s, EPS %s\n",
				q.FiscalDateEnding, money(q.TotalRevenue), money(q.NetIncome), number(q.ReportedEPS, "%.2f"))
		}
	}
	if len(r.Earnings) > 0 {
		b.WriteString("\nEarnings vs estimates:\n")
		for _, e := range r.Earnings {
			fmt.Fprintf(&b, "- %s: reported %s, estimated %s, surprise %s%%\n",
				e.FiscalDateEnding, number(e.ReportedEPS, "%.2f"), number(e.EstimatedEPS, "%.2f"), number(e.SurprisePct, "%.1f"))
		}
	}
	if len(r.News) > 0 {
		b.WriteString("\nRecent News:\n")
		for _, n := range r.News {
			if n.Published.IsZero() {
				fmt.Fprintf(&b, "- %s\n", n.Title)
				continue
			}
			fmt.Fprintf(&b, "- %s (%s)\n", n.Title, n.Published.Format("2006-01-02"))
		}
	}
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.0f", *v)
}

func number(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func managementPrompt(symbol, background string) string {
	return fmt.Sprintf(`Analyze the management quality of %s based on the following context:
%s
Focus on:
1. CEO/CFO tenure and track record.
2. Capital allocation history.
3. Shareholder alignment.

Return a JSON object with:
- score (1-10)
- analysis (short summary)`, symbol, background)
}

func sustainabilityPrompt(symbol, background string) string {
	return fmt.Sprintf(`Analyze the business sustainability of %s based on the following context:
%s
Focus on:
1. Competitive moat.
2. Technology disruption risk.
3. Industry trends.

Return a JSON object with:
- score (1-10)
- analysis (short summary)`, symbol, background)
}

func outlookPrompt(symbol, background string) string {
	return fmt.Sprintf(`Analyze the business outlook and durability for %s based on the following context:
%s
Provide a concise summary (max 150 words) covering:
1. Potential for the industry (growth/headwinds).
2. Durability of the business model (moat/risks).
3. Future outlook for the next 3-5 years.

Format as a single cohesive paragraph.`, symbol, background)
}

// thesisMetrics is the structured half of the thesis prompt
type thesisMetrics struct {
	Price         float64                         `json:"price"`
	AboveLowPct   float64                         `json:"above_52w_low_pct"`
	MarketCap     float64                         `json:"market_cap"`
	NetIncome     *float64                        `json:"net_income,omitempty"`
	FreeCashFlow  *float64                        `json:"free_cash_flow,omitempty"`
	DebtToEquity  *float64                        `json:"debt_to_equity,omitempty"`
	Valuation     contracts.Valuation             `json:"valuation"`
	Superinvestor contracts.SuperinvestorActivity `json:"superinvestor_activity"`
	Insider       contracts.InsiderActivity       `json:"insider_activity"`
}

func thesisPrompt(c contracts.Candidate, background string) string {
	metrics, _ := json.MarshalIndent(thesisMetrics{
		Price:         c.Screening.CurrentPrice,
		AboveLowPct:   c.Screening.AboveLowPct,
		MarketCap:     c.Screening.MarketCap,
		NetIncome:     c.Screening.NetIncome,
		FreeCashFlow:  c.Screening.FreeCashFlow,
		DebtToEquity:  c.Screening.DebtToEquity,
		Valuation:     c.Screening.Valuation,
		Superinvestor: c.Activity.Superinvestor,
		Insider:       c.Activity.Insider,
	}, "", "  ")

	return fmt.Sprintf(`Generate a "Deep Research" investment thesis for %s consisting of exactly %d key reasons to invest.

Context:
%s
Financial Metrics and Smart Money Activity:
%s

Requirements:
1. Output exactly %d distinct points.
2. Each point must be a specific, evidence-based reason that cites the numbers above.
3. Do NOT use generic fluff.
4. Format as a JSON list of strings. Example: ["Reason 1...", "Reason 2..."]`,
		c.Symbol, ThesisPoints, background, metrics, ThesisPoints)
}
