package report

import (
	"fmt"

	"github.com/wonny/smartpick/internal/contracts"
)

// Reason is one titled line of the investment thesis
type Reason struct {
	Title string
	Text  string
}

// Verdict labels
const (
	VerdictBuy   = "BUY"
	VerdictHold  = "HOLD"
	VerdictWatch = "WATCH"
)

// Verdict maps a total score to a recommendation label
func Verdict(total float64) string {
	switch {
	case total > 12:
		return VerdictBuy
	case total > 8:
		return VerdictHold
	default:
		return VerdictWatch
	}
}

// Reasons returns the generated thesis as untitled reasons when one exists,
// otherwise the points derived by KeyReasons
func Reasons(c contracts.Candidate) []Reason {
	if len(c.Thesis) == 0 {
		return KeyReasons(c)
	}
	out := make([]Reason, 0, len(c.Thesis))
	for _, t := range c.Thesis {
		out = append(out, Reason{Text: t})
	}
	return out
}

// KeyReasons derives five thesis points from the gathered facts
func KeyReasons(c contracts.Candidate) []Reason {
	s := c.Screening
	reasons := make([]Reason, 0, 5)

	// valuation
	if s.AboveLowPct < 15 {
		reasons = append(reasons, Reason{"Attractive Valuation", fmt.Sprintf(
			"Trading only %.1f%% above its 52-week low of $%.2f, with room to recover toward the $%.2f high.",
			s.AboveLowPct, s.Low52W, s.High52W)})
	} else {
		reasons = append(reasons, Reason{"Value Opportunity", fmt.Sprintf(
			"Priced at $%.2f, %.1f%% below its 52-week high.", s.CurrentPrice, s.DropFromHighPct)})
	}

	// smart money
	switch smart := c.Score.SmartMoney; {
	case smart >= 7:
		reasons = append(reasons, Reason{"Strong Smart Money Conviction", fmt.Sprintf(
			"Smart money score of %d/10: %d superinvestor buys and $%.0f net insider buying.",
			smart, c.Activity.Superinvestor.Buys, c.Activity.Insider.NetValue)})
	case smart >= 4:
		reasons = append(reasons, Reason{"Smart Money Support", fmt.Sprintf(
			"Smart money score of %d/10 shows informed buyers at current levels.", smart)})
	default:
		reasons = append(reasons, Reason{"Limited Smart Money Signal", fmt.Sprintf(
			"Smart money score of %d/10; the case rests on valuation and quality.", smart)})
	}

	// financial health
	switch {
	case s.DebtToEquity != nil && *s.DebtToEquity < 0.5:
		reasons = append(reasons, Reason{"Strong Balance Sheet", fmt.Sprintf(
			"Debt-to-equity of %.2f leaves financial flexibility.", *s.DebtToEquity)})
	case s.FreeCashFlow != nil && *s.FreeCashFlow > 0:
		reasons = append(reasons, Reason{"Positive Cash Generation", fmt.Sprintf(
			"Free cash flow of $%.0f funds operations and growth.", *s.FreeCashFlow)})
	default:
		reasons = append(reasons, Reason{"Profitable Operations",
			"Positive trailing net income with market cap above the screening floor."})
	}

	// management
	if m := c.Qualitative.Management; m >= 7 {
		reasons = append(reasons, Reason{"Proven Management Team", fmt.Sprintf(
			"Management quality rated %.0f/10.", m)})
	} else {
		reasons = append(reasons, Reason{"Management", fmt.Sprintf(
			"Management quality rated %.0f/10.", m)})
	}

	// sustainability
	if v := c.Qualitative.Sustainability; v >= 7 {
		reasons = append(reasons, Reason{"Sustainable Competitive Advantage", fmt.Sprintf(
			"Business sustainability rated %.0f/10.", v)})
	} else {
		reasons = append(reasons, Reason{"Market Position", fmt.Sprintf(
			"Business sustainability rated %.0f/10.", v)})
	}

	return reasons
}
