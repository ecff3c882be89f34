package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/smartpick/internal/contracts"
)

// MaxQuarters bounds the quarterly history returned by IncomeStatement and Earnings
const MaxQuarters = 8

type incomeReport struct {
	FiscalDateEnding string `json:"fiscalDateEnding"`
	TotalRevenue     string `json:"totalRevenue"`
	NetIncome        string `json:"netIncome"`
}

type earningsReport struct {
	FiscalDateEnding   string `json:"fiscalDateEnding"`
	ReportedDate       string `json:"reportedDate"`
	ReportedEPS        string `json:"reportedEPS"`
	EstimatedEPS       string `json:"estimatedEPS"`
	SurprisePercentage string `json:"surprisePercentage"`
}

// IncomeStatement returns up to MaxQuarters quarterly income statements,
// most recent first. No quarterly reports is an empty slice, not an error.
func (c *Client) IncomeStatement(ctx context.Context, symbol string) ([]contracts.QuarterlyFinancial, error) {
	obj, err := c.query(ctx, "INCOME_STATEMENT", symbol, nil)
	if err != nil {
		return nil, err
	}

	var reports []incomeReport
	if raw, ok := obj["quarterlyReports"]; ok {
		if err := json.Unmarshal(raw, &reports); err != nil {
			return nil, fmt.Errorf("income statement %s: malformed reports: %w", symbol, err)
		}
	}
	if len(reports) > MaxQuarters {
		reports = reports[:MaxQuarters]
	}

	out := make([]contracts.QuarterlyFinancial, 0, len(reports))
	for _, r := range reports {
		out = append(out, contracts.QuarterlyFinancial{
			FiscalDateEnding: r.FiscalDateEnding,
			TotalRevenue:     parseNumber(r.TotalRevenue),
			NetIncome:        parseNumber(r.NetIncome),
		})
	}
	return out, nil
}

// Earnings returns up to MaxQuarters reported quarters with estimates, most recent first
func (c *Client) Earnings(ctx context.Context, symbol string) ([]contracts.QuarterlyEarning, error) {
	obj, err := c.query(ctx, "EARNINGS", symbol, nil)
	if err != nil {
		return nil, err
	}

	var reports []earningsReport
	if raw, ok := obj["quarterlyEarnings"]; ok {
		if err := json.Unmarshal(raw, &reports); err != nil {
			return nil, fmt.Errorf("earnings %s: malformed reports: %w", symbol, err)
		}
	}
	if len(reports) > MaxQuarters {
		reports = reports[:MaxQuarters]
	}

	out := make([]contracts.QuarterlyEarning, 0, len(reports))
	for _, r := range reports {
		out = append(out, contracts.QuarterlyEarning{
			FiscalDateEnding: r.FiscalDateEnding,
			ReportedDate:     r.ReportedDate,
			ReportedEPS:      parseNumber(r.ReportedEPS),
			EstimatedEPS:     parseNumber(r.EstimatedEPS),
			SurprisePct:      parseNumber(r.SurprisePercentage),
		})
	}
	return out, nil
}
