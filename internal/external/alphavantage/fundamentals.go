package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/wonny/smartpick/internal/contracts"
)

type overviewResponse struct {
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Description          string `json:"Description"`
	Sector               string `json:"Sector"`
	Industry             string `json:"Industry"`
	Exchange             string `json:"Exchange"`
	PERatio              string `json:"PERatio"`
	ForwardPE            string `json:"ForwardPE"`
	PriceToBookRatio     string `json:"PriceToBookRatio"`
	DividendYield        string `json:"DividendYield"`
	ReturnOnEquityTTM    string `json:"ReturnOnEquityTTM"`
	AnalystTargetPrice   string `json:"AnalystTargetPrice"`
	MarketCapitalization string `json:"MarketCapitalization"`
	RevenueTTM           string `json:"RevenueTTM"`
	ProfitMargin         string `json:"ProfitMargin"`
	DebtToEquity         string `json:"DebtToEquity"`
}

type cashFlowReport struct {
	FiscalDateEnding    string `json:"fiscalDateEnding"`
	OperatingCashflow   string `json:"operatingCashflow"`
	CapitalExpenditures string `json:"capitalExpenditures"`
}

// Overview fetches company fundamentals. An empty object (unknown symbol)
// is reported as contracts.ErrNoData.
func (c *Client) Overview(ctx context.Context, symbol string) (contracts.CompanyOverview, error) {
	obj, err := c.query(ctx, "OVERVIEW", symbol, nil)
	if err != nil {
		return contracts.CompanyOverview{}, err
	}
	if len(obj) == 0 {
		return contracts.CompanyOverview{}, fmt.Errorf("overview %s: %w", symbol, contracts.ErrNoData)
	}

	var resp overviewResponse
	if err := remarshal(obj, &resp); err != nil {
		return contracts.CompanyOverview{}, fmt.Errorf("overview %s: %w", symbol, err)
	}

	return contracts.CompanyOverview{
		Symbol:       symbol,
		Name:         resp.Name,
		Sector:       resp.Sector,
		Industry:     resp.Industry,
		Exchange:     resp.Exchange,
		Description:  resp.Description,
		Valuation: contracts.Valuation{
			PERatio:        parseNumber(resp.PERatio),
			ForwardPE:      parseNumber(resp.ForwardPE),
			PriceToBook:    parseNumber(resp.PriceToBookRatio),
			DividendYield:  parseNumber(resp.DividendYield),
			ReturnOnEquity: parseNumber(resp.ReturnOnEquityTTM),
			ProfitMargin:   parseNumber(resp.ProfitMargin),
			AnalystTarget:  parseNumber(resp.AnalystTargetPrice),
		},
		MarketCap:    parseNumber(resp.MarketCapitalization),
		RevenueTTM:   parseNumber(resp.RevenueTTM),
		ProfitMargin: parseNumber(resp.ProfitMargin),
		DebtToEquity: parseNumber(resp.DebtToEquity),
	}, nil
}

// FreeCashFlow returns operating cash flow minus |capex| of the latest
// annual report, or nil when either figure is missing.
func (c *Client) FreeCashFlow(ctx context.Context, symbol string) (*float64, error) {
	obj, err := c.query(ctx, "CASH_FLOW", symbol, nil)
	if err != nil {
		return nil, err
	}

	var reports []cashFlowReport
	if raw, ok := obj["annualReports"]; ok {
		if err := json.Unmarshal(raw, &reports); err != nil {
			return nil, fmt.Errorf("cash flow %s: malformed reports: %w", symbol, err)
		}
	}
	if len(reports) == 0 {
		return nil, nil
	}

	ocf := parseNumber(reports[0].OperatingCashflow)
	capex := parseNumber(reports[0].CapitalExpenditures)
	if ocf == nil || capex == nil {
		return nil, nil
	}

	fcf := *ocf - math.Abs(*capex)
	return &fcf, nil
}

func remarshal(obj map[string]json.RawMessage, dest interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
