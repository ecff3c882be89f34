package contracts

import (
	"context"
	"time"
)

// PriceBar is one daily close
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// CompanyOverview holds the fundamentals the screener needs. Pointer fields
// are nil when the provider reported no value.
type CompanyOverview struct {
	Symbol       string
	Name         string
	Sector       string
	Industry     string
	Exchange     string
	Description  string
	Valuation    Valuation
	MarketCap    *float64
	RevenueTTM   *float64
	ProfitMargin *float64
	DebtToEquity *float64
}

// NetIncome is RevenueTTM * ProfitMargin, nil if either is missing
func (o CompanyOverview) NetIncome() *float64 {
	if o.RevenueTTM == nil || o.ProfitMargin == nil {
		return nil
	}
	v := *o.RevenueTTM * *o.ProfitMargin
	return &v
}

// MarketDataSource provides prices and fundamentals for screening
// ⭐ SSOT: 가격/재무 데이터 인터페이스
type MarketDataSource interface {
	DailyCloses(ctx context.Context, symbol string) ([]PriceBar, error)
	Overview(ctx context.Context, symbol string) (CompanyOverview, error)
	// FreeCashFlow returns nil when the provider has no cash flow report
	FreeCashFlow(ctx context.Context, symbol string) (*float64, error)
}
