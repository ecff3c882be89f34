package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/smartpick/internal/contracts"
)

const dailySeriesKey = "Time Series (Daily)"

type dailyBar struct {
	Close string `json:"4. close"`
}

// DailyCloses fetches the full daily close history, oldest first
func (c *Client) DailyCloses(ctx context.Context, symbol string) ([]contracts.PriceBar, error) {
	obj, err := c.query(ctx, "TIME_SERIES_DAILY", symbol, url.Values{"outputsize": {"full"}})
	if err != nil {
		return nil, err
	}

	raw, ok := obj[dailySeriesKey]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, contracts.ErrNoData)
	}

	return parseDailySeries(raw)
}

func parseDailySeries(raw json.RawMessage) ([]contracts.PriceBar, error) {
	var series map[string]dailyBar
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("malformed daily series: %w", err)
	}

	bars := make([]contracts.PriceBar, 0, len(series))
	for day, bar := range series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			continue
		}
		bars = append(bars, contracts.PriceBar{Date: date, Close: closePrice})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}
