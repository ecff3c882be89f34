// Package openinsider scrapes insider transactions from openinsider.com
package openinsider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

// DefaultBaseURL is the public site
const DefaultBaseURL = "http://openinsider.com"

// 컬럼: X | Filing Date | Trade Date | Ticker | Insider | Title | Trade Type | Price | Qty | Owned | ΔOwn | Value
const (
	colTradeDate = 2
	colTradeType = 6
	colValue     = 11
	minColumns   = 12
)

// Client handles communication with OpenInsider
// ⭐ SSOT: 내부자 거래 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	lookback   time.Duration
	now        func() time.Time
}

// NewClient creates a new OpenInsider client. Trades older than
// lookbackDays are ignored; 0 keeps everything on the page.
func NewClient(httpClient *httputil.Client, baseURL string, lookbackDays int, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("openinsider"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		lookback:   time.Duration(lookbackDays) * 24 * time.Hour,
		now:        time.Now,
	}
}

// FetchActivity returns insider activity for symbol. A page without the
// trade table yields a zero value, not an error.
func (c *Client) FetchActivity(ctx context.Context, symbol string) (contracts.InsiderActivity, error) {
	fullURL := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(symbol))

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return contracts.InsiderActivity{}, fmt.Errorf("openinsider %s: %w", symbol, err)
	}

	var since time.Time
	if c.lookback > 0 {
		since = c.now().Add(-c.lookback)
	}

	activity, err := parseTradesHTML(string(body), since)
	if err != nil {
		return contracts.InsiderActivity{}, fmt.Errorf("openinsider %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":    symbol,
		"buys":      activity.Buys,
		"sells":     activity.Sells,
		"net_value": activity.NetValue,
	}).Debug("Fetched insider activity")
	return activity, nil
}

// parseTradesHTML sums purchases and sales in table.tinytable. Rows whose
// trade date parses and is before since are skipped.
func parseTradesHTML(html string, since time.Time) (contracts.InsiderActivity, error) {
	var activity contracts.InsiderActivity

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return activity, fmt.Errorf("parse html: %w", err)
	}

	doc.Find("table.tinytable tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minColumns {
			return
		}

		if !since.IsZero() {
			if d, err := time.Parse("2006-01-02", strings.TrimSpace(cells.Eq(colTradeDate).Text())); err == nil && d.Before(since) {
				return
			}
		}

		tradeType := strings.TrimSpace(cells.Eq(colTradeType).Text())
		value := parseDollar(cells.Eq(colValue).Text())

		switch {
		case strings.Contains(tradeType, "Purchase"):
			activity.Buys++
			activity.NetValue += value
		case strings.Contains(tradeType, "Sale"):
			activity.Sells++
			activity.NetValue -= math.Abs(value)
		}
	})

	return activity, nil
}

// parseDollar parses "+$1,234,567" style values; unparsable text is 0
func parseDollar(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
