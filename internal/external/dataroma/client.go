// Package dataroma scrapes superinvestor activity from dataroma.com
package dataroma

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

// DefaultBaseURL is the public site
const DefaultBaseURL = "https://www.dataroma.com"

// Client handles communication with Dataroma
// ⭐ SSOT: 슈퍼투자자 데이터 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Dataroma client. httpClient should be paced.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("dataroma"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchActivity returns superinvestor activity for symbol. A page without
// the holdings grid yields a zero value, not an error.
func (c *Client) FetchActivity(ctx context.Context, symbol string) (contracts.SuperinvestorActivity, error) {
	fullURL := fmt.Sprintf("%s/m/stock.php?sym=%s", c.baseURL, url.QueryEscape(symbol))

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return contracts.SuperinvestorActivity{}, fmt.Errorf("dataroma %s: %w", symbol, err)
	}

	activity, err := parseActivityHTML(string(body))
	if err != nil {
		return contracts.SuperinvestorActivity{}, fmt.Errorf("dataroma %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"buys":   activity.Buys,
		"sells":  activity.Sells,
		"holds":  activity.Holds,
	}).Debug("Fetched superinvestor activity")
	return activity, nil
}

// parseActivityHTML reads table#grid: investor name in column 0, activity in column 3
func parseActivityHTML(html string) (contracts.SuperinvestorActivity, error) {
	var activity contracts.SuperinvestorActivity

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return activity, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table#grid")
	if table.Length() == 0 {
		return activity, nil
	}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		name := strings.TrimSpace(cells.Eq(0).Text())
		action := strings.ToLower(strings.TrimSpace(cells.Eq(3).Text()))

		switch {
		case strings.Contains(action, "buy") || strings.Contains(action, "add"):
			activity.Buys++
			activity.Buyers = append(activity.Buyers, name)
		case strings.Contains(action, "sell") || strings.Contains(action, "reduce"):
			activity.Sells++
			activity.Sellers = append(activity.Sellers, name)
		default:
			activity.Holds++
		}
	})

	return activity, nil
}
