// Package googlenews reads recent headlines for a ticker from the Google News RSS search feed
package googlenews

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

// DefaultBaseURL is the RSS search endpoint
const DefaultBaseURL = "https://news.google.com/rss/search"

// DefaultLimit is the number of headlines kept per symbol
const DefaultLimit = 5

// Client fetches news headlines
// ⭐ SSOT: 뉴스 헤드라인 수집은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Google News client. httpClient should be paced.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("googlenews"),
		baseURL:    baseURL,
	}
}

// Headlines returns up to limit items in feed order. An empty feed is not an error.
func (c *Client) Headlines(ctx context.Context, symbol string, limit int) ([]contracts.NewsItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("q", symbol+" stock")
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("google news %s: %w", symbol, err)
	}

	items, err := parseFeed(body, limit)
	if err != nil {
		return nil, fmt.Errorf("google news %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(items),
	}).Debug("Fetched news headlines")
	return items, nil
}

func parseFeed(body []byte, limit int) ([]contracts.NewsItem, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]contracts.NewsItem, 0, limit)
	for _, it := range feed.Items {
		if len(items) == limit {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		item := contracts.NewsItem{Title: title, Link: it.Link}
		if it.PublishedParsed != nil {
			item.Published = it.PublishedParsed.UTC()
		}
		items = append(items, item)
	}
	return items, nil
}
