// Package wikipedia reads index constituents from Wikipedia list pages
package wikipedia

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

// DefaultBaseURL is English Wikipedia
const DefaultBaseURL = "https://en.wikipedia.org"

// Index identifies a constituents page
type Index string

const (
	SP500     Index = "sp500"
	Nasdaq100 Index = "nasdaq100"
	Dow       Index = "dow"
)

// AllIndexes is the default universe
var AllIndexes = []Index{SP500, Nasdaq100, Dow}

var indexPaths = map[Index]string{
	SP500:     "/wiki/List_of_S%26P_500_companies",
	Nasdaq100: "/wiki/NASDAQ-100",
	Dow:       "/wiki/Dow_Jones_Industrial_Average",
}

// symbolHeaders are accepted column titles, matched case-insensitively
var symbolHeaders = []string{"symbol", "ticker", "ticker symbol"}

// Client handles communication with Wikipedia
// ⭐ SSOT: 지수 구성종목 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Wikipedia client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("wikipedia"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchConstituents returns the symbols of index in page order, with "." replaced by "-"
func (c *Client) FetchConstituents(ctx context.Context, index Index) ([]string, error) {
	path, ok := indexPaths[index]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", index)
	}

	body, err := c.httpClient.GetBody(ctx, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("wikipedia %s: %w", index, err)
	}

	symbols, err := parseConstituentsHTML(string(body))
	if err != nil {
		return nil, fmt.Errorf("wikipedia %s: %w", index, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"index": string(index),
		"count": len(symbols),
	}).Info("Fetched index constituents")
	return symbols, nil
}

// parseConstituentsHTML takes the first table that has a symbol column
func parseConstituentsHTML(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var symbols []string
	found := false

	doc.Find("table").EachWithBreak(func(i int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		col := symbolColumn(rows.First())
		if col < 0 {
			return true
		}

		found = true
		rows.Slice(1, rows.Length()).Each(func(j int, row *goquery.Selection) {
			cells := row.Children().Filter("th, td")
			if cells.Length() <= col {
				return
			}
			sym := normalizeSymbol(cells.Eq(col).Text())
			if sym != "" {
				symbols = append(symbols, sym)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no table with a symbol column")
	}
	return symbols, nil
}

func symbolColumn(header *goquery.Selection) int {
	col := -1
	header.Children().Filter("th, td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		title := strings.ToLower(strings.TrimSpace(cell.Text()))
		for _, h := range symbolHeaders {
			if title == h {
				col = i
				return false
			}
		}
		return true
	})
	return col
}

func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ".", "-")
}
