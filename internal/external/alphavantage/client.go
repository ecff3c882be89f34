// Package alphavantage fetches prices and fundamentals from the Alpha Vantage
// REST API. Every request is admitted by the shared rate governor.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/smartpick/internal/contracts"
	"github.com/wonny/smartpick/pkg/httputil"
	"github.com/wonny/smartpick/pkg/logger"
)

// DefaultBaseURL is the production query endpoint
const DefaultBaseURL = "https://www.alphavantage.co/query"

// ErrMissingAPIKey is returned before any call when no key is configured
var ErrMissingAPIKey = errors.New("alpha vantage api key not configured")

// APIError is an error reported inside a 200 response body
// ("Error Message", "Note" or "Information")
type APIError struct {
	Function string
	Symbol   string
	Kind     string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage %s %s: %s: %s", e.Function, e.Symbol, e.Kind, e.Message)
}

// Client handles communication with Alpha Vantage
// ⭐ SSOT: Alpha Vantage API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client // must carry the rate governor
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new Alpha Vantage client. httpClient should be built
// with WithGovernor so the calls-per-window ceiling holds.
func NewClient(httpClient *httputil.Client, apiKey, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("alphavantage"),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// query performs one API call and returns the raw JSON object
func (c *Client) query(ctx context.Context, function, symbol string, extra url.Values) (map[string]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("alpha vantage %s %s: %w", function, symbol, err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("alpha vantage %s %s: malformed response: %w", function, symbol, err)
	}

	for _, kind := range []string{"Error Message", "Note", "Information"} {
		if raw, ok := obj[kind]; ok {
			var msg string
			_ = json.Unmarshal(raw, &msg)
			return nil, &APIError{Function: function, Symbol: symbol, Kind: kind, Message: msg}
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"function": function,
		"symbol":   symbol,
	}).Debug("Alpha Vantage call completed")

	return obj, nil
}

// parseNumber parses provider numerics; "None", "-" and "" mean absent
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

var _ contracts.MarketDataSource = (*Client)(nil)
