// Package coingecko is the REST client for the CoinGecko API, used to look up
// the USD reference price of the ledger's native asset on a given day.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quantfm/stellartax/internal/domain"
)

// historyDateLayout is the DD-MM-YYYY format the history endpoint expects.
const historyDateLayout = "02-01-2006"

// Client is the CoinGecko API client, bound to a single coin ID.
type Client struct {
	baseURL    string
	coinID     string
	httpClient *http.Client
}

// NewClient creates a new CoinGecko client.
//
// baseURL is the API root, e.g. "https://api.coingecko.com/api/v3".
// coinID is the CoinGecko coin identifier, e.g. "stellar".
func NewClient(baseURL, coinID string) *Client {
	return &Client{
		baseURL: baseURL,
		coinID:  coinID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// historyResponse carries the one field the exporter needs from the coin
// history endpoint.
type historyResponse struct {
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// DailyPrice returns the coin's USD price on the given calendar day. It
// returns domain.ErrNotFound when the API has no USD quote for that date.
func (c *Client) DailyPrice(ctx context.Context, day time.Time) (float64, error) {
	params := url.Values{}
	params.Set("date", day.UTC().Format(historyDateLayout))

	path := fmt.Sprintf("/coins/%s/history?%s", url.PathEscape(c.coinID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("coingecko: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coingecko: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("coingecko: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, fmt.Errorf("coingecko: %w: %s", domain.ErrRateLimited, string(body))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, fmt.Errorf("coingecko: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var hist historyResponse
	if err := json.Unmarshal(body, &hist); err != nil {
		return 0, fmt.Errorf("coingecko: decode history: %w", err)
	}

	if hist.MarketData == nil {
		return 0, fmt.Errorf("coingecko: %w: no market data for %s", domain.ErrNotFound, day.Format(historyDateLayout))
	}
	price, ok := hist.MarketData.CurrentPrice["usd"]
	if !ok {
		return 0, fmt.Errorf("coingecko: %w: no usd quote for %s", domain.ErrNotFound, day.Format(historyDateLayout))
	}

	return price, nil
}
