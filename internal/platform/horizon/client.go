// Package horizon is the REST client for a Stellar Horizon server. It covers
// the two read-only endpoints the exporter needs: an account's trade feed and
// ledger close-time metadata.
package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantfm/stellartax/internal/domain"
)

// Client is the Horizon API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Horizon client.
//
// baseURL is the Horizon root, e.g. "https://horizon.stellar.org".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AccountTrades returns one page of the account's trade feed, ordered
// descending by time. Pass the previous page's next cursor to continue the
// walk; an empty cursor fetches the newest page.
//
// A record without a parsable close time is dropped from the page: it cannot
// be placed in any time window, and failing the whole page would truncate the
// walk at that point.
func (c *Client) AccountTrades(ctx context.Context, accountID, cursor string, limit int) (domain.TradesPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "desc")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := fmt.Sprintf("/accounts/%s/trades?%s", url.PathEscape(accountID), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.TradesPage{}, fmt.Errorf("horizon: get account trades: %w", err)
	}

	var resp tradesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.TradesPage{}, fmt.Errorf("horizon: decode trades page: %w", err)
	}

	page := domain.TradesPage{
		Records:    make([]domain.TradeRecord, 0, len(resp.Embedded.Records)),
		NextCursor: nextCursor(resp.Links.Next.Href),
	}
	for i := range resp.Embedded.Records {
		rec, err := resp.Embedded.Records[i].ToDomainTrade()
		if err != nil {
			continue
		}
		page.Records = append(page.Records, rec)
	}

	return page, nil
}

// LedgerClosedAt returns the close time of the ledger with the given sequence
// number. Used only for diagnostics when a trades page comes back empty.
func (c *Client) LedgerClosedAt(ctx context.Context, sequence string) (time.Time, error) {
	path := fmt.Sprintf("/ledgers/%s", url.PathEscape(sequence))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return time.Time{}, fmt.Errorf("horizon: get ledger %s: %w", sequence, err)
	}

	var resp struct {
		ClosedAt string `json:"closed_at"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return time.Time{}, fmt.Errorf("horizon: decode ledger: %w", err)
	}

	closedAt, err := time.Parse(time.RFC3339, resp.ClosedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("horizon: parse closed_at %q: %w", resp.ClosedAt, err)
	}

	return closedAt.UTC(), nil
}

// doGet sends an unauthenticated GET request to the Horizon server.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
