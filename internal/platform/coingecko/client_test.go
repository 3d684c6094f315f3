package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfm/stellartax/internal/domain"
)

func TestDailyPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/stellar/history", r.URL.Path)
		// The history endpoint wants DD-MM-YYYY.
		require.Equal(t, "05-03-2024", r.URL.Query().Get("date"))
		fmt.Fprint(w, `{"id": "stellar", "market_data": {"current_price": {"usd": 0.1234, "eur": 0.11}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stellar")
	price, err := c.DailyPrice(context.Background(), time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0.1234, price)
}

func TestDailyPrice_NoMarketData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Dates before the coin's listing come back without market_data.
		fmt.Fprint(w, `{"id": "stellar"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "stellar").DailyPrice(context.Background(), time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyPrice_NoUSDQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"market_data": {"current_price": {"eur": 0.11}}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "stellar").DailyPrice(context.Background(), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDailyPrice_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "stellar").DailyPrice(context.Background(), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
