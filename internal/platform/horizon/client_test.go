package horizon

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

func TestAccountTrades(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/GACC/trades", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{
			"limit":  q.Get("limit"),
			"order":  q.Get("order"),
			"cursor": q.Get("cursor"),
		}
		fmt.Fprintf(w, `{
			"_embedded": {"records": [%s]},
			"_links": {"next": {"href": "%s/accounts/GACC/trades?cursor=111-0&limit=200&order=desc"}}
		}`, sampleTrade, "https://horizon.stellar.org")
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	page, err := c.AccountTrades(context.Background(), "GACC", "", 200)
	require.NoError(t, err)

	assert.Equal(t, "200", gotQuery["limit"])
	assert.Equal(t, "desc", gotQuery["order"])
	assert.Equal(t, "", gotQuery["cursor"])

	require.Len(t, page.Records, 1)
	assert.Equal(t, "XLM", page.Records[0].BaseAssetCode)
	assert.Equal(t, "111-0", page.NextCursor)
}

func TestAccountTrades_CursorForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "111-0", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{"_embedded": {"records": []}, "_links": {}}`)
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL).AccountTrades(context.Background(), "GACC", "111-0", 200)
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Equal(t, "", page.NextCursor)
}

func TestAccountTrades_DropsRecordWithBadCloseTime(t *testing.T) {
	// A record whose close time will not parse cannot be placed in any window;
	// it must be dropped without failing the rest of the page.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"_embedded": {"records": [{"ledger_close_time": "not-a-time"}, %s]},
			"_links": {}
		}`, sampleTrade)
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL).AccountTrades(context.Background(), "GACC", "", 200)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "XLM", page.Records[0].BaseAssetCode)
}

func TestAccountTrades_HTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).AccountTrades(context.Background(), "GACC", "", 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerClosedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ledgers/123456", r.URL.Path)
		fmt.Fprint(w, `{"sequence": 123456, "closed_at": "2024-03-05T14:30:12Z"}`)
	}))
	defer srv.Close()

	closedAt, err := NewClient(srv.URL).LedgerClosedAt(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 12, 0, time.UTC), closedAt)
}
