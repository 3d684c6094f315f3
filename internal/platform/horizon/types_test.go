package horizon

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfm/stellartax/internal/domain"
)

const sampleTrade = `{
	"_links": {
		"operation": {"href": "https://horizon.stellar.org/operations/228458034362975745"}
	},
	"ledger_close_time": "2024-03-05T14:30:12Z",
	"base_is_seller": true,
	"base_asset_type": "native",
	"base_amount": "100.0000000",
	"counter_asset_type": "credit_alphanum4",
	"counter_asset_code": "USDC",
	"counter_amount": "12.0000000",
	"price": {"n": "3", "d": "25"}
}`

func TestToDomainTrade(t *testing.T) {
	var api APITrade
	require.NoError(t, json.Unmarshal([]byte(sampleTrade), &api))

	rec, err := api.ToDomainTrade()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 12, 0, time.UTC), rec.LedgerCloseTime)
	assert.True(t, rec.BaseIsSeller)
	assert.Equal(t, domain.AssetTypeNative, rec.BaseAssetType)
	assert.Equal(t, "XLM", rec.BaseAssetCode, "native legs get the native code")
	assert.Equal(t, "USDC", rec.CounterAssetCode)
	require.True(t, rec.BaseAmount.Valid)
	assert.True(t, rec.BaseAmount.Decimal.Equal(decimal.RequireFromString("100")))
	require.True(t, rec.Price.Valid)
	assert.Equal(t, int64(3), rec.Price.Numerator)
	assert.Equal(t, int64(25), rec.Price.Denominator)
	assert.Equal(t, "https://horizon.stellar.org/operations/228458034362975745", rec.OperationHref)
}

func TestToDomainTrade_IntegerPriceFields(t *testing.T) {
	// Older Horizon versions serialize n/d as bare integers.
	var api APITrade
	require.NoError(t, json.Unmarshal([]byte(`{
		"ledger_close_time": "2024-03-05T14:30:12Z",
		"price": {"n": 1, "d": 8}
	}`), &api))

	rec, err := api.ToDomainTrade()
	require.NoError(t, err)
	require.True(t, rec.Price.Valid)
	assert.Equal(t, int64(8), rec.Price.Denominator)
}

func TestToDomainTrade_MalformedFieldsDegrade(t *testing.T) {
	var api APITrade
	require.NoError(t, json.Unmarshal([]byte(`{
		"ledger_close_time": "2024-03-05T14:30:12Z",
		"base_amount": "not-a-number",
		"price": {"n": "x", "d": "8"}
	}`), &api))

	rec, err := api.ToDomainTrade()
	require.NoError(t, err)
	assert.False(t, rec.BaseAmount.Valid)
	assert.False(t, rec.Price.Valid)
	assert.Equal(t, "", rec.OperationHref)
}

func TestToDomainTrade_BadCloseTime(t *testing.T) {
	api := APITrade{LedgerCloseTime: "soonish"}
	_, err := api.ToDomainTrade()
	assert.Error(t, err)
}

func TestNextCursor(t *testing.T) {
	href := "https://horizon.stellar.org/accounts/GACC/trades?cursor=228458034362975745-0&limit=200&order=desc"
	assert.Equal(t, "228458034362975745-0", nextCursor(href))
	assert.Equal(t, "", nextCursor(""))
	assert.Equal(t, "", nextCursor("https://horizon.stellar.org/accounts/GACC/trades"))
}
