package horizon

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfm/stellartax/internal/domain"
)

// nativeAssetCode is substituted for the empty asset code Horizon reports on
// native-asset trade legs.
const nativeAssetCode = "XLM"

// tradesResponse is the HAL envelope of the account trades endpoint.
type tradesResponse struct {
	Embedded struct {
		Records []APITrade `json:"records"`
	} `json:"_embedded"`
	Links struct {
		Next struct {
			Href string `json:"href"`
		} `json:"next"`
	} `json:"_links"`
}

// APIPrice is the rational trade price as serialized by Horizon. Numerator and
// denominator are strings on current Horizon versions and bare integers on
// older ones; flexInt64 accepts both.
type APIPrice struct {
	N flexInt64 `json:"n"`
	D flexInt64 `json:"d"`
}

// flexInt64 decodes an int64 from either a JSON number or a JSON string. A
// value that parses as neither leaves OK false instead of failing the whole
// page.
type flexInt64 struct {
	Value int64
	OK    bool
}

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = flexInt64{}
		return nil
	}
	*f = flexInt64{Value: v, OK: true}
	return nil
}

// APITrade is the wire representation of one trade record.
type APITrade struct {
	LedgerCloseTime  string    `json:"ledger_close_time"`
	BaseIsSeller     bool      `json:"base_is_seller"`
	BaseAssetType    string    `json:"base_asset_type"`
	BaseAssetCode    string    `json:"base_asset_code"`
	BaseAmount       string    `json:"base_amount"`
	CounterAssetType string    `json:"counter_asset_type"`
	CounterAssetCode string    `json:"counter_asset_code"`
	CounterAmount    string    `json:"counter_amount"`
	Price            *APIPrice `json:"price"`
	Links            struct {
		Operation struct {
			Href string `json:"href"`
		} `json:"operation"`
	} `json:"_links"`
}

// ToDomainTrade converts the wire record into a domain.TradeRecord. Absent or
// malformed source fields become explicit invalid optionals; only an unparsable
// close time is an error, since every downstream decision hangs off it.
func (t *APITrade) ToDomainTrade() (domain.TradeRecord, error) {
	closeTime, err := time.Parse(time.RFC3339, t.LedgerCloseTime)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("parse ledger_close_time %q: %w", t.LedgerCloseTime, err)
	}

	rec := domain.TradeRecord{
		LedgerCloseTime:  closeTime.UTC(),
		BaseIsSeller:     t.BaseIsSeller,
		BaseAssetType:    t.BaseAssetType,
		BaseAssetCode:    assetCode(t.BaseAssetType, t.BaseAssetCode),
		CounterAssetType: t.CounterAssetType,
		CounterAssetCode: assetCode(t.CounterAssetType, t.CounterAssetCode),
		BaseAmount:       parseAmount(t.BaseAmount),
		CounterAmount:    parseAmount(t.CounterAmount),
		OperationHref:    t.Links.Operation.Href,
	}

	if t.Price != nil && t.Price.N.OK && t.Price.D.OK {
		rec.Price = domain.RationalPrice{
			Numerator:   t.Price.N.Value,
			Denominator: t.Price.D.Value,
			Valid:       true,
		}
	}

	return rec, nil
}

// assetCode returns the reportable asset code for a trade leg. Horizon omits
// the code field for the native asset.
func assetCode(assetType, code string) string {
	if assetType == domain.AssetTypeNative && code == "" {
		return nativeAssetCode
	}
	return code
}

func parseAmount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// nextCursor extracts the opaque paging token from a next-page link. It
// returns "" when the link is missing or carries no cursor parameter.
func nextCursor(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
