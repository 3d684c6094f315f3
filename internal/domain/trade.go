// Package domain defines the core entities of the tax exporter: raw trade
// records fetched from the ledger feed, the calendar-year tax window, and the
// normalized tax rows the valuation pipeline produces.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetTypeNative is the Horizon asset type of the ledger's intrinsic asset (XLM).
const AssetTypeNative = "native"

// RationalPrice is the trade price as reported by the ledger feed, a ratio of
// counter amount to base amount. Valid is false when the feed record carried no
// well-formed price fraction.
type RationalPrice struct {
	Numerator   int64
	Denominator int64
	Valid       bool
}

// Quotient returns the price as a decimal, or an invalid NullDecimal when the
// fraction is absent or the denominator is zero.
func (p RationalPrice) Quotient() decimal.NullDecimal {
	if !p.Valid || p.Denominator == 0 {
		return decimal.NullDecimal{}
	}
	q := decimal.NewFromInt(p.Numerator).Div(decimal.NewFromInt(p.Denominator))
	return decimal.NullDecimal{Decimal: q, Valid: true}
}

// TradeRecord is one executed exchange from the account's trade feed. Fields
// that the feed may omit or garble are modeled as explicit optionals rather
// than zero values. Records are immutable once fetched.
type TradeRecord struct {
	LedgerCloseTime  time.Time
	BaseIsSeller     bool
	BaseAssetType    string
	BaseAssetCode    string
	CounterAssetType string
	CounterAssetCode string
	BaseAmount       decimal.NullDecimal
	CounterAmount    decimal.NullDecimal
	Price            RationalPrice
	OperationHref    string
}

// NativeEquivalent returns the XLM leg of the trade when the account's
// reportable side has a native counterpart: the base amount when the base asset
// is native and the base party sold, the counter amount when the counter asset
// is native and the base party bought, otherwise absent. This is the bridge
// used for USD valuation.
func (t TradeRecord) NativeEquivalent() decimal.NullDecimal {
	switch {
	case t.BaseAssetType == AssetTypeNative && t.BaseIsSeller:
		return t.BaseAmount
	case t.CounterAssetType == AssetTypeNative && !t.BaseIsSeller:
		return t.CounterAmount
	default:
		return decimal.NullDecimal{}
	}
}

// TradesPage is one page of the account trade feed together with the cursor of
// the feed's next link. An empty cursor means the feed exposed no next link.
type TradesPage struct {
	Records    []TradeRecord
	NextCursor string
}

// TaxWindow is the inclusive date range used to filter trades for the report.
type TaxWindow struct {
	Start time.Time
	End   time.Time
}

// NewYearWindow returns the tax window covering the given calendar year in UTC,
// from January 1 00:00:00 through December 31 23:59:59 inclusive.
func NewYearWindow(year int) TaxWindow {
	return TaxWindow{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
}

// Contains reports whether t falls inside the window, bounds included.
func (w TaxWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
