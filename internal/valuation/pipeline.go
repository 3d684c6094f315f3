// Package valuation turns raw trade records into normalized tax rows: event
// classification, USD valuation via a daily reference price with an
// embedded-price fallback, and operation link extraction.
package valuation

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfm/stellartax/internal/domain"
)

// PriceSource resolves the USD reference price of the ledger's native asset on
// a calendar day.
type PriceSource interface {
	DailyPrice(ctx context.Context, day time.Time) (float64, error)
}

var operationIDPattern = regexp.MustCompile(`/operations/(\d+)`)

const dateKeyLayout = "2006-01-02"

// Pipeline derives one TaxRow per TradeRecord. A missing or malformed source
// field degrades the affected derived fields only; no trade is ever dropped.
type Pipeline struct {
	prices       PriceSource
	explorerBase string
	logger       *slog.Logger
}

// New creates a Pipeline. explorerBase is the block-explorer root used to
// build per-operation links, e.g. "https://stellar.expert/explorer/public".
func New(prices PriceSource, explorerBase string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		prices:       prices,
		explorerBase: explorerBase,
		logger:       logger.With(slog.String("component", "valuation")),
	}
}

// BuildTaxRows converts trades into tax rows, preserving input order. Daily
// reference prices are fetched once per distinct calendar date before any
// per-trade work; a failed lookup leaves that date absent and pushes its
// trades onto the embedded-price fallback.
func (p *Pipeline) BuildTaxRows(ctx context.Context, trades []domain.TradeRecord) []domain.TaxRow {
	priceByDate := p.fetchDailyPrices(ctx, trades)

	rows := make([]domain.TaxRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, p.buildRow(t, priceByDate[t.LedgerCloseTime.UTC().Format(dateKeyLayout)]))
	}
	return rows
}

// fetchDailyPrices resolves one USD price per distinct trade date. The
// returned map is read-only for the rest of the run.
func (p *Pipeline) fetchDailyPrices(ctx context.Context, trades []domain.TradeRecord) map[string]decimal.NullDecimal {
	distinct := make(map[string]time.Time)
	for _, t := range trades {
		day := t.LedgerCloseTime.UTC()
		distinct[day.Format(dateKeyLayout)] = day.Truncate(24 * time.Hour)
	}

	keys := make([]string, 0, len(distinct))
	for k := range distinct {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p.logger.DebugContext(ctx, "fetching daily reference prices",
		slog.Int("dates", len(keys)),
	)

	prices := make(map[string]decimal.NullDecimal, len(keys))
	for _, k := range keys {
		price, err := p.prices.DailyPrice(ctx, distinct[k])
		if err != nil {
			p.logger.WarnContext(ctx, "daily price unavailable, trades on this date fall back to embedded price",
				slog.String("date", k),
				slog.String("error", err.Error()),
			)
			prices[k] = decimal.NullDecimal{}
			continue
		}
		prices[k] = decimal.NullDecimal{Decimal: decimal.NewFromFloat(price), Valid: true}
	}
	return prices
}

// buildRow applies the per-trade derivation rules.
func (p *Pipeline) buildRow(t domain.TradeRecord, dailyPrice decimal.NullDecimal) domain.TaxRow {
	row := domain.TaxRow{
		Date: t.LedgerCloseTime,
	}

	// The reportable side is the one the account gave up or received.
	if t.BaseIsSeller {
		row.Event = domain.EventSell
		row.Asset = t.BaseAssetCode
		row.Amount = t.BaseAmount
	} else {
		row.Event = domain.EventBuy
		row.Asset = t.CounterAssetCode
		row.Amount = t.CounterAmount
	}

	row.Value = tradeValue(t, row.Amount, dailyPrice)

	if id := operationID(t.OperationHref); id != "" {
		row.TransactionID = id
		row.Link = p.explorerBase + "/op/" + id
	}

	return row
}

// tradeValue computes the USD value: native-leg amount times the daily
// reference price when both exist, otherwise embedded price quotient times the
// reportable amount, otherwise absent.
func tradeValue(t domain.TradeRecord, amount, dailyPrice decimal.NullDecimal) decimal.NullDecimal {
	if native := t.NativeEquivalent(); native.Valid && dailyPrice.Valid {
		return decimal.NullDecimal{Decimal: native.Decimal.Mul(dailyPrice.Decimal), Valid: true}
	}
	if quotient := t.Price.Quotient(); quotient.Valid && amount.Valid {
		return decimal.NullDecimal{Decimal: quotient.Decimal.Mul(amount.Decimal), Valid: true}
	}
	return decimal.NullDecimal{}
}

// operationID extracts the numeric operation identifier from the trade's
// operation link, or "" when the link is missing or malformed.
func operationID(href string) string {
	m := operationIDPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}
