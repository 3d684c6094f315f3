// Package fetch implements the paginated backward walk over an account's trade
// feed, bounded by a calendar-year tax window.
package fetch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/quantfm/stellartax/internal/domain"
)

// TradeSource is the slice of the ledger API the fetcher consumes.
type TradeSource interface {
	// AccountTrades returns one page of the account's trade feed, newest
	// first. cursor is the previous page's next cursor, or "" for the first
	// page.
	AccountTrades(ctx context.Context, accountID, cursor string, limit int) (domain.TradesPage, error)
	// LedgerClosedAt returns the close time of a ledger sequence. Diagnostic
	// only; failures are ignored.
	LedgerClosedAt(ctx context.Context, sequence string) (time.Time, error)
}

// Fetcher walks the trade feed backward in time and accumulates the records
// inside the tax window. The feed is time-ordered descending, so the first
// record outside the window ends the walk: everything after it is older still.
type Fetcher struct {
	source    TradeSource
	pageLimit int
	pageCap   int
	logger    *slog.Logger
}

// New creates a Fetcher requesting pages of pageLimit records and giving up
// after pageCap pages regardless of feed behavior.
func New(source TradeSource, pageLimit, pageCap int, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		source:    source,
		pageLimit: pageLimit,
		pageCap:   pageCap,
		logger:    logger.With(slog.String("component", "fetcher")),
	}
}

// FetchTrades returns the account's trades inside window, newest first.
//
// Degradations never surface as errors: a transport failure, a stalled cursor,
// or page-cap exhaustion all end the walk and return whatever accumulated so
// far. Callers must treat an empty or short result as "no data found".
//
// The per-page scan stops outright at the first out-of-window record rather
// than filtering the rest of the page; on a feed that is not strictly
// time-ordered within a page this drops later in-window records, matching the
// behavior of the feed's documented ordering guarantee.
func (f *Fetcher) FetchTrades(ctx context.Context, accountID string, window domain.TaxWindow) []domain.TradeRecord {
	var trades []domain.TradeRecord

	cursor := ""
	lastCursor := ""
	for page := 0; page < f.pageCap; page++ {
		res, err := f.source.AccountTrades(ctx, accountID, cursor, f.pageLimit)
		if err != nil {
			f.logger.WarnContext(ctx, "trade page fetch failed, keeping partial result",
				slog.Int("page", page+1),
				slog.Int("accumulated", len(trades)),
				slog.String("error", err.Error()),
			)
			return trades
		}

		f.logPage(ctx, page, res)

		for _, rec := range res.Records {
			if !window.Contains(rec.LedgerCloseTime) {
				// First record outside the window: the rest of the feed is older.
				return trades
			}
			trades = append(trades, rec)
		}

		if res.NextCursor == lastCursor {
			f.logger.DebugContext(ctx, "pagination cursor unchanged, stopping",
				slog.String("cursor", res.NextCursor),
				slog.Int("accumulated", len(trades)),
			)
			return trades
		}
		lastCursor = res.NextCursor
		cursor = res.NextCursor
	}

	f.logger.WarnContext(ctx, "page cap reached",
		slog.Int("page_cap", f.pageCap),
		slog.Int("accumulated", len(trades)),
	)
	return trades
}

// logPage emits the per-page diagnostic line. For an empty page it resolves
// the approximate ledger close time from the next cursor, best effort.
func (f *Fetcher) logPage(ctx context.Context, page int, res domain.TradesPage) {
	if len(res.Records) > 0 {
		oldest := res.Records[0].LedgerCloseTime
		newest := oldest
		for _, rec := range res.Records[1:] {
			if rec.LedgerCloseTime.Before(oldest) {
				oldest = rec.LedgerCloseTime
			}
			if rec.LedgerCloseTime.After(newest) {
				newest = rec.LedgerCloseTime
			}
		}
		f.logger.DebugContext(ctx, "fetched trade page",
			slog.Int("page", page+1),
			slog.Int("records", len(res.Records)),
			slog.Time("oldest", oldest),
			slog.Time("newest", newest),
		)
		return
	}

	seq := ledgerSequence(res.NextCursor)
	attrs := []any{
		slog.Int("page", page+1),
		slog.String("approx_ledger", seq),
	}
	if seq != "" {
		if closedAt, err := f.source.LedgerClosedAt(ctx, seq); err == nil {
			attrs = append(attrs, slog.Time("approx_closed_at", closedAt))
		}
	}
	f.logger.DebugContext(ctx, "trade page empty", attrs...)
}

// ledgerSequence extracts the ledger sequence prefix from a trade paging
// token. Trade cursors are "{ledger}-{...}" composites.
func ledgerSequence(cursor string) string {
	if cursor == "" {
		return ""
	}
	seq, _, _ := strings.Cut(cursor, "-")
	return seq
}
