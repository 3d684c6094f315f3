package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfm/stellartax/internal/domain"
)

var window2024 = domain.NewYearWindow(2024)

func rec(ts time.Time) domain.TradeRecord {
	return domain.TradeRecord{LedgerCloseTime: ts}
}

func inWindow(month, day int) domain.TradeRecord {
	return rec(time.Date(2024, time.Month(month), day, 12, 0, 0, 0, time.UTC))
}

// fakeSource scripts trade pages per call index.
type fakeSource struct {
	pageFn      func(call int) (domain.TradesPage, error)
	calls       int
	ledgerCalls []string
	ledgerErr   error
}

func (f *fakeSource) AccountTrades(ctx context.Context, accountID, cursor string, limit int) (domain.TradesPage, error) {
	page, err := f.pageFn(f.calls)
	f.calls++
	return page, err
}

func (f *fakeSource) LedgerClosedAt(ctx context.Context, sequence string) (time.Time, error) {
	f.ledgerCalls = append(f.ledgerCalls, sequence)
	if f.ledgerErr != nil {
		return time.Time{}, f.ledgerErr
	}
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil
}

func newTestFetcher(src TradeSource) *Fetcher {
	return New(src, 200, 200, slog.Default())
}

func TestFetchTrades_StopsAtFirstOutOfWindowRecord(t *testing.T) {
	src := &fakeSource{
		pageFn: func(call int) (domain.TradesPage, error) {
			return domain.TradesPage{
				Records: []domain.TradeRecord{
					inWindow(6, 2),
					inWindow(6, 1),
					rec(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)),
					inWindow(5, 30), // unreachable: scan stops at the first miss
				},
				NextCursor: "next-1",
			}, nil
		},
	}

	trades := newTestFetcher(src).FetchTrades(context.Background(), "GACC", window2024)

	require.Len(t, trades, 2)
	assert.Equal(t, inWindow(6, 2), trades[0])
	assert.Equal(t, inWindow(6, 1), trades[1])
	assert.Equal(t, 1, src.calls, "no further pages after the boundary")
}

func TestFetchTrades_NewerThanWindowStopsImmediately(t *testing.T) {
	// A trade one second after the end of the year is outside the window even
	// though the walk has not yet reached the year itself.
	src := &fakeSource{
		pageFn: func(call int) (domain.TradesPage, error) {
			return domain.TradesPage{
				Records: []domain.TradeRecord{
					rec(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
					inWindow(12, 31),
				},
				NextCursor: "next-1",
			}, nil
		},
	}

	trades := newTestFetcher(src).FetchTrades(context.Background(), "GACC", window2024)

	assert.Empty(t, trades)
	assert.Equal(t, 1, src.calls)
}

func TestFetchTrades_CursorStallHalts(t *testing.T) {
	src := &fakeSource{
		pageFn: func(call int) (domain.TradesPage, error) {
			switch call {
			case 0:
				return domain.TradesPage{
					Records:    []domain.TradeRecord{inWindow(6, 2)},
					NextCursor: "stuck",
				}, nil
			default:
				return domain.TradesPage{
					Records:    []domain.TradeRecord{inWindow(6, 1)},
					NextCursor: "stuck",
				}, nil
			}
		},
	}

	trades := newTestFetcher(src).FetchTrades(context.Background(), "GACC", window2024)

	assert.Len(t, trades, 2)
	assert.Equal(t, 2, src.calls, "stalled cursor must not be refetched")
}

func TestFetchTrades_PageCapBoundsWalk(t *testing.T) {
	src := &fakeSource{
		pageFn: func(call int) (domain.TradesPage, error) {
			return domain.TradesPage{
				Records:    []domain.TradeRecord{inWindow(6, 1)},
				NextCursor: fmt.Sprintf("cursor-%d", call),
			}, nil
		},
	}

	f := New(src, 200, 5, slog.Default())
	trades := f.FetchTrades(context.Background(), "GACC", window2024)

	assert.Len(t, trades, 5)
	assert.Equal(t, 5, src.calls)
}

func TestFetchTrades_EmptyPageContinues(t *testing.T) {
	// First page has no trades (near the head of the ledger); pagination must
	// continue, and the failing diagnostic ledger lookup must not matter.
	src := &fakeSource{
		ledgerErr: errors.New("ledger endpoint down"),
		pageFn: func(call int) (domain.TradesPage, error) {
			switch call {
			case 0:
				return domain.TradesPage{NextCursor: "123456-1"}, nil
			case 1:
				return domain.TradesPage{
					Records:    []domain.TradeRecord{inWindow(6, 2), inWindow(6, 1)},
					NextCursor: "789-0",
				}, nil
			default:
				return domain.TradesPage{NextCursor: "789-0"}, nil
			}
		},
	}

	trades := newTestFetcher(src).FetchTrades(context.Background(), "GACC", window2024)

	assert.Len(t, trades, 2)
	require.NotEmpty(t, src.ledgerCalls)
	assert.Equal(t, "123456", src.ledgerCalls[0])
}

func TestFetchTrades_TransportFailureReturnsPartial(t *testing.T) {
	src := &fakeSource{
		pageFn: func(call int) (domain.TradesPage, error) {
			if call == 0 {
				return domain.TradesPage{
					Records:    []domain.TradeRecord{inWindow(6, 2), inWindow(6, 1)},
					NextCursor: "next-1",
				}, nil
			}
			return domain.TradesPage{}, errors.New("HTTP 503: under maintenance")
		},
	}

	trades := newTestFetcher(src).FetchTrades(context.Background(), "GACC", window2024)

	assert.Len(t, trades, 2)
	assert.Equal(t, 2, src.calls)
}

func TestLedgerSequence(t *testing.T) {
	assert.Equal(t, "123456", ledgerSequence("123456-7-1"))
	assert.Equal(t, "42", ledgerSequence("42"))
	assert.Equal(t, "", ledgerSequence(""))
}
