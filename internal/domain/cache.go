package domain

import (
	"context"
	"time"
)

// PriceCache stores daily USD reference prices across runs. Historical daily
// closes are immutable, so entries never need invalidation. GetDailyPrice
// returns ErrNotFound on a cache miss.
type PriceCache interface {
	GetDailyPrice(ctx context.Context, coin string, day time.Time) (float64, error)
	SetDailyPrice(ctx context.Context, coin string, day time.Time, price float64) error
}
