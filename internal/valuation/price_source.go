package valuation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quantfm/stellartax/internal/domain"
)

// CachedPriceSource is a read-through decorator over a PriceSource. Historical
// daily closes never change, so cached entries are trusted indefinitely. Cache
// failures degrade to the origin; origin results are written back best effort.
type CachedPriceSource struct {
	cache  domain.PriceCache
	origin PriceSource
	coin   string
	logger *slog.Logger
}

// NewCachedPriceSource wraps origin with cache. coin namespaces the cache keys
// so multiple deployments can share one cache instance.
func NewCachedPriceSource(cache domain.PriceCache, origin PriceSource, coin string, logger *slog.Logger) *CachedPriceSource {
	return &CachedPriceSource{
		cache:  cache,
		origin: origin,
		coin:   coin,
		logger: logger.With(slog.String("component", "price_cache")),
	}
}

// DailyPrice implements PriceSource.
func (s *CachedPriceSource) DailyPrice(ctx context.Context, day time.Time) (float64, error) {
	price, err := s.cache.GetDailyPrice(ctx, s.coin, day)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "price cache read failed",
			slog.Time("day", day),
			slog.String("error", err.Error()),
		)
	}

	price, err = s.origin.DailyPrice(ctx, day)
	if err != nil {
		return 0, err
	}

	if err := s.cache.SetDailyPrice(ctx, s.coin, day, price); err != nil {
		s.logger.WarnContext(ctx, "price cache write failed",
			slog.Time("day", day),
			slog.String("error", err.Error()),
		)
	}
	return price, nil
}
