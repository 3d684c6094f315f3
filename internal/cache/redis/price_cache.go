package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfm/stellartax/internal/domain"
)

// DailyPriceCache implements domain.PriceCache using plain Redis string keys.
// A close for day D of coin C lives at "daily_price:{C}:{YYYY-MM-DD}". Entries
// carry no TTL: historical daily closes are immutable.
type DailyPriceCache struct {
	rdb *redis.Client
}

// NewDailyPriceCache creates a DailyPriceCache backed by the given Client.
func NewDailyPriceCache(c *Client) *DailyPriceCache {
	return &DailyPriceCache{rdb: c.Underlying()}
}

func dailyPriceKey(coin string, day time.Time) string {
	return "daily_price:" + coin + ":" + day.UTC().Format("2006-01-02")
}

// GetDailyPrice retrieves the cached USD close for the given coin and day. It
// returns domain.ErrNotFound when the key does not exist.
func (pc *DailyPriceCache) GetDailyPrice(ctx context.Context, coin string, day time.Time) (float64, error) {
	key := dailyPriceKey(coin, day)
	val, err := pc.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get daily price %s: %w", key, err)
	}

	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse daily price %s: %w", key, err)
	}
	return price, nil
}

// SetDailyPrice stores the USD close for the given coin and day.
func (pc *DailyPriceCache) SetDailyPrice(ctx context.Context, coin string, day time.Time, price float64) error {
	key := dailyPriceKey(coin, day)
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := pc.rdb.Set(ctx, key, val, 0).Err(); err != nil {
		return fmt.Errorf("redis: set daily price %s: %w", key, err)
	}
	return nil
}
