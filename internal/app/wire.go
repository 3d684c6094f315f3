package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantfm/stellartax/internal/blob/s3"
	"github.com/quantfm/stellartax/internal/cache/redis"
	"github.com/quantfm/stellartax/internal/config"
	"github.com/quantfm/stellartax/internal/domain"
	"github.com/quantfm/stellartax/internal/fetch"
	"github.com/quantfm/stellartax/internal/notify"
	"github.com/quantfm/stellartax/internal/platform/coingecko"
	"github.com/quantfm/stellartax/internal/platform/horizon"
	"github.com/quantfm/stellartax/internal/store/postgres"
	"github.com/quantfm/stellartax/internal/valuation"
)

// Dependencies bundles everything a run needs. RowStore and BlobWriter are nil
// when their config sections are absent; the core pipeline never depends on
// them.
type Dependencies struct {
	Fetcher  *fetch.Fetcher
	Pipeline *valuation.Pipeline

	RowStore   domain.TaxRowStore
	BlobWriter domain.BlobWriter
	Notifier   *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Ledger and price APIs ---
	horizonClient := horizon.NewClient(cfg.Horizon.BaseURL)
	geckoClient := coingecko.NewClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.CoinID)

	// --- Redis daily-price cache (optional) ---
	var prices valuation.PriceSource = geckoClient
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		prices = valuation.NewCachedPriceSource(
			redis.NewDailyPriceCache(redisClient), geckoClient, cfg.CoinGecko.CoinID, logger,
		)
	}

	deps.Fetcher = fetch.New(horizonClient, cfg.Horizon.PageLimit, cfg.Horizon.PageCap, logger)
	deps.Pipeline = valuation.New(prices, cfg.Report.ExplorerBaseURL, logger)

	// --- Postgres tax-row archive (optional) ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.RowStore = postgres.NewTaxRowStore(pgClient.Pool())
	}

	// --- S3 report upload (optional) ---
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
