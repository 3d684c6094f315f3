// Package config defines the top-level configuration for the tax exporter and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STELLARTAX_* environment variables.
type Config struct {
	Report    ReportConfig    `toml:"report"`
	Horizon   HorizonConfig   `toml:"horizon"`
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// ReportConfig identifies the account and tax window and shapes the output.
type ReportConfig struct {
	AccountID       string `toml:"account_id"`
	Year            int    `toml:"year"`
	OutputFile      string `toml:"output_file"`
	ExplorerBaseURL string `toml:"explorer_base_url"`
}

// HorizonConfig holds the ledger API endpoint and pagination bounds.
type HorizonConfig struct {
	BaseURL   string `toml:"base_url"`
	PageLimit int    `toml:"page_limit"`
	PageCap   int    `toml:"page_cap"`
}

// CoinGeckoConfig holds the price API endpoint and the coin identifier of the
// ledger's native asset.
type CoinGeckoConfig struct {
	BaseURL string `toml:"base_url"`
	CoinID  string `toml:"coin_id"`
}

// PostgresConfig holds connection parameters for the optional tax-row archive.
// The archive is enabled when a DSN or host is set.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether the archive store should be wired.
func (c PostgresConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != "" || c.Host != ""
}

// RedisConfig holds connection parameters for the optional daily-price cache.
// The cache is enabled when an address is set.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// Enabled reports whether the price cache should be wired.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// S3Config holds parameters for the optional report upload to S3-compatible
// object storage. The upload is enabled when a bucket is set.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Enabled reports whether the report upload should be wired.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// NotifyConfig holds notification channel credentials and the event filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Defaults returns the built-in configuration. Endpoints and pagination bounds
// default to the Stellar public network and the feed's maximum page size.
func Defaults() Config {
	return Config{
		Report: ReportConfig{
			OutputFile:      "stellar_trades_tax.csv",
			ExplorerBaseURL: "https://stellar.expert/explorer/public",
		},
		Horizon: HorizonConfig{
			BaseURL:   "https://horizon.stellar.org",
			PageLimit: 200,
			PageCap:   200,
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			CoinID:  "stellar",
		},
		Postgres: PostgresConfig{
			SSLMode:      "require",
			PoolMaxConns: 4,
			PoolMinConns: 0,
		},
		Redis: RedisConfig{
			PoolSize:   4,
			MaxRetries: 3,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration and returns an error listing every problem
// found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Report
	if c.Report.AccountID == "" {
		errs = append(errs, "report: account_id must not be empty")
	}
	if c.Report.Year < 2015 || c.Report.Year > time.Now().Year()+1 {
		errs = append(errs, fmt.Sprintf("report: year %d outside plausible range", c.Report.Year))
	}
	if c.Report.OutputFile == "" {
		errs = append(errs, "report: output_file must not be empty")
	}
	if c.Report.ExplorerBaseURL == "" {
		errs = append(errs, "report: explorer_base_url must not be empty")
	}

	// Horizon
	if c.Horizon.BaseURL == "" {
		errs = append(errs, "horizon: base_url must not be empty")
	}
	if c.Horizon.PageLimit < 1 || c.Horizon.PageLimit > 200 {
		errs = append(errs, fmt.Sprintf("horizon: page_limit must be 1-200, got %d", c.Horizon.PageLimit))
	}
	if c.Horizon.PageCap < 1 {
		errs = append(errs, "horizon: page_cap must be >= 1")
	}

	// CoinGecko
	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, "coingecko: base_url must not be empty")
	}
	if c.CoinGecko.CoinID == "" {
		errs = append(errs, "coingecko: coin_id must not be empty")
	}

	// Postgres (only when enabled)
	if c.Postgres.Enabled() {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty (or set postgres.dsn)")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must be 0..pool_max_conns")
		}
	}

	// Redis (only when enabled)
	if c.Redis.Enabled() && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 (only when enabled)
	if c.S3.Enabled() && c.S3.Region == "" {
		errs = append(errs, "s3: region must not be empty")
	}

	// Notify: Telegram needs both halves.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
