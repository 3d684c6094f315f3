package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STELLARTAX_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STELLARTAX_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject the account, year, and secrets without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Report ──
	setStr(&cfg.Report.AccountID, "STELLARTAX_REPORT_ACCOUNT_ID")
	setInt(&cfg.Report.Year, "STELLARTAX_REPORT_YEAR")
	setStr(&cfg.Report.OutputFile, "STELLARTAX_REPORT_OUTPUT_FILE")
	setStr(&cfg.Report.ExplorerBaseURL, "STELLARTAX_REPORT_EXPLORER_BASE_URL")

	// ── Horizon ──
	setStr(&cfg.Horizon.BaseURL, "STELLARTAX_HORIZON_BASE_URL")
	setInt(&cfg.Horizon.PageLimit, "STELLARTAX_HORIZON_PAGE_LIMIT")
	setInt(&cfg.Horizon.PageCap, "STELLARTAX_HORIZON_PAGE_CAP")

	// ── CoinGecko ──
	setStr(&cfg.CoinGecko.BaseURL, "STELLARTAX_COINGECKO_BASE_URL")
	setStr(&cfg.CoinGecko.CoinID, "STELLARTAX_COINGECKO_COIN_ID")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STELLARTAX_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STELLARTAX_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STELLARTAX_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STELLARTAX_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STELLARTAX_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STELLARTAX_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STELLARTAX_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STELLARTAX_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STELLARTAX_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STELLARTAX_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STELLARTAX_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STELLARTAX_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STELLARTAX_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STELLARTAX_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STELLARTAX_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STELLARTAX_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "STELLARTAX_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STELLARTAX_S3_REGION")
	setStr(&cfg.S3.Bucket, "STELLARTAX_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STELLARTAX_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STELLARTAX_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STELLARTAX_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STELLARTAX_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STELLARTAX_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STELLARTAX_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STELLARTAX_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "STELLARTAX_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
