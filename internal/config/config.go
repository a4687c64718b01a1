// Package config defines the top-level configuration for the stock league
// backend. Values come from a YAML file, overridden by STOCKLEAGUE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Mongo    MongoConfig  `yaml:"mongo"`
	Redis    RedisConfig  `yaml:"redis"`
	Quotes   QuotesConfig `yaml:"quotes"`
	Game     GameConfig   `yaml:"game"`
	LogLevel string       `yaml:"log_level"`
}

// ServerConfig holds the HTTP server parameters.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	AdminToken  string   `yaml:"admin_token"`
}

// MongoConfig holds the document store connection parameters.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig holds the price cache connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// QuotesConfig holds the quote source and refresh parameters. Intervals are
// expressed in seconds.
type QuotesConfig struct {
	BaseURL                string `yaml:"base_url"`
	RequestTimeoutSec      int    `yaml:"request_timeout_sec"`
	RefreshIntervalSec     int    `yaml:"refresh_interval_sec"`
	SnapshotMinIntervalSec int    `yaml:"snapshot_min_interval_sec"`
}

// RequestTimeout returns the per-request quote timeout.
func (q QuotesConfig) RequestTimeout() time.Duration {
	return time.Duration(q.RequestTimeoutSec) * time.Second
}

// RefreshInterval returns the quote polling interval.
func (q QuotesConfig) RefreshInterval() time.Duration {
	return time.Duration(q.RefreshIntervalSec) * time.Second
}

// SnapshotMinInterval returns the snapshot debounce window.
func (q QuotesConfig) SnapshotMinInterval() time.Duration {
	return time.Duration(q.SnapshotMinIntervalSec) * time.Second
}

// GameConfig holds the game rules. Starting cash is kept as a string so the
// YAML value round-trips into decimal without float noise.
type GameConfig struct {
	StartingCash   string   `yaml:"starting_cash"`
	DefaultPlayers []string `yaml:"default_players"`
}

// StartingCashDecimal parses the configured starting cash amount.
func (g GameConfig) StartingCashDecimal() decimal.Decimal {
	cash, err := decimal.NewFromString(g.StartingCash)
	if err != nil {
		return decimal.NewFromInt(50)
	}
	return cash
}

// Defaults returns the built-in configuration, suitable for local runs
// without a config file.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "stockleague",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Quotes: QuotesConfig{
			BaseURL:                "https://query1.finance.yahoo.com",
			RequestTimeoutSec:      10,
			RefreshIntervalSec:     60,
			SnapshotMinIntervalSec: 300,
		},
		Game: GameConfig{
			StartingCash:   "50.00",
			DefaultPlayers: []string{"Langdon", "Andy", "J'aime"},
		},
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file at path (skipped when path is empty),
// merges it on top of the built-in defaults, applies STOCKLEAGUE_*
// environment variable overrides, and returns the final Config.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Mongo.URI == "" {
		return errors.New("mongo uri cannot be empty")
	}
	if c.Mongo.Database == "" {
		return errors.New("mongo database cannot be empty")
	}
	if cash, err := decimal.NewFromString(c.Game.StartingCash); err != nil {
		return fmt.Errorf("invalid starting cash %q: %w", c.Game.StartingCash, err)
	} else if cash.IsNegative() {
		return errors.New("starting cash cannot be negative")
	}
	if c.Quotes.RefreshIntervalSec <= 0 {
		return errors.New("quote refresh interval must be positive")
	}
	if c.Quotes.RequestTimeoutSec <= 0 {
		return errors.New("quote request timeout must be positive")
	}
	return nil
}

// applyEnvOverrides reads well-known STOCKLEAGUE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the YAML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Host, "STOCKLEAGUE_SERVER_HOST")
	setInt(&cfg.Server.Port, "STOCKLEAGUE_SERVER_PORT")
	setStr(&cfg.Server.AdminToken, "STOCKLEAGUE_ADMIN_TOKEN")

	setStr(&cfg.Mongo.URI, "STOCKLEAGUE_MONGO_URI")
	setStr(&cfg.Mongo.Database, "STOCKLEAGUE_MONGO_DATABASE")

	setStr(&cfg.Redis.Addr, "STOCKLEAGUE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STOCKLEAGUE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STOCKLEAGUE_REDIS_DB")

	setStr(&cfg.Quotes.BaseURL, "STOCKLEAGUE_QUOTES_BASE_URL")
	setInt(&cfg.Quotes.RefreshIntervalSec, "STOCKLEAGUE_QUOTES_REFRESH_INTERVAL_SEC")
	setInt(&cfg.Quotes.RequestTimeoutSec, "STOCKLEAGUE_QUOTES_REQUEST_TIMEOUT_SEC")
	setInt(&cfg.Quotes.SnapshotMinIntervalSec, "STOCKLEAGUE_QUOTES_SNAPSHOT_MIN_INTERVAL_SEC")

	setStr(&cfg.LogLevel, "STOCKLEAGUE_LOG_LEVEL")

	setStr(&cfg.Game.StartingCash, "STOCKLEAGUE_GAME_STARTING_CASH")
}

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

