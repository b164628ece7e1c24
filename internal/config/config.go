// Package config handles application configuration from environment variables
// and the YAML sources file.
package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultUserAgent is sent with every outgoing fetch. Several news sites
// reject non-browser agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Config holds the process configuration.
type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN, required"`
	DatabaseDriver   string `env:"DATABASE_DRIVER, default=sqlite"`
	DatabasePath     string `env:"DATABASE_PATH, default=./data/bot.db"`
	LogLevel         string `env:"LOG_LEVEL, default=info"`
	LogFormat        string `env:"LOG_FORMAT, default=text"`
	AllowedUsersRaw  string `env:"ALLOWED_USERS"`
	SourcesFile      string `env:"SOURCES_FILE, default=./configs/sources.yaml"`

	PollInterval        time.Duration `env:"POLL_INTERVAL, default=30m"`
	SourceTimeout       time.Duration `env:"SOURCE_TIMEOUT, default=45s"`
	SourceWorkers       int           `env:"SOURCE_WORKERS, default=4"`
	MaxConcurrentSends  int           `env:"MAX_CONCURRENT_SENDS, default=8"`
	SendRate            float64       `env:"SEND_RATE, default=20"`
	MaxItemsOnSubscribe int           `env:"MAX_ITEMS_ON_SUBSCRIBE, default=5"`

	TranslateTarget string `env:"TRANSLATE_TARGET, default=ru"`
	TranslateAll    bool   `env:"TRANSLATE_ALL, default=false"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`

	UserAgent string `env:"USER_AGENT"`
	HTTPAddr  string `env:"HTTP_ADDR"`

	AllowedUsers []int64
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration using the given lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	users, err := parseUserIDs(cfg.AllowedUsersRaw)
	if err != nil {
		return nil, err
	}
	cfg.AllowedUsers = users

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be positive")
	}
	if c.SourceWorkers < 1 {
		return fmt.Errorf("SOURCE_WORKERS must be at least 1")
	}
	if c.MaxConcurrentSends < 1 {
		return fmt.Errorf("MAX_CONCURRENT_SENDS must be at least 1")
	}
	if c.SendRate <= 0 {
		return fmt.Errorf("SEND_RATE must be positive")
	}
	if c.MaxItemsOnSubscribe < 0 {
		return fmt.Errorf("MAX_ITEMS_ON_SUBSCRIBE must not be negative")
	}
	return nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
