package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Auth modes accepted by AUTH_MODE.
const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthJWT    = "jwt"
)

// Remote modes accepted by REMOTE_MODE.
const (
	RemoteHTTP      = "http"
	RemoteAnthropic = "anthropic"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE"` // rotated with lumberjack when set

	// HTTP API
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8080"`
	AuthMode       string `envconfig:"AUTH_MODE" default:"api-key"`
	APIKey         string `envconfig:"API_KEY"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"40"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`

	// Persistence
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, badger or memory
	StorePath   string `envconfig:"STORE_PATH" default:"intake.db"`
	// Conversations untouched this long are purged by retention (sqlite only). 0 disables.
	StoreRetention time.Duration `envconfig:"STORE_RETENTION" default:"0"`

	// Remote assistant
	RemoteMode      string        `envconfig:"REMOTE_MODE" default:"http"`
	RemoteBaseURL   string        `envconfig:"REMOTE_BASE_URL" default:"http://localhost:5000"`
	RemoteTimeout   time.Duration `envconfig:"REMOTE_TIMEOUT" default:"60s"`
	RemoteRetries   int           `envconfig:"REMOTE_RETRIES" default:"2"`
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `envconfig:"ANTHROPIC_MODEL"`

	// Conversation
	CatalogPath      string        `envconfig:"CATALOG_PATH"`
	HistoryLimit     int           `envconfig:"HISTORY_LIMIT" default:"30"`
	SessionCacheSize int           `envconfig:"SESSION_CACHE_SIZE" default:"512"`
	SessionIdleTTL   time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	// Slack (optional proposal notification)
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackChannel  string `envconfig:"SLACK_CHANNEL"`
}

// IsDevelopment reports whether ENVIRONMENT is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// SlackEnabled returns true if a bot token and channel are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// CORSOriginList returns the parsed list of allowed origins.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks that the selected modes have what they need.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthNone:
	case AuthAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.RemoteMode {
	case RemoteHTTP:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("REMOTE_MODE=http requires REMOTE_BASE_URL")
		}
	case RemoteAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("REMOTE_MODE=anthropic requires ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unknown REMOTE_MODE %q", c.RemoteMode)
	}

	switch c.StoreDriver {
	case "sqlite", "badger", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.RemoteRetries < 0 {
		return fmt.Errorf("REMOTE_RETRIES must be >= 0")
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be >= 1")
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	return &cfg, nil
}
