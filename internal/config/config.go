package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/web3guy0/gemini/feeds"
	"github.com/web3guy0/gemini/rest"
)

// Config holds all configuration for geminictl
type Config struct {
	// Gemini API
	APIKey     string
	APISecret  string
	Sandbox    bool
	BaseURL    string
	WSURL      string
	APIVersion string
	Timeout    time.Duration

	// Market data
	ReconnectDelay time.Duration

	// Mode
	Debug bool

	// Telegram
	TelegramToken    string
	TelegramChatID   int64
	TelegramEndpoint string

	// Database
	DatabasePath string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Gemini API
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		APISecret:  os.Getenv("GEMINI_API_SECRET"),
		Sandbox:    getEnvBool("GEMINI_SANDBOX", false),
		BaseURL:    os.Getenv("GEMINI_BASE_URL"),
		WSURL:      os.Getenv("GEMINI_WS_URL"),
		APIVersion: getEnv("GEMINI_API_VERSION", rest.DefaultVersion),
		Timeout:    getEnvDuration("GEMINI_TIMEOUT", rest.DefaultTimeout),

		ReconnectDelay: getEnvDuration("GEMINI_WS_RECONNECT_DELAY", feeds.DefaultReconnectDelay),

		Debug: getEnvBool("DEBUG", false),

		// Telegram
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramEndpoint: getEnv("TELEGRAM_API_ENDPOINT", tgbotapi.APIEndpoint),

		// Database
		DatabasePath: getEnv("DATABASE_PATH", "data/gemini.db"),
	}

	// Parse chat ID
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	// A half-configured key pair is almost always a typo in .env
	if (cfg.APIKey == "") != (cfg.APISecret == "") {
		return nil, fmt.Errorf("GEMINI_API_KEY and GEMINI_API_SECRET must be set together")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("GEMINI_TIMEOUT must be positive")
	}

	return cfg, nil
}

// RESTOptions builds the agent options for this configuration.
func (c *Config) RESTOptions() rest.Options {
	return rest.Options{
		Key:     c.APIKey,
		Secret:  c.APISecret,
		Sandbox: c.Sandbox,
		Config: rest.RequestConfig{
			BaseURL: c.BaseURL,
			Version: c.APIVersion,
			Timeout: c.Timeout,
		},
	}
}

// MarketDataURL is the websocket root for the configured environment.
func (c *Config) MarketDataURL() string {
	switch {
	case c.WSURL != "":
		return c.WSURL
	case c.Sandbox:
		return feeds.SandboxMarketDataURL
	default:
		return feeds.MarketDataURL
	}
}

// FeedOptions configures market data feeds for this environment.
func (c *Config) FeedOptions() []feeds.Option {
	return []feeds.Option{
		feeds.WithURL(c.MarketDataURL()),
		feeds.WithReconnectDelay(c.ReconnectDelay),
	}
}

// TelegramEnabled reports whether notifications can be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
