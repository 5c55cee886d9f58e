package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	Databases    DatabaseConfig
	FetchTimeout time.Duration

	Backend  BackendConfig
	Telegram TelegramConfig

	AdminToken    string
	EncryptionKey string
}

// DatabaseConfig holds one connection string per source. Only PRIMARY is
// required; an empty URL makes that source unavailable.
type DatabaseConfig struct {
	PrimaryURL string
	BoltURL    string
	OldURL     string
	MaxConns   int32
}

// BackendConfig points at the REST service that sends emails.
type BackendConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// TelegramConfig is the admin alert channel. Both fields or neither.
type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

// Enabled reports whether admin alerts are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != ""
}

// EncryptionKeyBytes decodes the hex key, or returns nil when sealing is off.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	return hex.DecodeString(c.EncryptionKey)
}

var bindings = map[string]string{
	"app.env":              "APP_ENV",
	"log.level":            "LOG_LEVEL",
	"http.addr":            "HTTP_ADDR",
	"db.primary_url":       "PRIMARY_DATABASE_URL",
	"db.bolt_url":          "BOLT_DATABASE_URL",
	"db.old_url":           "OLD_DATABASE_URL",
	"db.max_conns":         "DB_MAX_CONNS",
	"source.fetch_timeout": "SOURCE_FETCH_TIMEOUT",
	"backend.url":          "BACKEND_URL",
	"backend.api_key":      "BACKEND_API_KEY",
	"backend.timeout":      "BACKEND_TIMEOUT",
	"telegram.bot_token":   "TELEGRAM_BOT_TOKEN",
	"telegram.admin_chat":  "TELEGRAM_ADMIN_CHAT_ID",
	"admin.token":          "ADMIN_API_KEY",
	"encryption.key":       "ENCRYPTION_KEY",
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {

	// 1. Load .env file into the process environment
	if err := godotenv.Load(); err != nil {
		// A missing file is fine in prod; anything else is not.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// 2. Explicitly bind viper keys to env var names
	v := viper.New()
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	// 3. Set defaults
	v.SetDefault("app.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.max_conns", 10)
	v.SetDefault("source.fetch_timeout", "8s")
	v.SetDefault("backend.timeout", "10s")

	// 4. Get values from viper
	cfg := Config{
		AppEnv:   v.GetString("app.env"),
		LogLevel: v.GetString("log.level"),
		HTTPAddr: v.GetString("http.addr"),
		Databases: DatabaseConfig{
			PrimaryURL: v.GetString("db.primary_url"),
			BoltURL:    v.GetString("db.bolt_url"),
			OldURL:     v.GetString("db.old_url"),
			MaxConns:   v.GetInt32("db.max_conns"),
		},
		FetchTimeout: v.GetDuration("source.fetch_timeout"),
		Backend: BackendConfig{
			URL:     v.GetString("backend.url"),
			APIKey:  v.GetString("backend.api_key"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Telegram: TelegramConfig{
			BotToken:    v.GetString("telegram.bot_token"),
			AdminChatID: v.GetInt64("telegram.admin_chat"),
		},
		AdminToken:    v.GetString("admin.token"),
		EncryptionKey: v.GetString("encryption.key"),
	}

	// 5. Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Databases.PrimaryURL == "" {
		return errors.New("PRIMARY_DATABASE_URL is not set in environment or .env file")
	}
	if c.Databases.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Databases.MaxConns)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("SOURCE_FETCH_TIMEOUT must be a positive duration, got %s", c.FetchTimeout)
	}
	if c.Backend.URL != "" && c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be a positive duration, got %s", c.Backend.Timeout)
	}
	if c.Telegram.BotToken != "" && c.Telegram.AdminChatID == 0 {
		return errors.New("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if c.Telegram.BotToken == "" && c.Telegram.AdminChatID != 0 {
		return errors.New("TELEGRAM_BOT_TOKEN is required when TELEGRAM_ADMIN_CHAT_ID is set")
	}
	if c.EncryptionKey != "" {
		if len(c.EncryptionKey) != 64 {
			return fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(c.EncryptionKey))
		}
		if _, err := hex.DecodeString(c.EncryptionKey); err != nil {
			return fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
		}
	}
	return nil
}
