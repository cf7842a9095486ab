package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/viberbot/pkg/clients/viber"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Viber     ViberConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	AI        AIConfig
	MongoDB   MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// ViberConfig contains the bot identity and the Viber bot API options.
type ViberConfig struct {
	AuthToken          string
	BotName            string
	BotAvatar          string
	BaseURL            string
	WebhookURL         string
	WebhookEvents      []string
	RequestTimeout     time.Duration
	BroadcastMaxLength int
	AdminID            string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// AIConfig holds settings for LLM providers.
type AIConfig struct {
	AnthropicKey string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("VIBER_REQUEST_TIMEOUT", viber.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid VIBER_REQUEST_TIMEOUT: %w", err)
	}

	broadcastMax, err := strconv.Atoi(getenvWithDefault("VIBER_BROADCAST_MAX_LENGTH", strconv.Itoa(viber.DefaultBroadcastMaxSize)))
	if err != nil {
		return nil, fmt.Errorf("invalid VIBER_BROADCAST_MAX_LENGTH: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Viber: ViberConfig{
			AuthToken:          os.Getenv("VIBER_AUTH_TOKEN"),
			BotName:            os.Getenv("VIBER_BOT_NAME"),
			BotAvatar:          os.Getenv("VIBER_BOT_AVATAR"),
			BaseURL:            getenvWithDefault("VIBER_BASE_URL", viber.DefaultBaseURL),
			WebhookURL:         os.Getenv("VIBER_WEBHOOK_URL"),
			WebhookEvents:      splitList(os.Getenv("VIBER_WEBHOOK_EVENTS")),
			RequestTimeout:     timeout,
			BroadcastMaxLength: broadcastMax,
			AdminID:            os.Getenv("VIBER_ADMIN_ID"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 9 * * 1"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
		AI: AIConfig{
			AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "viberbot"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Viber.AuthToken == "":
		return errors.New("VIBER_AUTH_TOKEN must be provided")
	case c.Viber.BotName == "":
		return errors.New("VIBER_BOT_NAME must be provided")
	case c.Viber.BaseURL == "":
		return errors.New("VIBER_BASE_URL must not be empty")
	}

	if c.Viber.RequestTimeout <= 0 {
		return errors.New("VIBER_REQUEST_TIMEOUT must be positive")
	}

	if c.Viber.BroadcastMaxLength <= 0 {
		return errors.New("VIBER_BROADCAST_MAX_LENGTH must be positive")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
