package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppPort string

	DBDriver    string
	DBDSN       string
	SeedCatalog bool

	BotToken       string
	ProviderToken  string
	Currency       string
	GatewayBaseURL string
	GatewayTimeout time.Duration
	InvoiceTitle   string

	AdminID        int64
	IdentitySecret string
	IdentityTTL    time.Duration
	WebhookSecret  string

	RabbitMQURL     string
	PaymentQueue    string
	EventsExchange  string
	ConsumerWorkers int

	StageTTL         time.Duration
	TombstoneTTL     time.Duration
	ReapInterval     time.Duration
	ReapBatch        int
	ReconcileTimeout time.Duration
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "data/orders.db")
	v.SetDefault("SEED_CATALOG", true)
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("PROVIDER_TOKEN", "")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("GATEWAY_BASE_URL", "https://api.telegram.org")
	v.SetDefault("GATEWAY_TIMEOUT", "10s")
	v.SetDefault("INVOICE_TITLE", "Mama Doner Order")
	v.SetDefault("ADMIN_ID", 0)
	v.SetDefault("IDENTITY_SECRET", "")
	v.SetDefault("IDENTITY_TTL", "24h")
	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("PAYMENT_QUEUE", "payment_confirmations")
	v.SetDefault("EVENTS_EXCHANGE", "orders")
	v.SetDefault("CONSUMER_WORKERS", 4)
	v.SetDefault("STAGE_TTL", "24h")
	v.SetDefault("TOMBSTONE_TTL", "720h")
	v.SetDefault("REAP_INTERVAL", "10m")
	v.SetDefault("REAP_BATCH", 100)
	v.SetDefault("RECONCILE_TIMEOUT", "5s")
}

// Load reads configuration from the environment and, if present, a config
// file named config.{yaml,json,toml} in . or ./config.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds and validates a Config from an initialized viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DBDriver:         v.GetString("DB_DRIVER"),
		DBDSN:            v.GetString("DB_DSN"),
		SeedCatalog:      v.GetBool("SEED_CATALOG"),
		BotToken:         v.GetString("BOT_TOKEN"),
		ProviderToken:    v.GetString("PROVIDER_TOKEN"),
		Currency:         v.GetString("CURRENCY"),
		GatewayBaseURL:   v.GetString("GATEWAY_BASE_URL"),
		GatewayTimeout:   v.GetDuration("GATEWAY_TIMEOUT"),
		InvoiceTitle:     v.GetString("INVOICE_TITLE"),
		AdminID:          v.GetInt64("ADMIN_ID"),
		IdentitySecret:   v.GetString("IDENTITY_SECRET"),
		IdentityTTL:      v.GetDuration("IDENTITY_TTL"),
		WebhookSecret:    v.GetString("WEBHOOK_SECRET"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		PaymentQueue:     v.GetString("PAYMENT_QUEUE"),
		EventsExchange:   v.GetString("EVENTS_EXCHANGE"),
		ConsumerWorkers:  v.GetInt("CONSUMER_WORKERS"),
		StageTTL:         v.GetDuration("STAGE_TTL"),
		TombstoneTTL:     v.GetDuration("TOMBSTONE_TTL"),
		ReapInterval:     v.GetDuration("REAP_INTERVAL"),
		ReapBatch:        v.GetInt("REAP_BATCH"),
		ReconcileTimeout: v.GetDuration("RECONCILE_TIMEOUT"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.Currency == "" {
		return errors.New("CURRENCY is required")
	}
	durations := map[string]time.Duration{
		"GATEWAY_TIMEOUT":   c.GatewayTimeout,
		"IDENTITY_TTL":      c.IdentityTTL,
		"STAGE_TTL":         c.StageTTL,
		"TOMBSTONE_TTL":     c.TombstoneTTL,
		"REAP_INTERVAL":     c.ReapInterval,
		"RECONCILE_TIMEOUT": c.ReconcileTimeout,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.ConsumerWorkers < 1 {
		return fmt.Errorf("CONSUMER_WORKERS must be at least 1, got %d", c.ConsumerWorkers)
	}
	if c.ReapBatch < 1 {
		return fmt.Errorf("REAP_BATCH must be at least 1, got %d", c.ReapBatch)
	}
	return nil
}
