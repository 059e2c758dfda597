// Package config holds the application configuration: the reusable bot core
// settings plus the rental-specific sections (database, payment providers,
// contracts, webhook server).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/povilas1565/CarRentalBot/core/config"
	coredatabase "github.com/povilas1565/CarRentalBot/core/database"
)

// FreekassaConfig configures the link-based provider. SecretWord1 signs
// outgoing payment forms, SecretWord2 verifies inbound notifications.
type FreekassaConfig struct {
	MerchantID  string `yaml:"merchant_id" envconfig:"FREEKASSA_MERCHANT_ID"`
	SecretWord1 string `yaml:"secret_word_1" envconfig:"FREEKASSA_SECRET_1"`
	SecretWord2 string `yaml:"secret_word_2" envconfig:"FREEKASSA_SECRET_2"`
	PayURL      string `yaml:"pay_url" envconfig:"FREEKASSA_PAY_URL"`
	Currency    string `yaml:"currency" envconfig:"FREEKASSA_CURRENCY"`
}

// StripeConfig configures the hosted payment link plus the webhook signing key.
type StripeConfig struct {
	PaymentLinkURL string `yaml:"payment_link_url" envconfig:"STRIPE_PAYMENT_LINK_URL"`
	WebhookSecret  string `yaml:"webhook_secret" envconfig:"STRIPE_WEBHOOK_SECRET"`
}

// NBSConfig configures the Serbian IPS QR transfer details.
type NBSConfig struct {
	AccountNumber string `yaml:"account_number" envconfig:"NBS_ACCOUNT_NUMBER"`
	RecipientName string `yaml:"recipient_name" envconfig:"NBS_RECIPIENT_NAME"`
}

// PaymentsConfig groups provider settings.
type PaymentsConfig struct {
	Freekassa FreekassaConfig `yaml:"freekassa"`
	Stripe    StripeConfig    `yaml:"stripe"`
	NBS       NBSConfig       `yaml:"nbs"`
}

// ContractsConfig controls where rendered agreements are stored.
type ContractsConfig struct {
	Dir string `yaml:"dir" envconfig:"CONTRACTS_DIR"`
}

// ServerConfig configures the payment webhook HTTP server.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"PAYMENTS_LISTEN"`
}

// SessionConfig tunes dialog session expiry.
type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// Config aggregates everything the bot needs to run.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Database  coredatabase.Config `yaml:"database"`
	Payments  PaymentsConfig      `yaml:"payments"`
	Contracts ContractsConfig     `yaml:"contracts"`
	Server    ServerConfig        `yaml:"server"`
	Session   SessionConfig       `yaml:"session"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Database.Host) == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}

	fk := &cfg.Payments.Freekassa
	if strings.TrimSpace(fk.PayURL) == "" {
		fk.PayURL = "https://pay.fk.money/"
	}
	if strings.TrimSpace(fk.Currency) == "" {
		fk.Currency = "EUR"
	}

	if strings.TrimSpace(cfg.Contracts.Dir) == "" {
		cfg.Contracts.Dir = "contracts"
	}
	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = ":8081"
	}
	if cfg.Session.TTLMinutes <= 0 {
		cfg.Session.TTLMinutes = 30
	}
	return nil
}
