package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Invoice  InvoiceConfig
	Payment  PaymentConfig
	Stripe   StripeConfig
	SMTP     SMTPConfig
	Slack    SlackConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type InvoiceConfig struct {
	// DefaultTerms is the payment terms, in days, applied when an invoice
	// does not specify its own.
	DefaultTerms int
	// EnabledCurrencies is the platform-wide currency allow-list.
	EnabledCurrencies []string
}

type PaymentConfig struct {
	WebhookSecret string
}

type StripeConfig struct {
	SecretKey string
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type SlackConfig struct {
	Token   string
	Channel string
}

func Load() *Config {
	// Missing .env is fine; values fall back to the environment.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			BaseURL:      env("BASE_URL", "http://localhost:8080"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DB_DSN", "invoicer:invoicer@tcp(localhost:3306)/invoicer?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", "change-me-in-production"),
			Expiry: 12 * time.Hour,
			Issuer: "invoicer",
		},
		Invoice: InvoiceConfig{
			DefaultTerms:      envInt("INVOICE_DEFAULT_TERMS", 30),
			EnabledCurrencies: []string{"GBP", "USD", "EUR"},
		},
		Payment: PaymentConfig{
			WebhookSecret: env("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Stripe: StripeConfig{
			SecretKey: env("STRIPE_SECRET_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host: env("SMTP_HOST", ""),
			Port: env("SMTP_PORT", "587"),
			User: env("SMTP_USER", ""),
			Pass: env("SMTP_PASS", ""),
			From: env("SMTP_FROM", "billing@localhost"),
		},
		Slack: SlackConfig{
			Token:   env("SLACK_TOKEN", ""),
			Channel: env("SLACK_CHANNEL", ""),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
