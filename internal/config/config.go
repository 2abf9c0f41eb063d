package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr            string
	Environment         string
	DatabaseURL         string
	RedisAddr           string
	KafkaBrokers        []string
	ServiceName         string
	StripeSecretKey     string
	StripeWebhookSecret string
	ExchangeAPIKey      string
	ExchangeAPIURL      string
	BaseURL             string
	FrontendURL         string
	LogLevel            string
	ReconcileInterval   time.Duration
	ReconcileWindow     time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:            ":" + getenv("PORT", "5000"),
		Environment:         getenv("APP_ENV", "development"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		KafkaBrokers:        splitCSV(os.Getenv("KAFKA_BROKERS")),
		ServiceName:         getenv("SERVICE_NAME", "geoprice-api"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		ExchangeAPIKey:      os.Getenv("EXCHANGE_API_KEY"),
		ExchangeAPIURL:      getenv("EXCHANGE_API_URL", "https://v6.exchangerate-api.com"),
		BaseURL:             os.Getenv("BASE_URL"),
		FrontendURL:         trimQuotes(os.Getenv("FRONTEND_URL")),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		ReconcileInterval:   getduration("RECONCILE_INTERVAL", 10*time.Minute),
		ReconcileWindow:     getduration("RECONCILE_WINDOW", 24*time.Hour),
	}
}

// Validate reports every required variable that is unset.
func (c Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"STRIPE_SECRET_KEY", c.StripeSecretKey},
		{"STRIPE_WEBHOOK_SECRET", c.StripeWebhookSecret},
		{"EXCHANGE_API_KEY", c.ExchangeAPIKey},
		{"BASE_URL", c.BaseURL},
		{"FRONTEND_URL", c.FrontendURL},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func trimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
