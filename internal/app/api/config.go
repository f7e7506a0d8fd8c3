package api

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port             string
	PostgresDSN      string
	WebhookSecret    string
	WebhookTolerance time.Duration
	ProviderBaseURL  string
	ProviderAPIKey   string
	Currency         string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:            envDefault("PORT", "8080"),
		PostgresDSN:     strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		WebhookSecret:   strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		ProviderBaseURL: strings.TrimSpace(os.Getenv("PROVIDER_BASE_URL")),
		ProviderAPIKey:  strings.TrimSpace(os.Getenv("PROVIDER_API_KEY")),
		Currency:        envDefault("CURRENCY", "usd"),
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("WEBHOOK_SECRET is required")
	}
	if cfg.ProviderBaseURL != "" && cfg.ProviderAPIKey == "" {
		return Config{}, fmt.Errorf("PROVIDER_API_KEY is required when PROVIDER_BASE_URL is set")
	}
	if raw := strings.TrimSpace(os.Getenv("WEBHOOK_TOLERANCE")); raw != "" {
		tolerance, err := time.ParseDuration(raw)
		if err != nil || tolerance <= 0 {
			return Config{}, fmt.Errorf("WEBHOOK_TOLERANCE must be a positive duration")
		}
		cfg.WebhookTolerance = tolerance
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
