package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultAppName       = "SurgePay"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultSessionTTL    = time.Hour
	defaultQuoteTTL      = 5 * time.Minute
	defaultRateRefresh   = 30 * time.Second
	defaultFXBaseURL     = "https://v6.exchangerate-api.com/v6"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// Conversation engine settings.
	SessionTTL          time.Duration
	QuoteTTL            time.Duration
	RateRefreshInterval time.Duration

	// Live FX rate API.
	FXAPIKey     string
	FXAPIBaseURL string

	// Outbound WhatsApp transport. When the account SID is empty the
	// service falls back to a logging sender.
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              getEnv("APP_ENV", defaultAppEnv),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		ShutdownPeriod:      defaultShutdownDelay,
		SessionTTL:          defaultSessionTTL,
		QuoteTTL:            defaultQuoteTTL,
		RateRefreshInterval: defaultRateRefresh,
		FXAPIKey:            os.Getenv("FX_API_KEY"),
		FXAPIBaseURL:        getEnv("FX_API_BASE_URL", defaultFXBaseURL),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom:  os.Getenv("TWILIO_WHATSAPP_NUMBER"),
	}

	for _, v := range []struct {
		env    string
		target *time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"QUOTE_TTL", &cfg.QuoteTTL},
		{"RATE_REFRESH_INTERVAL", &cfg.RateRefreshInterval},
	} {
		if raw := os.Getenv(v.env); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", v.env, err)
			}
			*v.target = d
		}
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
