package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	TwitchClientID     string `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string `env:"TWITCH_CLIENT_SECRET"`
	TwitchRedirectURI  string `env:"TWITCH_REDIRECT_URI"`

	// ExtensionSecret is the base64-encoded shared secret Twitch uses to sign
	// extension JWTs.
	ExtensionSecret string `env:"EXTENSION_SECRET"`

	EventSubCallbackURL string `env:"EVENTSUB_CALLBACK_URL"`
	EventSubSecret      string `env:"EVENTSUB_SECRET"`

	TwitchAPIBaseURL string        `env:"TWITCH_API_BASE_URL" default:"https://api.twitch.tv/helix"`
	TwitchOAuthURL   string        `env:"TWITCH_OAUTH_URL" default:"https://id.twitch.tv/oauth2/token"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" default:"5s"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	AuthRatePerSecond float64       `env:"AUTH_RATE_PER_SECOND" default:"2"`
	AuthRateBurst     int           `env:"AUTH_RATE_BURST" default:"5"`
	AuthRateExpiry    time.Duration `env:"AUTH_RATE_EXPIRY" default:"5m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":          cfg.DatabaseURL,
		"TWITCH_CLIENT_ID":      cfg.TwitchClientID,
		"TWITCH_CLIENT_SECRET":  cfg.TwitchClientSecret,
		"TWITCH_REDIRECT_URI":   cfg.TwitchRedirectURI,
		"EXTENSION_SECRET":      cfg.ExtensionSecret,
		"EVENTSUB_CALLBACK_URL": cfg.EventSubCallbackURL,
		"EVENTSUB_SECRET":       cfg.EventSubSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.EventSubSecret) < 10 || len(cfg.EventSubSecret) > 100 {
		return errors.New("EVENTSUB_SECRET must be between 10 and 100 characters")
	}

	if _, err := base64.StdEncoding.DecodeString(cfg.ExtensionSecret); err != nil {
		return fmt.Errorf("EXTENSION_SECRET must be valid base64: %w", err)
	}

	if cfg.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}

	if cfg.AuthRateExpiry <= 0 {
		return errors.New("AUTH_RATE_EXPIRY must be positive")
	}

	return nil
}

// ExtensionSecretBytes returns the decoded JWT signing secret. Validation in
// Load guarantees the value decodes.
func (c *Config) ExtensionSecretBytes() []byte {
	b, _ := base64.StdEncoding.DecodeString(c.ExtensionSecret)
	return b
}
