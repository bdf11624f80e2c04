package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jonasXchen/magicblock-hacker-house/core"
)

const minSecretLength = 32

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Addr           string        `env:"HTTP_ADDR" envDefault:":8080"`
		AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
		ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
	}

	Onboarding struct {
		ChallengeMessage string        `env:"CHALLENGE_MESSAGE" envDefault:"Sign to join MagicBlock Hacker House"`
		DestinationURL   string        `env:"DESTINATION_URL" envDefault:"https://play.workadventu.re/@/magicblock/magicblock-office/startup"`
		ProfileFormPath  string        `env:"PROFILE_FORM_PATH" envDefault:"/join"`
		UpstreamTimeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	}

	Session struct {
		Backend       string        `env:"SESSION_BACKEND" envDefault:"memory"` // memory, redis
		Secret        string        `env:"SESSION_SECRET"`
		TTL           time.Duration `env:"SESSION_TTL" envDefault:"1h"`
		SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"60s"`
	}

	Redis struct {
		URL string `env:"REDIS_URL"`
	}

	Directory struct {
		Backend     string `env:"DIRECTORY_BACKEND" envDefault:"memory"` // memory, notion, postgres
		Collection  string `env:"DIRECTORY_COLLECTION" envDefault:"hacker-house"`
		AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
		DatabaseURL string `env:"DATABASE_URL"`
	}

	Notion struct {
		APIKey     string `env:"NOTION_API_KEY"`
		DatabaseID string `env:"NOTION_DATABASE_ID"`
	}

	GitHub struct {
		ClientID     string `env:"GITHUB_ID"`
		ClientSecret string `env:"GITHUB_SECRET"`
		CallbackURL  string `env:"GITHUB_CALLBACK_URL" envDefault:"http://localhost:8080/api/auth/github/callback"`
	}

	Events struct {
		Stream bool `env:"EVENTS_STREAM" envDefault:"false"`
	}
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a config from the given variables only.
func Parse(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every selected backend has what it needs.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Session.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes: %w", minSecretLength, core.ErrNotConfigured))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.Onboarding.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("REDIS_URL is required for the redis session backend: %w", core.ErrNotConfigured))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend))
	}

	switch c.Directory.Backend {
	case "memory":
	case "notion":
		if c.Notion.APIKey == "" || c.Notion.DatabaseID == "" {
			errs = append(errs, fmt.Errorf("NOTION_API_KEY and NOTION_DATABASE_ID are required: %w", core.ErrNotConfigured))
		}
	case "postgres":
		if c.Directory.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the postgres directory: %w", core.ErrNotConfigured))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DIRECTORY_BACKEND %q", c.Directory.Backend))
	}

	if c.Events.Stream && c.Redis.URL == "" {
		errs = append(errs, fmt.Errorf("REDIS_URL is required when EVENTS_STREAM is on: %w", core.ErrNotConfigured))
	}

	return errors.Join(errs...)
}

// GitHubConfigured reports whether the OAuth app credentials are present.
func (c *Config) GitHubConfigured() bool {
	return c.GitHub.ClientID != "" && c.GitHub.ClientSecret != ""
}
