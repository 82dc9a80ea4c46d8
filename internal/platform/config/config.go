package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Addr        string `env:"APP_ADDR" envDefault:":8080"`

	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed       bool   `env:"RUN_SEED" envDefault:"true"`

	JWTSecret       string `env:"JWT_SECRET"`
	TokenTTLSeconds int    `env:"TOKEN_TTL_SECONDS" envDefault:"28800"`

	Seed struct {
		AdminPhone          string `env:"ADMIN_PHONE" envDefault:"+201000000000"`
		AdminPassword       string `env:"ADMIN_PASSWORD"`
		AdminFirstName      string `env:"ADMIN_FIRST_NAME" envDefault:"System"`
		AdminRestOfName     string `env:"ADMIN_REST_OF_NAME" envDefault:"Administrator"`
		AdminIdentityNumber string `env:"ADMIN_IDENTITY_NUMBER" envDefault:"ADMIN-0001"`
	} `envPrefix:"SEED_"`

	Email struct {
		Enabled  bool   `env:"ENABLED" envDefault:"false"`
		From     string `env:"FROM" envDefault:"no-reply@example.com"`
		SMTPHost string `env:"SMTP_HOST"`
		SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
		SMTPUser string `env:"SMTP_USER"`
		SMTPPass string `env:"SMTP_PASSWORD"`
	} `envPrefix:"EMAIL_"`

	MaxBodyBytes       int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute int   `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	MetricsEnabled     bool  `env:"METRICS_ENABLED" envDefault:"true"`
}

func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return Config{}, aggErr.Errors[0]
		}
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" && c.RunSeed && strings.TrimSpace(c.Seed.AdminPassword) == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
	}
	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("TOKEN_TTL_SECONDS must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Email.Enabled && c.Email.SMTPHost == "" {
		return fmt.Errorf("EMAIL_SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
