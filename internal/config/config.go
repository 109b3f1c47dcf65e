package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"QuoteDesk"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"quotedesk"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Quote struct {
		// DefaultTaxRate is the fractional sales tax applied to the
		// taxable base when a quote carries no rate of its own.
		DefaultTaxRate float64 `envconfig:"QUOTE_DEFAULT_TAX_RATE" default:"0.0825"`
		// DefaultMarginPercent is the target sell-side margin used to
		// back-solve cost.
		DefaultMarginPercent float64 `envconfig:"QUOTE_DEFAULT_MARGIN" default:"35"`
		// ValidForDays controls the expires_at stamped on new quotes.
		ValidForDays int `envconfig:"QUOTE_VALID_FOR_DAYS" default:"30"`
	}

	Delivery struct {
		BaseURL string `envconfig:"DELIVERY_BASE_URL" default:"http://localhost:9090"`
		Token   string `envconfig:"DELIVERY_TOKEN"`
	}

	Auth struct {
		// JWTSecret signs API bearer tokens. Empty disables auth (dev only).
		JWTSecret string `envconfig:"JWT_SECRET"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
