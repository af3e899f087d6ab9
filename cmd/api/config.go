package main

import (
	"errors"
	"fmt"
	"time"

	"intake/internal/applications"
	"intake/internal/payments"
	"intake/internal/ratelimiter"
	"intake/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type config struct {
	Addr         string `validate:"required"`
	Env          string `validate:"required"`
	LogLevel     string `validate:"oneof=debug info warn error"`
	LogFormat    string `validate:"oneof=console json"`
	Paystack     paystackConfig
	Store        storeConfig
	DB           dbConfig
	Mail         mailConfig
	Auth         authConfig
	RateLimiter  ratelimiter.Config
	Confirmation string `validate:"omitempty,url"`
}

type paystackConfig struct {
	// SecretKey may be empty; submissions then fail with a configuration error.
	SecretKey string
	BaseURL   string        `validate:"required,url"`
	Timeout   time.Duration `validate:"gt=0"`
}

type storeConfig struct {
	Driver          string `validate:"oneof=sheets postgres memory"`
	ID              string
	DefaultID       string
	Table           string `validate:"required"`
	CredentialsFile string
}

type dbConfig struct {
	Addr        string
	MaxConns    int32 `validate:"gte=0"`
	MaxIdleTime string
}

type mailConfig struct {
	Host     string
	Port     int `validate:"gte=0,lte=65535"`
	Username string
	Password string
	From     string `validate:"omitempty,email"`
	Timeout  time.Duration
}

func (m mailConfig) enabled() bool { return m.Host != "" }

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("PAYSTACK_BASE_URL", payments.DefaultPaystackBaseURL)
	v.SetDefault("PAYSTACK_TIMEOUT", "15s")
	v.SetDefault("STORE_DRIVER", store.DriverSheets)
	v.SetDefault("STORE_TABLE", applications.DefaultTableName)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_TIME", "15m")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMITER_ENABLED", false)
	v.SetDefault("RATELIMITER_REQUESTS_COUNT", 20)
	v.SetDefault("RATELIMITER_TIME_FRAME", "1m")
}

// loadConfig reads the environment through v. The caller is expected to have
// loaded any .env file already.
func loadConfig(v *viper.Viper) (config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := config{
		Addr:      v.GetString("ADDR"),
		Env:       v.GetString("ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		Paystack: paystackConfig{
			SecretKey: v.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:   v.GetString("PAYSTACK_BASE_URL"),
			Timeout:   v.GetDuration("PAYSTACK_TIMEOUT"),
		},
		Store: storeConfig{
			Driver:          v.GetString("STORE_DRIVER"),
			ID:              v.GetString("STORE_ID"),
			DefaultID:       v.GetString("STORE_DEFAULT_ID"),
			Table:           v.GetString("STORE_TABLE"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		},
		DB: dbConfig{
			Addr:        v.GetString("DB_ADDR"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			MaxIdleTime: v.GetString("DB_MAX_IDLE_TIME"),
		},
		Mail: mailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
		},
		Auth: authConfig{
			basic: basicConfig{
				user: v.GetString("AUTH_BASIC_USER"),
				pass: v.GetString("AUTH_BASIC_PASS"),
			},
		},
		RateLimiter: ratelimiter.Config{
			RequestsPerTimeFrame: v.GetInt("RATELIMITER_REQUESTS_COUNT"),
			TimeFrame:            v.GetDuration("RATELIMITER_TIME_FRAME"),
			Enabled:              v.GetBool("RATE_LIMITER_ENABLED"),
		},
		Confirmation: v.GetString("CONFIRMATION_BASE_URL"),
	}

	if err := validate.Struct(cfg); err != nil {
		return config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.check(); err != nil {
		return config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// check covers rules that span sections.
func (c config) check() error {
	var errs []error
	if c.Store.Driver == store.DriverPostgres && c.DB.Addr == "" {
		errs = append(errs, errors.New("DB_ADDR is required for the postgres store"))
	}
	if c.Store.Driver == store.DriverSheets && c.Store.ID == "" && c.Store.DefaultID == "" {
		errs = append(errs, errors.New("STORE_ID or STORE_DEFAULT_ID is required for the sheets store"))
	}
	if c.Mail.enabled() && c.Mail.From == "" {
		errs = append(errs, errors.New("MAIL_FROM is required when SMTP_HOST is set"))
	}
	if c.RateLimiter.Enabled && (c.RateLimiter.RequestsPerTimeFrame <= 0 || c.RateLimiter.TimeFrame <= 0) {
		errs = append(errs, errors.New("rate limiter needs a positive request count and time frame"))
	}
	return errors.Join(errs...)
}
