package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"

	"intake/internal/applications"
	"intake/internal/mailer"
	"intake/internal/payments"
	"intake/internal/ratelimiter"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger. The console format gets coloured levels.
func NewLogger(level, format string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)

	return zap.New(core).Sugar(), nil
}

var version = "2.0.0"

func main() {
	// A missing .env is fine: production reads the real environment.
	_ = godotenv.Load()

	cfg, err := loadConfig(viper.New())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if payments.IsPlaceholderSecret(cfg.Paystack.SecretKey) {
		logger.Warn("PAYSTACK_SECRET_KEY is not configured; submissions will be rejected")
	}

	ctx := context.Background()

	// Store
	opener, closeStore, err := openStore(ctx, cfg.Store, cfg.DB)
	if err != nil {
		logger.Fatal(err)
	}
	defer closeStore()
	logger.Infow("application store ready", "driver", cfg.Store.Driver, "table", cfg.Store.Table)

	verifier := payments.NewPaystackAdapter(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.Timeout)

	opts := []applications.Option{}
	if cfg.Mail.enabled() {
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Mail.Timeout,
		})
		if err != nil {
			logger.Fatal(err)
		}
		opts = append(opts, applications.WithNotifier(mailer.NewConfirmation(m)))
		logger.Infow("confirmation emails enabled", "smtp_host", cfg.Mail.Host)
	}

	service := applications.NewService(applications.Config{
		SecretKey:           cfg.Paystack.SecretKey,
		StoreID:             cfg.Store.ID,
		TableName:           cfg.Store.Table,
		ConfirmationBaseURL: cfg.Confirmation,
	}, verifier, opener, logger, opts...)

	app := &application{
		config:       cfg,
		logger:       logger,
		applications: service,
	}

	if cfg.RateLimiter.Enabled {
		rl := ratelimiter.NewFixedWindowLimiter(
			cfg.RateLimiter.RequestsPerTimeFrame,
			cfg.RateLimiter.TimeFrame,
		)
		defer rl.Stop()
		app.rateLimiter = rl
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Fatal(err)
	}
}
