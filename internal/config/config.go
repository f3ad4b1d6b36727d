package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI string `env:"DATABASE_URI" envDefault:"sqlite://nagqueen.db"`
	Dispatch    DispatchConfig
	Transport   TransportConfig
	Log         LogConfig
}

type DispatchConfig struct {
	Interval        time.Duration `env:"DISPATCH_INTERVAL" envDefault:"60s"`
	Concurrency     int           `env:"DISPATCH_CONCURRENCY" envDefault:"4"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"15s"`
	SendRatePerSec  int           `env:"SEND_RATE_PER_SEC" envDefault:"10"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RunOnStart      bool          `env:"DISPATCH_RUN_ON_START" envDefault:"true"`
}

type TransportConfig struct {
	Kind              string `env:"TRANSPORT" envDefault:"auto"`
	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER"`
	TelegramToken     string `env:"TELEGRAM_TOKEN"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURI) == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}
	if c.Dispatch.Interval <= 0 {
		errs = append(errs, fmt.Errorf("DISPATCH_INTERVAL must be positive, got %s", c.Dispatch.Interval))
	}
	if c.Dispatch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1, got %d", c.Dispatch.Concurrency))
	}
	if c.Dispatch.SendRatePerSec < 0 {
		errs = append(errs, fmt.Errorf("SEND_RATE_PER_SEC must not be negative, got %d", c.Dispatch.SendRatePerSec))
	}
	switch strings.ToLower(c.Transport.Kind) {
	case "auto", "twilio", "telegram", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSPORT %q", c.Transport.Kind))
	}
	return errors.Join(errs...)
}
