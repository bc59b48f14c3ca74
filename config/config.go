package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	// Timer knobs
	TickMS          int    `env:"TICK_MS" envDefault:"250" validate:"min=50,max=5000"`
	WarmupSec       int    `env:"WARMUP_SEC" envDefault:"10" validate:"min=0,max=600"`
	WarmupMode      string `env:"WARMUP_MODE" envDefault:"first" validate:"oneof=first each"`
	MaxRenderHeight int    `env:"MAX_RENDER_HEIGHT" envDefault:"8" validate:"min=1,max=64"`

	// Session housekeeping
	SessionIdleTimeoutSec int `env:"SESSION_IDLE_TIMEOUT_SEC" envDefault:"3600" validate:"min=60"`
	ReapIntervalSec       int `env:"REAP_INTERVAL_SEC" envDefault:"60" validate:"min=1"`

	// Reminders
	RemindIntervalSec int    `env:"REMIND_INTERVAL_SEC" envDefault:"60" validate:"min=1"`
	ResendAPIKey      string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom        string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

func (c *Config) Warmup() time.Duration {
	return time.Duration(c.WarmupSec) * time.Second
}
