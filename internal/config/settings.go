package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/mmynk/secretsanta/internal/assigner"
	"github.com/mmynk/secretsanta/internal/composer"
	"github.com/mmynk/secretsanta/internal/delivery"
)

// Settings holds runtime options that are not part of the input document.
// Every field can be set from the environment; CLI flags override them.
// The envDefault tags mirror assigner.DefaultMaxAttempts,
// delivery.DefaultTimeout and composer.DefaultFromName.
type Settings struct {
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	Strategy    string        `env:"SANTA_STRATEGY" envDefault:"rejection"`
	MaxAttempts int           `env:"SANTA_MAX_ATTEMPTS" envDefault:"1000"`
	SMTPTimeout time.Duration `env:"SANTA_SMTP_TIMEOUT" envDefault:"30s"`
	FromName    string        `env:"SANTA_FROM_NAME" envDefault:"Secret Santa"`
	MetricsFile string        `env:"SANTA_METRICS_FILE"`
}

// LoadSettings parses Settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env vars: %w", err)
	}
	s.normalize()
	return s, nil
}

// normalize replaces values that cannot be used with their defaults.
func (s *Settings) normalize() {
	if s.Strategy == "" {
		s.Strategy = string(assigner.StrategyRejection)
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = assigner.DefaultMaxAttempts
	}
	if s.SMTPTimeout <= 0 {
		s.SMTPTimeout = delivery.DefaultTimeout
	}
	if s.FromName == "" {
		s.FromName = composer.DefaultFromName
	}
}
