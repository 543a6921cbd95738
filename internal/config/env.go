package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided defaults for actuatorctl. Command-line
// flags take precedence over these values.
type Config struct {
	StoreKind      string `env:"ACTUATION_STORE" envDefault:"memory"`
	DBPath         string `env:"ACTUATION_DB_PATH" envDefault:"actuation.db"`
	LogLevel       string `env:"ACTUATION_LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"ACTUATION_LOG_FORMAT" envDefault:"text"`
	SkipValidation bool   `env:"ACTUATION_SKIP_VALIDATION"`
	Environment    string `env:"ACTUATION_ENVIRONMENT" envDefault:"default"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
