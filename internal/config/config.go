package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config is the process configuration shared by the kart binaries.
type Config struct {
	DBPath          string          `env:"KARTS_DB_PATH"          envDefault:"nearkarts.db"`
	ListenAddr      string          `env:"KARTS_LISTEN_ADDR"      envDefault:"127.0.0.1:8078"`
	ContractAccount string          `env:"KARTS_CONTRACT_ACCOUNT" envDefault:"nft.nearkarts.testnet"`
	MinDeposit      decimal.Decimal `env:"KARTS_MIN_DEPOSIT"      envDefault:"100000000000000000000000"`
	JournalDir      string          `env:"KARTS_JOURNAL_DIR"      envDefault:"journal"`
	RequestTimeout  time.Duration   `env:"KARTS_REQUEST_TIMEOUT"  envDefault:"10s"`
	ShutdownTimeout time.Duration   `env:"KARTS_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	EventBuffer     int             `env:"KARTS_EVENT_BUFFER"     envDefault:"256"`
	KeyringService  string          `env:"KARTS_KEYRING_SERVICE"  envDefault:"nearkarts-signer"`
	KeyringFallback string          `env:"KARTS_KEYRING_FALLBACK"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the binaries cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("KARTS_DB_PATH is required")
	}
	if c.ContractAccount == "" {
		return errors.New("KARTS_CONTRACT_ACCOUNT is required")
	}
	if c.MinDeposit.IsNegative() {
		return fmt.Errorf("KARTS_MIN_DEPOSIT must not be negative, got %s", c.MinDeposit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("KARTS_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
