package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8078" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if !cfg.MinDeposit.Equal(decimal.New(1, 23)) {
		t.Errorf("MinDeposit = %s, want 1e23", cfg.MinDeposit)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KARTS_CONTRACT_ACCOUNT", "karts.example.near")
	t.Setenv("KARTS_MIN_DEPOSIT", "250000000000000000000000")
	t.Setenv("KARTS_REQUEST_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContractAccount != "karts.example.near" {
		t.Errorf("ContractAccount = %q", cfg.ContractAccount)
	}
	if cfg.MinDeposit.String() != "250000000000000000000000" {
		t.Errorf("MinDeposit = %s", cfg.MinDeposit)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad duration", "KARTS_REQUEST_TIMEOUT", "soon", "parse env:"},
		{"bad deposit", "KARTS_MIN_DEPOSIT", "lots", "parse env:"},
		{"negative deposit", "KARTS_MIN_DEPOSIT", "-1", "must not be negative"},
		{"zero timeout", "KARTS_REQUEST_TIMEOUT", "0s", "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestValidateRequiresAccount(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.ContractAccount = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "KARTS_CONTRACT_ACCOUNT") {
		t.Errorf("Validate() = %v, want missing account error", err)
	}
}
