package config_test

import (
	"testing"
	"time"

	"github.com/iho/gopayout/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GATEWAY_INTL_API_KEY", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.RateTable != "USD=1.5" {
		t.Fatalf("expected default rate table, got %q", cfg.RateTable)
	}

	if cfg.StaleProcessingThreshold != 24*time.Hour {
		t.Fatalf("expected default stale threshold 24h, got %s", cfg.StaleProcessingThreshold)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("RATE_TABLE", "USD=1.5,PHP=85")
	t.Setenv("GATEWAY_REGIONAL_CURRENCIES", "PHP,IDR")
	t.Setenv("GATEWAY_TIMEOUT", "10s")
	t.Setenv("SWEEP_MIN_CREDITS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.RateTable != "USD=1.5,PHP=85" {
		t.Fatalf("expected rate table override, got %q", cfg.RateTable)
	}

	if len(cfg.GatewayRegionalCCYs) != 2 || cfg.GatewayRegionalCCYs[1] != "IDR" {
		t.Fatalf("expected regional currencies override, got %v", cfg.GatewayRegionalCCYs)
	}

	if cfg.GatewayTimeout != 10*time.Second {
		t.Fatalf("expected gateway timeout override, got %s", cfg.GatewayTimeout)
	}

	if cfg.SweepMinCredits != "2.5" {
		t.Fatalf("expected sweep minimum override, got %s", cfg.SweepMinCredits)
	}
}
