package config

import (
	"testing"
	"time"
)

func TestLoadRequiresTokenSecrets(t *testing.T) {
	t.Setenv("CLIPSTREAM_ACCESS_TOKEN_SECRET", "")
	t.Setenv("CLIPSTREAM_REFRESH_TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when token secrets are unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLIPSTREAM_ACCESS_TOKEN_SECRET", "access-secret-value")
	t.Setenv("CLIPSTREAM_REFRESH_TOKEN_SECRET", "refresh-secret-value")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.AppPort)
	}
	if cfg.Environment != "development" || cfg.Production() {
		t.Fatalf("expected development defaults, got %q", cfg.Environment)
	}
	if cfg.Tokens.AccessTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %v", cfg.Tokens.AccessTTL)
	}
	if cfg.Tokens.RefreshTTL != 10*24*time.Hour {
		t.Fatalf("expected 240h refresh ttl, got %v", cfg.Tokens.RefreshTTL)
	}
	if cfg.MigrationDir != "migrations" || cfg.SeedDir != "seeds" {
		t.Fatalf("unexpected directories: %q %q", cfg.MigrationDir, cfg.SeedDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLIPSTREAM_ACCESS_TOKEN_SECRET", "access-secret-value")
	t.Setenv("CLIPSTREAM_REFRESH_TOKEN_SECRET", "refresh-secret-value")
	t.Setenv("CLIPSTREAM_PORT", "9999")
	t.Setenv("CLIPSTREAM_ENV", "production")
	t.Setenv("CLIPSTREAM_ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.AppPort != 9999 {
		t.Fatalf("expected port override, got %d", cfg.AppPort)
	}
	if !cfg.Production() {
		t.Fatal("expected production mode")
	}
	if cfg.Tokens.AccessTTL != 5*time.Minute {
		t.Fatalf("expected 5m access ttl, got %v", cfg.Tokens.AccessTTL)
	}
}

func TestGetIntIgnoresGarbage(t *testing.T) {
	t.Setenv("CLIPSTREAM_PORT", "not-a-number")
	if got := getInt("CLIPSTREAM_PORT", 8080); got != 8080 {
		t.Fatalf("expected fallback 8080, got %d", got)
	}
}
