package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/timetable")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("STATIC_TOKENS", "alpha, ,beta")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.AppPort)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected 90s ttl, got %v", cfg.CacheTTL)
	}
	if tokens := cfg.Tokens(); len(tokens) != 2 || tokens[1] != "beta" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production env")
	}
	if cfg.DefaultLabLabel != "Lab Session" {
		t.Fatalf("unexpected default label %q", cfg.DefaultLabLabel)
	}
	if cfg.GoogleCalendarEnabled() {
		t.Fatal("calendar should be disabled without client settings")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}
