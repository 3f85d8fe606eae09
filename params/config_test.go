package params

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.HTTP.Addr != ":3002" {
		t.Errorf("addr = %s", cfg.HTTP.Addr)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Errorf("session ttl = %s", cfg.Session.TTL)
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		t.Error("no default allowed origins")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("SESSION_TTL_HOURS", "24")
	t.Setenv("SESSION_SECURE", "true")
	t.Setenv("DB_PATH", "/tmp/alt.db")
	t.Setenv("SEED_DEMO", "false")

	cfg := LoadFromEnv("")

	if cfg.HTTP.Addr != ":9999" {
		t.Errorf("addr = %s", cfg.HTTP.Addr)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origins = %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("ttl = %s", cfg.Session.TTL)
	}
	if !cfg.Session.Secure {
		t.Error("secure not set")
	}
	if cfg.Store.Path != "/tmp/alt.db" {
		t.Errorf("db path = %s", cfg.Store.Path)
	}
	if cfg.Store.SeedDemo {
		t.Error("seed demo not disabled")
	}
}

func TestInvalidTTLIgnored(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "not-a-number")
	cfg := LoadFromEnv("")
	if cfg.Session.TTL != Default().Session.TTL {
		t.Errorf("ttl = %s, want default", cfg.Session.TTL)
	}
}
