package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "CHAT_TIMEOUT", "CORS_ALLOWED_ORIGINS", "ARK_API_KEY", "Model", "SEED_DEMO_DATA"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Chat.Timeout != 90*time.Second {
		t.Fatalf("unexpected chat timeout %v", cfg.Chat.Timeout)
	}
	if cfg.Database.Path != "./data/daycare.db" || cfg.Database.SeedDemo {
		t.Fatalf("unexpected database config %+v", cfg.Database)
	}
	if cfg.AI.Enabled() {
		t.Fatal("AI must be disabled without credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CHAT_TIMEOUT", "15s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "ep-123")
	t.Setenv("ARK_MAX_TOKENS", "512")
	t.Setenv("SEED_DEMO_DATA", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Chat.Timeout != 15*time.Second {
		t.Fatalf("unexpected chat timeout %v", cfg.Chat.Timeout)
	}
	if !cfg.AI.Enabled() || cfg.AI.MaxTokens == nil || *cfg.AI.MaxTokens != 512 {
		t.Fatalf("unexpected AI config %+v", cfg.AI)
	}
	if !cfg.Database.SeedDemo {
		t.Fatal("expected demo seeding enabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":            "80 80",
		"CHAT_TIMEOUT":    "soon",
		"ARK_TEMPERATURE": "warm",
		"SEED_DEMO_DATA":  "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}
