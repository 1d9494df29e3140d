package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:        "development",
		DraftBackend:       DraftBackendMemory,
		TokenTTL:           time.Hour,
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 60,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"production secret", func(c *Config) { c.Environment = "production"; c.DatabaseURL = "postgres://x" }, "JWT_SECRET"},
		{"production database", func(c *Config) { c.Environment = "production"; c.JWTSecret = "s" }, "DATABASE_URL"},
		{"redis address", func(c *Config) { c.DraftBackend = DraftBackendRedis }, "REDIS_ADDR"},
		{"postgres drafts", func(c *Config) { c.DraftBackend = DraftBackendPostgres }, "DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.DraftBackend = "disk" }, "DRAFT_BACKEND"},
		{"body limit", func(c *Config) { c.MaxBodyBytes = 10 }, "MAX_BODY_BYTES"},
		{"rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, "RATE_LIMIT_PER_MINUTE"},
		{"export endpoint", func(c *Config) { c.ExportBucket = "aper" }, "EXPORT_ENDPOINT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("DRAFT_BACKEND", DraftBackendRedis)
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DRAFT_TTL", "2h")
	t.Setenv("EXPORT_USE_SSL", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	if cfg.Addr != ":9090" || cfg.DraftBackend != DraftBackendRedis || cfg.RedisDB != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.DraftTTL != 2*time.Hour || cfg.ExportUseSSL {
		t.Fatalf("unexpected ttl/ssl %v/%v", cfg.DraftTTL, cfg.ExportUseSSL)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadDraftTTLDefaultsToNoExpiry(t *testing.T) {
	t.Setenv("DRAFT_TTL", "")
	if cfg := Load(); cfg.DraftTTL != 0 {
		t.Fatalf("expected drafts to be kept until advance, got ttl %v", cfg.DraftTTL)
	}
}

func TestLoadAppliesDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RULES_PATH=/etc/aper/rules.yaml\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("RULES_PATH")
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	cfg := Load()
	if cfg.RulesPath != "/etc/aper/rules.yaml" {
		t.Fatalf("expected RULES_PATH from .env, got %q", cfg.RulesPath)
	}
}
