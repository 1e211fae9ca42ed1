package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LLM_MODEL_ID", "LLM_API_KEY", "LLM_BASE_URL", "LLM_OBSERVABILITY_LIBRARY",
		"REDIS_HOST", "AUDIT_MYSQL_DSN", "AUDIT_SQLITE_PATH", "HTTP_ADDR",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadRequiresAPIKey(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("expected error when LLM_API_KEY is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("LLM_API_KEY", "test-key")
	defer os.Unsetenv("LLM_API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default HTTPAddr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.RedisHost != "" {
		t.Errorf("expected empty RedisHost, got %q", cfg.RedisHost)
	}
}
