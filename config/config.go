// Package config loads the environment configuration cmd/server needs to
// wire up the LLM client, the KV store, and the HTTP surface.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds every environment variable the external interfaces
// section names, plus the few additional knobs cmd/server needs to pick
// a concrete store/KV backend.
type Config struct {
	// LLMModelID and LLMAPIKey configure the chosen model.ChatModel
	// provider adapter. LLMBaseURL is read from LLM_BASE_URL but is not
	// passed to any adapter: every adapter uses its provider's default
	// endpoint.
	LLMModelID string
	LLMAPIKey  string
	LLMBaseURL string

	// LLMObservabilityLibrary optionally selects an emit.Emitter
	// implementation ("otel", "log", or "" for the null emitter).
	LLMObservabilityLibrary string

	// RedisHost, when set, selects kvstore.RedisClient over
	// kvstore.MemClient.
	RedisHost string

	// AuditDSN, when set, selects a MySQL-backed store.AuditStore
	// ("user:pass@tcp(host:3306)/db" form). AuditSQLitePath takes
	// precedence over AuditDSN when both happen to be set, since SQLite
	// requires no network round trip to verify at startup.
	AuditDSN        string
	AuditSQLitePath string
	HTTPAddr        string
}

// Load reads configuration from the process environment, first loading a
// local ".env" file if present (a no-op, not an error, when absent) —
// matching the dev-bootstrap convenience the leofalp-aigo example wires
// via godotenv.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	cfg := Config{
		LLMModelID:              os.Getenv("LLM_MODEL_ID"),
		LLMAPIKey:               os.Getenv("LLM_API_KEY"),
		LLMBaseURL:              os.Getenv("LLM_BASE_URL"),
		LLMObservabilityLibrary: os.Getenv("LLM_OBSERVABILITY_LIBRARY"),
		RedisHost:               os.Getenv("REDIS_HOST"),
		AuditDSN:                os.Getenv("AUDIT_MYSQL_DSN"),
		AuditSQLitePath:         os.Getenv("AUDIT_SQLITE_PATH"),
		HTTPAddr:                os.Getenv("HTTP_ADDR"),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LLMAPIKey == "" {
		return Config{}, fmt.Errorf("config: LLM_API_KEY is required")
	}

	return cfg, nil
}
