package config

import (
	"path/filepath"
	"testing"
)

func TestLoadSelectsSupabase(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "key")
	t.Setenv("VERCEL_ENV", "production")

	cfg := Load()
	if cfg.Backend != BackendSupabase {
		t.Errorf("Expected supabase backend, got %s", cfg.Backend)
	}
}

func TestLoadFallsBackToFileSQLite(t *testing.T) {
	// Credentials without the deployment-context flag stay local.
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "key")
	t.Setenv("VERCEL_ENV", "")

	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)

	cfg := Load()
	if cfg.Backend != BackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", cfg.Backend)
	}
	if cfg.SQLiteDSN != filepath.Join(dataDir, "app.db") {
		t.Errorf("Unexpected DSN: %s", cfg.SQLiteDSN)
	}
}

func TestLoadFallsBackToMemory(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	// An unwritable data directory forces the in-memory store.
	t.Setenv("DATA_DIR", "/proc/no-such-dir")

	cfg := Load()
	if cfg.Backend != BackendSQLiteMemory {
		t.Errorf("Expected in-memory backend, got %s", cfg.Backend)
	}
	if cfg.SQLiteDSN != ":memory:" {
		t.Errorf("Unexpected DSN: %s", cfg.SQLiteDSN)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.LLM.Endpoint != "https://models.github.ai/inference" {
		t.Errorf("Unexpected LLM endpoint: %s", cfg.LLM.Endpoint)
	}
	if cfg.LLM.Model != "openai/gpt-4.1-mini" {
		t.Errorf("Unexpected LLM model: %s", cfg.LLM.Model)
	}
}
