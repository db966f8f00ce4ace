package config

import (
	"os"
	"path/filepath"
	"time"

	"main/utils"
)

// Backend identifies the note store implementation selected at startup.
type Backend string

const (
	BackendSupabase     Backend = "supabase"
	BackendSQLite       Backend = "sqlite"
	BackendSQLiteMemory Backend = "sqlite-memory"
)

type LLMConfig struct {
	Endpoint string
	Model    string
	Token    string
	Timeout  time.Duration
}

// Config is resolved once at process start and injected into the route
// layer; nothing re-reads the environment after boot.
type Config struct {
	Port         string
	Backend      Backend
	SQLiteDSN    string
	SupabaseURL  string
	SupabaseKey  string
	StoreTimeout time.Duration
	MaxBodyBytes int64
	SecretKey    string
	LLM          LLMConfig
}

// Load resolves the configuration from the environment. Backend selection:
// Supabase credentials plus the deployment-context flag pick the REST
// backend; otherwise a writable data directory picks the file-based SQLite
// store, with in-memory SQLite as the last resort.
func Load() *Config {
	cfg := &Config{
		Port:         utils.GetEnvAsString("PORT", "8080"),
		SupabaseURL:  os.Getenv("SUPABASE_URL"),
		SupabaseKey:  os.Getenv("SUPABASE_KEY"),
		StoreTimeout: utils.GetEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
		MaxBodyBytes: int64(utils.GetEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		SecretKey:    utils.GetEnvAsString("SECRET_KEY", ""),
		LLM: LLMConfig{
			Endpoint: utils.GetEnvAsString("LLM_ENDPOINT", "https://models.github.ai/inference"),
			Model:    utils.GetEnvAsString("LLM_MODEL", "openai/gpt-4.1-mini"),
			Token:    os.Getenv("GITHUB_TOKEN"),
			Timeout:  utils.GetEnvAsDuration("LLM_TIMEOUT", 10*time.Second),
		},
	}

	switch {
	case cfg.SupabaseURL != "" && cfg.SupabaseKey != "" && os.Getenv("VERCEL_ENV") != "":
		cfg.Backend = BackendSupabase
	default:
		dataDir := utils.GetEnvAsString("DATA_DIR", "database")
		if dirWritable(dataDir) {
			cfg.Backend = BackendSQLite
			cfg.SQLiteDSN = filepath.Join(dataDir, "app.db")
		} else {
			cfg.Backend = BackendSQLiteMemory
			cfg.SQLiteDSN = ":memory:"
		}
	}
	return cfg
}

func dirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return false
	}
	probe.Close()
	os.Remove(probe.Name())
	return true
}
