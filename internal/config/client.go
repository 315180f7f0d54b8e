package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Backend selects which Credential/Profile store implementation the client talks to.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

const (
	defaultRelayURL      = "http://localhost:5174/api/openai"
	defaultLocalDBPath   = "collegetrack.db"
	defaultSessionTTL    = 24 * time.Hour
	minSessionSecretSize = 32
)

// ClientConfig captures the terminal client configuration.
type ClientConfig struct {
	Backend  Backend
	LogLevel string
	LogFile  string

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string

	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	SessionTTL    time.Duration

	RelayURL    string
	LocalDBPath string
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		Backend:            Backend(strings.ToLower(getEnv("BACKEND", string(BackendSupabase)))),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFile:            os.Getenv("LOG_FILE"),
		SupabaseURL:        strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionTTL:         defaultSessionTTL,
		RelayURL:           getEnv("RELAY_URL", defaultRelayURL),
		LocalDBPath:        getEnv("LOCAL_DB_PATH", defaultLocalDBPath),
	}

	ttl, err := durationEnv("SESSION_TTL_SECONDS", "SESSION_TTL", cfg.SessionTTL)
	if err != nil {
		return ClientConfig{}, err
	}
	cfg.SessionTTL = ttl

	switch cfg.Backend {
	case BackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return ClientConfig{}, fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY must be set when BACKEND=%s", cfg.Backend)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return ClientConfig{}, fmt.Errorf("DATABASE_URL must be set when BACKEND=%s", cfg.Backend)
		}
		if len(cfg.SessionSecret) < minSessionSecretSize {
			return ClientConfig{}, fmt.Errorf("SESSION_SECRET must be at least %d characters", minSessionSecretSize)
		}
	case BackendMemory:
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "memory-backend-development-secret!"
		}
	default:
		return ClientConfig{}, fmt.Errorf("unknown BACKEND %q", cfg.Backend)
	}

	return cfg, nil
}
