package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(CompletionKeyEnvVar, "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, ":5174", cfg.Address())
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 300, cfg.ChatMaxTokens)
	assert.Equal(t, 30*time.Second, cfg.ChatTimeout)
	assert.Equal(t, defaultShutdownDelay, cfg.ShutdownPeriod)
}

func TestLoadRequiresCompletionKey(t *testing.T) {
	t.Setenv(CompletionKeyEnvVar, "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDurationsAndBudget(t *testing.T) {
	t.Setenv(CompletionKeyEnvVar, "sk-test")
	t.Setenv(chatSecondsEnvVar, "5")
	t.Setenv(shutdownDurationEnvVar, "3s")
	t.Setenv("CHAT_MAX_TOKENS", "200")
	t.Setenv("PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.ChatTimeout)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 200, cfg.ChatMaxTokens)
	assert.Equal(t, ":9000", cfg.Address())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv(CompletionKeyEnvVar, "sk-test")

	t.Run("max tokens", func(t *testing.T) {
		t.Setenv("CHAT_MAX_TOKENS", "zero")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("timeout", func(t *testing.T) {
		t.Setenv(chatDurationEnvVar, "soon")
		_, err := Load()
		require.Error(t, err)
	})
	for _, v := range []string{"0", "-5"} {
		t.Run("non-positive timeout "+v, func(t *testing.T) {
			t.Setenv(chatSecondsEnvVar, v)
			_, err := Load()
			require.Error(t, err)
		})
	}
	t.Run("non-positive timeout duration", func(t *testing.T) {
		t.Setenv(chatDurationEnvVar, "-1s")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestLoadClient(t *testing.T) {
	t.Run("supabase requires url and key", func(t *testing.T) {
		t.Setenv("BACKEND", "supabase")
		t.Setenv("SUPABASE_URL", "")
		_, err := LoadClient()
		require.Error(t, err)
	})

	t.Run("supabase", func(t *testing.T) {
		t.Setenv("BACKEND", "")
		t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
		t.Setenv("SUPABASE_ANON_KEY", "anon")
		cfg, err := LoadClient()
		require.NoError(t, err)
		assert.Equal(t, BackendSupabase, cfg.Backend)
		assert.Equal(t, "https://project.supabase.co", cfg.SupabaseURL)
		assert.Equal(t, defaultRelayURL, cfg.RelayURL)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	})

	t.Run("postgres requires a long secret", func(t *testing.T) {
		t.Setenv("BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "postgres://localhost/collegetrack")
		t.Setenv("SESSION_SECRET", "short")
		_, err := LoadClient()
		require.Error(t, err)
	})

	t.Run("memory", func(t *testing.T) {
		t.Setenv("BACKEND", "MEMORY")
		t.Setenv("SESSION_TTL_SECONDS", "60")
		cfg, err := LoadClient()
		require.NoError(t, err)
		assert.Equal(t, BackendMemory, cfg.Backend)
		assert.Equal(t, time.Minute, cfg.SessionTTL)
		assert.NotEmpty(t, cfg.SessionSecret)
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("BACKEND", "firebase")
		_, err := LoadClient()
		require.Error(t, err)
	})
}
