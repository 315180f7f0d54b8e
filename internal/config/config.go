package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "CollegeTrack Relay"
	defaultPort            = "5174"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultChatModel       = "gpt-4o-mini"
	defaultChatMaxTokens   = 300
	defaultChatTimeout     = 30 * time.Second
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	chatSecondsEnvVar      = "CHAT_TIMEOUT_SECONDS"
	chatDurationEnvVar     = "CHAT_TIMEOUT"

	// CompletionKeyEnvVar names the single credential used for the completion API.
	CompletionKeyEnvVar = "OPENAI_API_KEY"
)

// Config captures the relay server configuration loaded from environment variables.
type Config struct {
	AppName        string
	Port           string
	LogLevel       string
	ShutdownPeriod time.Duration

	CompletionKey     string
	CompletionBaseURL string
	ChatModel         string
	ChatMaxTokens     int
	ChatTimeout       time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		ShutdownPeriod:    defaultShutdownDelay,
		CompletionKey:     os.Getenv(CompletionKeyEnvVar),
		CompletionBaseURL: os.Getenv("OPENAI_BASE_URL"),
		ChatModel:         getEnv("CHAT_MODEL", defaultChatModel),
		ChatMaxTokens:     defaultChatMaxTokens,
		ChatTimeout:       defaultChatTimeout,
	}

	d, err := durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod)
	if err != nil {
		return Config{}, err
	}
	cfg.ShutdownPeriod = d

	d, err = durationEnv(chatSecondsEnvVar, chatDurationEnvVar, cfg.ChatTimeout)
	if err != nil {
		return Config{}, err
	}
	if d <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", chatSecondsEnvVar)
	}
	cfg.ChatTimeout = d

	if v := os.Getenv("CHAT_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHAT_MAX_TOKENS: %w", err)
		}
		if n <= 0 {
			return Config{}, fmt.Errorf("CHAT_MAX_TOKENS must be positive")
		}
		cfg.ChatMaxTokens = n
	}

	if cfg.CompletionKey == "" {
		return Config{}, fmt.Errorf("%s must be set", CompletionKeyEnvVar)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// durationEnv reads a duration either as whole seconds from secondsKey or as a
// Go duration string from durationKey, seconds taking precedence.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
