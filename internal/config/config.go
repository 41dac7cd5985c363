package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // empty: in-memory store
	TablePrefix string
	CORSOrigins string

	// Auth
	JWKSURL      string   // empty in dev: fixed dev session
	DevUserID    string   // user id of the dev session
	SystemAdmins []string // user ids granted system admin regardless of claims

	// LLM Configuration
	LLMProvider     string
	LLMModel        string
	AnthropicAPIKey string

	// Google Drive
	GoogleCredentialsFile  string // empty: sources are passed by reference only
	DrivePublish           bool
	SourceFetchConcurrency int

	// Generation jobs
	GenerationTimeout time.Duration
	ProgressInterval  time.Duration
	ProgressStep      int
	SweepInterval     time.Duration
	StaleGrace        time.Duration

	// Logging
	LogDir      string
	LogMaxFiles int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	provider := getEnv("LLM_PROVIDER", "lorem")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		JWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		DevUserID:    getEnv("DEV_USER_ID", "dev-user"),
		SystemAdmins: getList("SYSTEM_ADMINS"),

		LLMProvider:     provider,
		LLMModel:        getEnv("LLM_MODEL", defaultModel(provider)),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		GoogleCredentialsFile:  getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		DrivePublish:           getBool("DRIVE_PUBLISH", false),
		SourceFetchConcurrency: getInt("SOURCE_FETCH_CONCURRENCY", 4),

		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 5*time.Minute),
		ProgressInterval:  getDuration("PROGRESS_INTERVAL", 2*time.Second),
		ProgressStep:      getInt("PROGRESS_STEP", 5),
		SweepInterval:     getDuration("SWEEP_INTERVAL", 30*time.Second),
		StaleGrace:        getDuration("STALE_GRACE", time.Minute),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getInt("LOG_MAX_FILES", 10),
	}
}

// Validate checks combinations Load cannot reject on its own
func (c *Config) Validate() error {
	if c.Environment == "prod" && c.JWKSURL == "" {
		return fmt.Errorf("AUTH_JWKS_URL is required in prod")
	}
	if c.LLMProvider == "anthropic" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required for LLM_PROVIDER=anthropic")
	}
	if c.DrivePublish && c.GoogleCredentialsFile == "" {
		return fmt.Errorf("DRIVE_PUBLISH requires GOOGLE_CREDENTIALS_FILE")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.ProgressInterval <= 0 || c.ProgressStep <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL and PROGRESS_STEP must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.SourceFetchConcurrency <= 0 {
		return fmt.Errorf("SOURCE_FETCH_CONCURRENCY must be positive")
	}
	return nil
}

// IsSystemAdmin reports whether userID is listed in SYSTEM_ADMINS
func (c *Config) IsSystemAdmin(userID string) bool {
	for _, id := range c.SystemAdmins {
		if id == userID {
			return true
		}
	}
	return false
}

// defaultModel picks a model the provider accepts
func defaultModel(provider string) string {
	if provider == "lorem" {
		return "lorem-fast"
	}
	return "claude-haiku-4-5-20251001"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return v
}
