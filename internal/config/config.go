package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SessionStoreMemory   = "memory"
	SessionStoreCookie   = "cookie"
	SessionStorePostgres = "postgres"
)

type Config struct {
	Port             string
	BaseURL          string
	LogMode          string
	FrontendOrigins  []string
	GeminiAPIKey     string
	GeminiModel      string
	ProcessorURL     string
	BackendTimeout   time.Duration
	MaxUploadBytes   int64
	SessionSecret    string
	SessionGenerated bool
	SessionStore     string
	SessionMaxAge    int
	DatabaseURL      string
	RedisAddr        string
	RedisLockTTL     time.Duration
	NotifyWebhookURL string
}

func Load() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.BaseURL = strings.TrimSuffix(envOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%s", cfg.Port)), "/")
	cfg.LogMode = envOrDefault("LOG_MODE", "dev")
	cfg.FrontendOrigins = splitList(envOrDefault("FRONTEND_URL", cfg.BaseURL))

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = envOrDefault("GEMINI_MODEL", "gemini-2.0-flash")

	cfg.ProcessorURL = envOrDefault("PROCESSOR_URL", cfg.BaseURL+"/api/process-files")
	timeout, err := parseDurationEnv("BACKEND_TIMEOUT", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKEND_TIMEOUT: %w", err)
	}
	cfg.BackendTimeout = timeout

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		cfg.SessionGenerated = true
	}

	cfg.SessionStore = strings.ToLower(envOrDefault("SESSION_STORE", SessionStoreMemory))
	switch cfg.SessionStore {
	case SessionStoreMemory, SessionStoreCookie, SessionStorePostgres:
	default:
		return Config{}, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	maxAge, err := parseIntEnv("SESSION_MAX_AGE", 86400)
	if err != nil {
		return Config{}, fmt.Errorf("parse SESSION_MAX_AGE: %w", err)
	}
	cfg.SessionMaxAge = int(maxAge)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.SessionStore == SessionStorePostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	lockTTL, err := parseDurationEnv("REDIS_LOCK_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_LOCK_TTL: %w", err)
	}
	cfg.RedisLockTTL = lockTTL

	cfg.NotifyWebhookURL = os.Getenv("NOTIFY_WEBHOOK_URL")

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSuffix(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
