// Package config handles loading application configuration from environment variables.
// All settings have sensible defaults for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application settings loaded from environment variables.
type Config struct {
	Port               string
	StaticDir          string
	CORSAllowedOrigins []string
	TrustedProxies     []string
	RateLimitPerMinute int
	SentryDSN          string
	SentryDSNFrontend  string
	SentryEnvironment  string

	// Websocket tunables. MaxMessageBytes bounds a single inbound frame,
	// which carries a full document snapshot on code-change and sync-code.
	WSSendBuffer      int
	WSMaxMessageBytes int64
	WSEventsPerSecond int
	WSWriteTimeout    time.Duration
	WSPongTimeout     time.Duration
}

// Load reads configuration from environment variables, using defaults where not set.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "5000"),
		StaticDir:          getEnv("STATIC_DIR", ""),
		CORSAllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:     getStringSliceEnv("TRUSTED_PROXIES"),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		SentryDSNFrontend:  getEnv("SENTRY_DSN_FRONTEND", ""),
		SentryEnvironment:  getEnv("SENTRY_ENVIRONMENT", "production"),
		WSSendBuffer:       getIntEnv("WS_SEND_BUFFER", 256),
		WSMaxMessageBytes:  int64(getIntEnv("WS_MAX_MESSAGE_BYTES", 1<<20)),
		WSEventsPerSecond:  getIntEnv("WS_EVENTS_PER_SECOND", 40),
		WSWriteTimeout:     getDurationEnv("WS_WRITE_TIMEOUT", 10*time.Second),
		WSPongTimeout:      getDurationEnv("WS_PONG_TIMEOUT", 60*time.Second),
	}
}

func getStringSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
