package config

import (
	"os"
	"strconv"
	"time"

	"github.com/powerm17/automated-home-decor/internal/upload"
)

type Config struct {
	BackendURL string

	Port           string
	Variant        string
	SessionTTL     time.Duration
	MaxUploadBytes int64

	UploadRateLimitRPS   float64
	UploadRateLimitBurst int

	LogLevel  string
	LogFormat string
}

// Load reads the environment (after .env has been applied by the root command).
func Load() Config {
	return Config{
		BackendURL: mustEnv("ROOMDECOR_BACKEND_URL", upload.DefaultURL),

		Port:           mustEnv("ROOMDECOR_PORT", "3000"),
		Variant:        mustEnv("ROOMDECOR_VARIANT", "standard"),
		SessionTTL:     mustEnvDuration("ROOMDECOR_SESSION_TTL", 30*time.Minute),
		MaxUploadBytes: int64(mustEnvInt("ROOMDECOR_MAX_UPLOAD_BYTES", 10*1024*1024)),

		UploadRateLimitRPS:   mustEnvFloat("ROOMDECOR_UPLOAD_RPS", 5),
		UploadRateLimitBurst: mustEnvInt("ROOMDECOR_UPLOAD_BURST", 10),

		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "text"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
