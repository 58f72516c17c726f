package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr   string
	DownloadDir  string
	ConvertedDir string

	RetentionWindow time.Duration
	ReapInterval    time.Duration
	FetchTimeout    time.Duration
	ConvertTimeout  time.Duration
	CancelGrace     time.Duration

	MaxSourceMB        int
	ConvertConcurrency int

	LogLevel string
}

// Load reads a .env file if present, then environment variables, and
// returns normalized runtime config.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		DownloadDir:        getEnv("DOWNLOAD_DIR", "./temp_videos"),
		ConvertedDir:       getEnv("CONVERTED_DIR", "./converted_videos"),
		RetentionWindow:    getEnvDuration("RETENTION_WINDOW", 2*time.Hour),
		ReapInterval:       getEnvDuration("REAP_INTERVAL", 10*time.Minute),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 2*time.Minute),
		ConvertTimeout:     getEnvDuration("CONVERT_TIMEOUT", 10*time.Minute),
		CancelGrace:        getEnvDuration("CANCEL_GRACE", 3*time.Second),
		MaxSourceMB:        getEnvInt("MAX_SOURCE_MB", 500),
		ConvertConcurrency: getEnvInt("CONVERT_CONCURRENCY", 2),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	out, err := time.ParseDuration(value)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}
