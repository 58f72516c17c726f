package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 2*time.Hour, cfg.RetentionWindow)
	assert.Equal(t, 10*time.Minute, cfg.ReapInterval)
	assert.Equal(t, 500, cfg.MaxSourceMB)
	assert.Equal(t, 2, cfg.ConvertConcurrency)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("RETENTION_WINDOW", "30m")
	t.Setenv("MAX_SOURCE_MB", "100")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, 30*time.Minute, cfg.RetentionWindow)
	assert.Equal(t, 100, cfg.MaxSourceMB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("RETENTION_WINDOW", "not-a-duration")
	t.Setenv("REAP_INTERVAL", "-5m")
	t.Setenv("MAX_SOURCE_MB", "zero")
	t.Setenv("CONVERT_CONCURRENCY", "-1")

	cfg := Load()

	assert.Equal(t, 2*time.Hour, cfg.RetentionWindow)
	assert.Equal(t, 10*time.Minute, cfg.ReapInterval)
	assert.Equal(t, 500, cfg.MaxSourceMB)
	assert.Equal(t, 2, cfg.ConvertConcurrency)
}
