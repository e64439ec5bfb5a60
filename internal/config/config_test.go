package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WORKER_COUNT", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("GITHUB_MAX_FILE_BYTES", "")

	cfg := Load()
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 5*time.Minute, cfg.GenerationTimeout)
	assert.Equal(t, int64(1000000), cfg.GitHubMaxFileBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("GITHUB_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 4, cfg.WorkerCount, "non-positive worker count falls back to 4")
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, 2.5, cfg.GitHubRequestsPerSecond)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestValidate(t *testing.T) {
	valid := Config{Port: "8090", LogLevel: "info", DefaultModel: "gemini-2.5-flash", GeminiAPIKey: "k"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"no default model", func(c *Config) { c.DefaultModel = "" }},
		{"no provider key", func(c *Config) { c.GeminiAPIKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
