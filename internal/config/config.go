package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	// Auth
	SiftAPIKey string

	// Model providers
	GeminiAPIKey    string
	AnthropicAPIKey string
	AnthropicURL    string
	DefaultModel    string

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	GenerationTimeout time.Duration

	// Input limits
	MaxUploadBytes int64
	MaxInputTokens int

	// Job state
	JobTTL time.Duration

	// GitHub import
	GitHubAPIURL            string
	GitHubToken             string
	GitHubRequestsPerSecond float64
	GitHubMaxConcurrent     int
	GitHubMaxFileBytes      int64

	// PDF
	PDFFallbackPdftotext bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set win.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:     envOr("PORT", "8090"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		SiftAPIKey: os.Getenv("SIFT_API_KEY"),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicURL:    envOr("ANTHROPIC_API_URL", "https://api.anthropic.com"),
		DefaultModel:    envOr("DEFAULT_MODEL", "gemini-2.5-flash"),

		WorkerCount:       envInt("WORKER_COUNT", 4),
		MaxQueueSize:      envInt("MAX_QUEUE_SIZE", 100),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 5*time.Minute),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxInputTokens: envInt("MAX_INPUT_TOKENS", 900000),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		GitHubAPIURL:            envOr("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:             os.Getenv("GITHUB_TOKEN"),
		GitHubRequestsPerSecond: envFloat("GITHUB_REQUESTS_PER_SECOND", 10),
		GitHubMaxConcurrent:     envInt("GITHUB_MAX_CONCURRENT", 8),
		GitHubMaxFileBytes:      envInt64("GITHUB_MAX_FILE_BYTES", 1000000),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 5 * time.Minute
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.GitHubRequestsPerSecond <= 0 {
		cfg.GitHubRequestsPerSecond = 10
	}
	if cfg.GitHubMaxConcurrent <= 0 {
		cfg.GitHubMaxConcurrent = 8
	}
	if cfg.GitHubMaxFileBytes <= 0 {
		cfg.GitHubMaxFileBytes = 1000000
	}

	return cfg
}

// Validate checks settings that cannot be defaulted. Provider keys are not
// required here: a model whose key is missing fails when it is used.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("DEFAULT_MODEL is required")
	}
	if c.GeminiAPIKey == "" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("at least one of GEMINI_API_KEY or ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
