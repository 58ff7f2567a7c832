package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Test defaults with no environment overrides
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 100*1024*1024, cfg.Server.BodyLimit)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, 4, cfg.Worker.MaxConcurrency)
	assert.Equal(t, "docstitch_jobs", cfg.Worker.QueueName)
	assert.Equal(t, 3, cfg.Worker.RetryCount)
	assert.Equal(t, 5*time.Second, cfg.Worker.RetryDelay)

	assert.Equal(t, "Ocp-Apim-Subscription-Key", cfg.Analyzer.APIKeyHeader)
	assert.Equal(t, "prebuilt-layout", cfg.Analyzer.Model)
	assert.Equal(t, 5*time.Minute, cfg.Analyzer.Timeout)
	assert.Equal(t, 1500, cfg.Analyzer.BatchSize)

	assert.Equal(t, 10000, cfg.Segmenter.MinTokens)
	assert.Equal(t, 30000, cfg.Segmenter.MaxTokens)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "docstitch", cfg.Metrics.Namespace)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.False(t, cfg.Security.Enabled)
	assert.Equal(t, "X-API-Key", cfg.Security.APIKeyHeader)
	assert.Nil(t, cfg.Security.APIKeys)
}

// Test environment variable overrides
func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("WORKER_MAX_CONCURRENCY", "16")
	t.Setenv("WORKER_RETRY_DELAY", "30s")
	t.Setenv("ANALYZER_ENDPOINT", "https://analyzer.example.com")
	t.Setenv("ANALYZER_BATCH_SIZE", "500")
	t.Setenv("SEGMENT_MIN_TOKENS", "2000")
	t.Setenv("SEGMENT_MAX_TOKENS", "8000")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SECURITY_ENABLED", "true")
	t.Setenv("SECURITY_API_KEYS", "key-one, key-two,key-three")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, 16, cfg.Worker.MaxConcurrency)
	assert.Equal(t, 30*time.Second, cfg.Worker.RetryDelay)
	assert.Equal(t, "https://analyzer.example.com", cfg.Analyzer.Endpoint)
	assert.Equal(t, 500, cfg.Analyzer.BatchSize)
	assert.Equal(t, 2000, cfg.Segmenter.MinTokens)
	assert.Equal(t, 8000, cfg.Segmenter.MaxTokens)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Security.Enabled)
	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.Security.APIKeys)
}

// Test invalid values fall back to defaults
func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("WORKER_MAX_CONCURRENCY", "many")
	t.Setenv("WORKER_RETRY_DELAY", "soon")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 4, cfg.Worker.MaxConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Worker.RetryDelay)
	assert.True(t, cfg.Metrics.Enabled)
}
