package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the docstitch worker
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Worker    WorkerConfig
	Analyzer  AnalyzerConfig
	Segmenter SegmenterConfig
	Cache     CacheConfig
	Logging   LoggingConfig
	Metrics   MetricsConfig
	Security  SecurityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string
	BodyLimit    int
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	MaxConcurrency int
	QueueName      string
	RetryCount     int
	RetryDelay     time.Duration
}

// AnalyzerConfig holds document-analysis service configuration
type AnalyzerConfig struct {
	Endpoint     string
	APIKey       string
	APIKeyHeader string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	BatchSize    int
}

// SegmenterConfig holds default segmentation thresholds
type SegmenterConfig struct {
	MinTokens int
	MaxTokens int
}

// CacheConfig holds extraction result cache configuration
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LoggingConfig holds structured logging configuration
type LoggingConfig struct {
	Level      string
	Format     string
	Output     string
	Filename   string
	TimeFormat string
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled   bool
	Namespace string
	Subsystem string
	Path      string
}

// SecurityConfig holds API authentication configuration
type SecurityConfig struct {
	Enabled      bool
	JWTSecret    string
	APIKeyHeader string
	APIKeys      []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 60*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 180*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
			BodyLimit:    getInt("SERVER_BODY_LIMIT", 100*1024*1024),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Worker: WorkerConfig{
			MaxConcurrency: getInt("WORKER_MAX_CONCURRENCY", 4),
			QueueName:      getEnv("WORKER_QUEUE_NAME", "docstitch_jobs"),
			RetryCount:     getInt("WORKER_RETRY_COUNT", 3),
			RetryDelay:     getDuration("WORKER_RETRY_DELAY", 5*time.Second),
		},
		Analyzer: AnalyzerConfig{
			Endpoint:     getEnv("ANALYZER_ENDPOINT", ""),
			APIKey:       getEnv("ANALYZER_API_KEY", ""),
			APIKeyHeader: getEnv("ANALYZER_API_KEY_HEADER", "Ocp-Apim-Subscription-Key"),
			Model:        getEnv("ANALYZER_MODEL", "prebuilt-layout"),
			Timeout:      getDuration("ANALYZER_TIMEOUT", 5*time.Minute),
			MaxRetries:   getInt("ANALYZER_MAX_RETRIES", 3),
			RetryDelay:   getDuration("ANALYZER_RETRY_DELAY", 2*time.Second),
			BatchSize:    getInt("ANALYZER_BATCH_SIZE", 1500),
		},
		Segmenter: SegmenterConfig{
			MinTokens: getInt("SEGMENT_MIN_TOKENS", 10000),
			MaxTokens: getInt("SEGMENT_MAX_TOKENS", 30000),
		},
		Cache: CacheConfig{
			Enabled: getBool("CACHE_ENABLED", false),
			TTL:     getDuration("CACHE_TTL", time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			Filename:   getEnv("LOG_FILENAME", ""),
			TimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		},
		Metrics: MetricsConfig{
			Enabled:   getBool("METRICS_ENABLED", true),
			Namespace: getEnv("METRICS_NAMESPACE", "docstitch"),
			Subsystem: getEnv("METRICS_SUBSYSTEM", "pipeline"),
			Path:      getEnv("METRICS_PATH", "/metrics"),
		},
		Security: SecurityConfig{
			Enabled:      getBool("SECURITY_ENABLED", false),
			JWTSecret:    getEnv("SECURITY_JWT_SECRET", ""),
			APIKeyHeader: getEnv("SECURITY_API_KEY_HEADER", "X-API-Key"),
			APIKeys:      getList("SECURITY_API_KEYS", nil),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid integer for %s: %s, using default %d", key, value, fallback)
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Printf("Invalid boolean for %s: %s, using default %v", key, value, fallback)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Invalid duration for %s: %s, using default %v", key, value, fallback)
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
