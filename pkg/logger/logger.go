package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ContextKey is used to store correlation IDs in context
type ContextKey string

const (
	CorrelationIDKey ContextKey = "correlation_id"
	RequestIDKey     ContextKey = "request_id"
)

// Logger wraps zerolog with additional functionality
type Logger struct {
	*zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string `json:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format     string `json:"format" validate:"oneof=json console"`
	Output     string `json:"output" validate:"oneof=stdout stderr file"`
	Filename   string `json:"filename,omitempty"`
	TimeFormat string `json:"time_format"`
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new structured logger
func New(config *Config) (*Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = config.TimeFormat

	var output io.Writer
	switch config.Output {
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	case "file":
		if config.Filename == "" {
			config.Filename = "logs/app.log"
		}
		file, err := os.OpenFile(config.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		output = file
	default:
		output = os.Stdout
	}

	var logger zerolog.Logger
	if config.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Caller().
			Logger()
	} else {
		logger = zerolog.New(output).
			With().
			Timestamp().
			Caller().
			Logger()
	}

	return &Logger{Logger: &logger}, nil
}

// WithCorrelationID adds a correlation ID to the context
func WithCorrelationID(ctx context.Context) context.Context {
	correlationID := uuid.New().String()
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext creates a logger with context values
func (l *Logger) FromContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With()

	if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok {
		logger = logger.Str("correlation_id", correlationID)
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		logger = logger.Str("request_id", requestID)
	}

	contextLogger := logger.Logger()
	return &contextLogger
}

// LogStitchStart logs the start of a batch-assembly run
func (l *Logger) LogStitchStart(ctx context.Context, sourceFile string, totalPages, batchSize int) {
	l.FromContext(ctx).Info().
		Str("source_file", sourceFile).
		Int("total_pages", totalPages).
		Int("batch_size", batchSize).
		Msg("Batch assembly started")
}

// LogStitchComplete logs a finished batch-assembly run
func (l *Logger) LogStitchComplete(ctx context.Context, sourceFile string, batches int, duration time.Duration) {
	l.FromContext(ctx).Info().
		Str("source_file", sourceFile).
		Int("batches", batches).
		Dur("duration", duration).
		Msg("Batch assembly completed")
}

// LogSegmentation logs the outcome of a segmentation run
func (l *Logger) LogSegmentation(ctx context.Context, sourceFile string, elements, segments, totalTokens int) {
	l.FromContext(ctx).Info().
		Str("source_file", sourceFile).
		Int("elements", elements).
		Int("segments", segments).
		Int("total_tokens", totalTokens).
		Msg("Segmentation completed")
}

// LogFiltering logs the outcome of a field-filtering run
func (l *Logger) LogFiltering(ctx context.Context, preset string, total, kept int, reductionPct float64) {
	l.FromContext(ctx).Info().
		Str("preset", preset).
		Int("total_elements", total).
		Int("filtered_elements", kept).
		Float64("reduction_percentage", reductionPct).
		Msg("Field filtering completed")
}

// LogError logs error with context
func (l *Logger) LogError(ctx context.Context, err error, msg string, fields map[string]any) {
	event := l.FromContext(ctx).Error().Err(err)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

// Global logger instance
var globalLogger *Logger

// Init initializes the global logger
func Init(config *Config) error {
	logger, err := New(config)
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// Get returns the global logger
func Get() *Logger {
	if globalLogger == nil {
		// Fallback to default logger
		logger, _ := New(DefaultConfig())
		globalLogger = logger
	}
	return globalLogger
}

// Info logs an info message
func Info() *zerolog.Event {
	return log.Info()
}

// Error logs an error message
func Error() *zerolog.Event {
	return log.Error()
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return log.Debug()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return log.Warn()
}

// Fatal logs a fatal message and exits
func Fatal() *zerolog.Event {
	return log.Fatal()
}
