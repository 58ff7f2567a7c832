package validator

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with upload checks for the API
type Validator struct {
	validate *validator.Validate
	config   *Config
}

// Config holds validation configuration
type Config struct {
	MaxFileSize      int64    `json:"max_file_size"`     // Maximum upload size in bytes
	MinFileSize      int64    `json:"min_file_size"`     // Minimum upload size in bytes
	AllowedMimeTypes []string `json:"allowed_mime_types"`
	MaxTotalPages    int      `json:"max_total_pages"`  // Upper bound on pages per document
	MaxBatchSize     int      `json:"max_batch_size"`   // Upper bound on pages per analysis batch
	MaxTokenCeiling  int      `json:"max_token_ceiling"` // Upper bound on maxTokens requests
}

// DefaultConfig returns default validation configuration
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:      100 * 1024 * 1024, // 100MB
		MinFileSize:      1,
		MaxTotalPages:    10000,
		MaxBatchSize:     2000,
		MaxTokenCeiling:  200000,
		AllowedMimeTypes: []string{"application/pdf"},
	}
}

// New creates a validator with the given configuration
func New(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Validator{
		validate: validator.New(),
		config:   config,
	}
}

// ValidateStruct validates struct tags on a request payload
func (v *Validator) ValidateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var messages []string
		for _, fieldErr := range err.(validator.ValidationErrors) {
			messages = append(messages, fmt.Sprintf("field %s failed %s validation", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}
	return nil
}

// ValidateUpload checks an uploaded document's size and detected type
func (v *Validator) ValidateUpload(data []byte) error {
	size := int64(len(data))
	if size < v.config.MinFileSize {
		return fmt.Errorf("file size %d bytes is below minimum of %d bytes", size, v.config.MinFileSize)
	}
	if size > v.config.MaxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", size, v.config.MaxFileSize)
	}

	detected := mimetype.Detect(data)
	for _, allowed := range v.config.AllowedMimeTypes {
		if detected.Is(allowed) {
			return nil
		}
	}
	return fmt.Errorf("file type %s is not supported", detected.String())
}

// ValidateTokenThresholds checks segmentation threshold parameters
func (v *Validator) ValidateTokenThresholds(minTokens, maxTokens int) error {
	if minTokens <= 0 {
		return fmt.Errorf("min_segment_tokens must be positive, got %d", minTokens)
	}
	if maxTokens <= 0 {
		return fmt.Errorf("max_segment_tokens must be positive, got %d", maxTokens)
	}
	if minTokens >= maxTokens {
		return fmt.Errorf("min_segment_tokens (%d) must be less than max_segment_tokens (%d)", minTokens, maxTokens)
	}
	if maxTokens > v.config.MaxTokenCeiling {
		return fmt.Errorf("max_segment_tokens (%d) exceeds ceiling of %d", maxTokens, v.config.MaxTokenCeiling)
	}
	return nil
}

// ValidateBatchParams checks orchestration parameters
func (v *Validator) ValidateBatchParams(totalPages, batchSize int) error {
	if totalPages <= 0 {
		return fmt.Errorf("total_pages must be positive, got %d", totalPages)
	}
	if totalPages > v.config.MaxTotalPages {
		return fmt.Errorf("total_pages (%d) exceeds maximum of %d", totalPages, v.config.MaxTotalPages)
	}
	if batchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", batchSize)
	}
	if batchSize > v.config.MaxBatchSize {
		return fmt.Errorf("batch_size (%d) exceeds maximum of %d", batchSize, v.config.MaxBatchSize)
	}
	return nil
}
