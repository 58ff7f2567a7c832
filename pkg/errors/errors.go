package errors

import (
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Pipeline error types
	StructureError ErrorType = "structure_error" // malformed batch document
	SequenceError  ErrorType = "sequence_error"  // non-contiguous page numbering
	ConfigError    ErrorType = "config_error"    // invalid segmentation/filter configuration
	UpstreamError  ErrorType = "upstream_error"  // analysis-service call failed

	// General error types
	ValidationError ErrorType = "validation_error"
	ProcessingError ErrorType = "processing_error"
	NotFoundError   ErrorType = "not_found_error"
	TimeoutError    ErrorType = "timeout_error"
	InternalError   ErrorType = "internal_error"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    string         `json:"details,omitempty"`
	HTTPStatus int            `json:"http_status"`
	Timestamp  time.Time      `json:"timestamp"`
	File       string         `json:"file,omitempty"`
	Line       int            `json:"line,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	InnerError error          `json:"-"` // Not serialized
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new AppError
func New(errType ErrorType, code, message string) *AppError {
	err := &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: getHTTPStatus(errType),
		Timestamp:  time.Now(),
	}

	if _, file, line, ok := runtime.Caller(1); ok {
		err.File = file
		err.Line = line
	}

	return err
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	appErr := New(errType, code, message)
	appErr.InnerError = err
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// Newf creates a new AppError with formatted message
func Newf(errType ErrorType, code, format string, args ...any) *AppError {
	return New(errType, code, fmt.Sprintf(format, args...))
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, errType ErrorType, code, format string, args ...any) *AppError {
	return Wrap(err, errType, code, fmt.Sprintf(format, args...))
}

// Predefined error constructors

// NewStructureError reports a malformed batch document
func NewStructureError(message string) *AppError {
	return New(StructureError, "BATCH_STRUCTURE_INVALID", message)
}

// NewSequenceError reports non-contiguous page numbering across batches
func NewSequenceError(message string) *AppError {
	return New(SequenceError, "BATCH_SEQUENCE_INVALID", message)
}

// NewConfigError reports invalid segmentation or filter configuration
func NewConfigError(message string) *AppError {
	return New(ConfigError, "CONFIG_INVALID", message)
}

// NewUpstreamError reports a failed analysis-service call
func NewUpstreamError(message string, inner error) *AppError {
	return Wrap(inner, UpstreamError, "UPSTREAM_CALL_FAILED", message)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return New(ValidationError, "VALIDATION_FAILED", message)
}

// NewProcessingError creates a processing error
func NewProcessingError(message string) *AppError {
	return New(ProcessingError, "PROCESSING_FAILED", message)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return New(NotFoundError, "NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return New(InternalError, "INTERNAL_ERROR", message)
}

// ErrorResponse is the error envelope returned by the API
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{Error: err, Success: false}
}

// getHTTPStatus maps error types to HTTP status codes
func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case StructureError, SequenceError, ConfigError, ValidationError:
		return http.StatusBadRequest
	case ProcessingError:
		return http.StatusUnprocessableEntity
	case NotFoundError:
		return http.StatusNotFound
	case TimeoutError:
		return http.StatusRequestTimeout
	case UpstreamError:
		return http.StatusBadGateway
	case InternalError:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errType
	}
	return false
}

// IsCode checks if the error has a specific code
func IsCode(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns the HTTP status code for an error
func GetHTTPStatus(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// AsAppError converts any error into an AppError, wrapping unknown errors as
// internal ones so the API layer always has a typed error to render.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, InternalError, "INTERNAL_ERROR", "unexpected error")
}
