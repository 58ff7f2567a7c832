package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test error construction
func TestNew(t *testing.T) {
	err := New(ValidationError, "VALIDATION_FAILED", "field is required")

	assert.Equal(t, ValidationError, err.Type)
	assert.Equal(t, "VALIDATION_FAILED", err.Code)
	assert.Equal(t, "field is required", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.False(t, err.Timestamp.IsZero())
	assert.NotEmpty(t, err.File)
	assert.Greater(t, err.Line, 0)
}

// Test formatted construction
func TestNewf(t *testing.T) {
	err := Newf(ConfigError, "CONFIG_INVALID", "min tokens %d exceeds max tokens %d", 30, 20)
	assert.Equal(t, "min tokens 30 exceeds max tokens 20", err.Message)
}

// Test Error string rendering with and without details
func TestErrorString(t *testing.T) {
	err := New(ProcessingError, "PROCESSING_FAILED", "segmentation failed")
	assert.Equal(t, "PROCESSING_FAILED: segmentation failed", err.Error())

	err.Details = "no elements"
	assert.Equal(t, "PROCESSING_FAILED: segmentation failed (no elements)", err.Error())
}

// Test wrapping preserves the inner error
func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap(inner, UpstreamError, "UPSTREAM_CALL_FAILED", "analysis call failed")

	assert.Equal(t, UpstreamError, err.Type)
	assert.Equal(t, "connection refused", err.Details)
	assert.Equal(t, inner, err.Unwrap())
	assert.True(t, stderrors.Is(err, inner))
}

// Test wrapping a nil inner error leaves details empty
func TestWrapNil(t *testing.T) {
	err := Wrap(nil, InternalError, "INTERNAL_ERROR", "something broke")
	assert.Empty(t, err.Details)
	assert.Nil(t, err.Unwrap())
}

// Test HTTP status mapping per error type
func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		errType ErrorType
		status  int
	}{
		{StructureError, http.StatusBadRequest},
		{SequenceError, http.StatusBadRequest},
		{ConfigError, http.StatusBadRequest},
		{ValidationError, http.StatusBadRequest},
		{ProcessingError, http.StatusUnprocessableEntity},
		{NotFoundError, http.StatusNotFound},
		{TimeoutError, http.StatusRequestTimeout},
		{UpstreamError, http.StatusBadGateway},
		{InternalError, http.StatusInternalServerError},
		{ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := New(tt.errType, "CODE", "message")
			assert.Equal(t, tt.status, err.HTTPStatus)
			assert.Equal(t, tt.status, GetHTTPStatus(err))
		})
	}
}

// Test predefined pipeline constructors
func TestPipelineConstructors(t *testing.T) {
	structErr := NewStructureError("batch 2 has no pages")
	assert.Equal(t, StructureError, structErr.Type)
	assert.Equal(t, "BATCH_STRUCTURE_INVALID", structErr.Code)
	assert.Equal(t, http.StatusBadRequest, structErr.HTTPStatus)

	seqErr := NewSequenceError("gap between page 2 and 4")
	assert.Equal(t, "BATCH_SEQUENCE_INVALID", seqErr.Code)

	cfgErr := NewConfigError("min tokens must be positive")
	assert.Equal(t, "CONFIG_INVALID", cfgErr.Code)

	inner := fmt.Errorf("dial tcp: timeout")
	upErr := NewUpstreamError("pages 3-4 failed", inner)
	assert.Equal(t, "UPSTREAM_CALL_FAILED", upErr.Code)
	assert.Equal(t, http.StatusBadGateway, upErr.HTTPStatus)
	assert.Equal(t, inner, upErr.Unwrap())

	nfErr := NewNotFoundError("job")
	assert.Equal(t, "job not found", nfErr.Message)
	assert.Equal(t, http.StatusNotFound, nfErr.HTTPStatus)
}

// Test WithContext accumulates context values
func TestWithContext(t *testing.T) {
	err := NewProcessingError("stitch failed").
		WithContext("batch_index", 2).
		WithContext("total_batches", 5)

	assert.Equal(t, 2, err.Context["batch_index"])
	assert.Equal(t, 5, err.Context["total_batches"])
}

// Test type and code checks
func TestIsTypeAndIsCode(t *testing.T) {
	err := NewSequenceError("pages restart at 1")

	assert.True(t, IsType(err, SequenceError))
	assert.False(t, IsType(err, StructureError))
	assert.True(t, IsCode(err, "BATCH_SEQUENCE_INVALID"))
	assert.False(t, IsCode(err, "CONFIG_INVALID"))

	plain := fmt.Errorf("plain error")
	assert.False(t, IsType(plain, SequenceError))
	assert.False(t, IsCode(plain, "BATCH_SEQUENCE_INVALID"))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(plain))
}

// Test AsAppError passes through typed errors and wraps plain ones
func TestAsAppError(t *testing.T) {
	typed := NewConfigError("bad preset")
	assert.Same(t, typed, AsAppError(typed))

	plain := fmt.Errorf("boom")
	wrapped := AsAppError(plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, InternalError, wrapped.Type)
	assert.Equal(t, "INTERNAL_ERROR", wrapped.Code)
	assert.Equal(t, plain, wrapped.Unwrap())
}

// Test the API error envelope
func TestNewErrorResponse(t *testing.T) {
	err := NewValidationError("total_pages is required")
	resp := NewErrorResponse(err)

	assert.False(t, resp.Success)
	assert.Equal(t, err, resp.Error)
}
