package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// %PDF magic bytes make mimetype report application/pdf
var pdfSample = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF")

// Test struct tag validation
func TestValidateStruct(t *testing.T) {
	type request struct {
		SourceFile string `validate:"required"`
		MinTokens  int    `validate:"gte=0"`
	}

	v := New(nil)

	assert.NoError(t, v.ValidateStruct(request{SourceFile: "report.pdf", MinTokens: 100}))

	err := v.ValidateStruct(request{MinTokens: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SourceFile failed required validation")
	assert.Contains(t, err.Error(), "MinTokens failed gte validation")
}

// Test upload validation accepts a PDF within size bounds
func TestValidateUpload(t *testing.T) {
	v := New(nil)
	assert.NoError(t, v.ValidateUpload(pdfSample))
}

// Test upload size bounds
func TestValidateUploadSize(t *testing.T) {
	v := New(&Config{
		MaxFileSize:      16,
		MinFileSize:      4,
		AllowedMimeTypes: []string{"application/pdf"},
	})

	err := v.ValidateUpload([]byte("ab"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")

	err = v.ValidateUpload(pdfSample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

// Test rejected mime types
func TestValidateUploadType(t *testing.T) {
	v := New(nil)

	err := v.ValidateUpload([]byte("just some plain text, definitely not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

// Test segmentation threshold validation
func TestValidateTokenThresholds(t *testing.T) {
	v := New(nil)

	assert.NoError(t, v.ValidateTokenThresholds(10000, 30000))

	tests := []struct {
		name     string
		min, max int
		contains string
	}{
		{"zero min", 0, 100, "min_segment_tokens must be positive"},
		{"zero max", 100, 0, "max_segment_tokens must be positive"},
		{"min equals max", 100, 100, "must be less than"},
		{"min above max", 200, 100, "must be less than"},
		{"above ceiling", 100, 300000, "exceeds ceiling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTokenThresholds(tt.min, tt.max)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// Test batch parameter validation
func TestValidateBatchParams(t *testing.T) {
	v := New(nil)

	assert.NoError(t, v.ValidateBatchParams(10, 2))
	assert.NoError(t, v.ValidateBatchParams(1, 1))

	tests := []struct {
		name        string
		pages, size int
		contains    string
	}{
		{"zero pages", 0, 2, "total_pages must be positive"},
		{"too many pages", 20000, 2, "exceeds maximum"},
		{"zero batch size", 10, 0, "batch_size must be positive"},
		{"oversized batch", 10, 5000, "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBatchParams(tt.pages, tt.size)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
