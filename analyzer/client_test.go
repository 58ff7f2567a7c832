package analyzer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/config"
	"docstitch/layout"
	"docstitch/pkg/errors"
)

func testClient(endpoint string) *Client {
	return NewClient(&config.AnalyzerConfig{
		Endpoint:     endpoint,
		APIKey:       "test-key",
		APIKeyHeader: "Ocp-Apim-Subscription-Key",
		Model:        "prebuilt-layout",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryDelay:   10 * time.Millisecond,
	})
}

// Test a successful analysis call
func TestAnalyzeRange(t *testing.T) {
	document := []byte("%PDF-1.7 sample")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documentModels/prebuilt-layout:analyze", r.URL.Path)
		assert.Equal(t, "3-4", r.URL.Query().Get("pages"))
		assert.Equal(t, "markdown", r.URL.Query().Get("outputContentFormat"))
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, document, body)

		json.NewEncoder(w).Encode(layout.Document{
			Content: "page text.",
			Pages:   []layout.Page{{PageNumber: 1}},
		})
	}))
	defer server.Close()

	doc, err := testClient(server.URL).AnalyzeRange(context.Background(), document, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, "page text.", doc.Content)
	require.Len(t, doc.Pages, 1)
}

// Test transient failures are retried
func TestAnalyzeRangeRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(layout.Document{Content: "recovered."})
	}))
	defer server.Close()

	doc, err := testClient(server.URL).AnalyzeRange(context.Background(), nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "recovered.", doc.Content)
	assert.Equal(t, int32(3), calls.Load())
}

// Test exhausted retries surface an upstream error
func TestAnalyzeRangeExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend overloaded"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).AnalyzeRange(context.Background(), nil, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, "UPSTREAM_CALL_FAILED"))
	assert.Contains(t, err.Error(), "pages 1-2")
	assert.Contains(t, err.Error(), "backend overloaded")
	assert.Equal(t, int32(3), calls.Load())
}

// Test an unparsable response fails
func TestAnalyzeRangeBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not json"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).AnalyzeRange(context.Background(), nil, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.UpstreamError))
}

// Test a missing endpoint is a configuration error
func TestAnalyzeRangeUnconfigured(t *testing.T) {
	_, err := testClient("").AnalyzeRange(context.Background(), nil, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ConfigError))
}

// Test cancellation stops retrying
func TestAnalyzeRangeCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(server.URL).AnalyzeRange(ctx, nil, 1, 2)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.UpstreamError))
}

// Test the orchestrator adapter binds the document bytes
func TestRangeFunc(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(layout.Document{Content: string(body)})
	}))
	defer server.Close()

	fn := RangeFunc(testClient(server.URL), []byte("bound document"))
	doc, err := fn(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "bound document", doc.Content)
}
