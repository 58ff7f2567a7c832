// Package analyzer is the boundary to the external document-analysis
// service: it submits a document byte stream for one page range and decodes
// the returned layout batch. Retry policy lives here, not in the stitching
// orchestrator.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docstitch/config"
	"docstitch/layout"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
	"docstitch/stitch"
)

// RangeAnalyzer produces one batch's layout result for an inclusive page
// range of a document.
type RangeAnalyzer interface {
	AnalyzeRange(ctx context.Context, document []byte, startPage, endPage int) (*layout.Document, error)
}

// Client calls the analysis service over HTTP.
type Client struct {
	endpoint     string
	apiKey       string
	apiKeyHeader string
	model        string
	maxRetries   int
	retryDelay   time.Duration
	httpClient   *http.Client
	log          *logger.Logger
}

// NewClient creates an analysis-service client from configuration.
func NewClient(cfg *config.AnalyzerConfig) *Client {
	return &Client{
		endpoint:     cfg.Endpoint,
		apiKey:       cfg.APIKey,
		apiKeyHeader: cfg.APIKeyHeader,
		model:        cfg.Model,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          logger.Get(),
	}
}

// AnalyzeRange submits the document for one page range and decodes the
// layout batch. The returned batch's page numbers and span offsets are
// relative to the range alone; the stitcher corrects them later.
func (c *Client) AnalyzeRange(ctx context.Context, document []byte, startPage, endPage int) (*layout.Document, error) {
	if c.endpoint == "" {
		return nil, errors.NewConfigError("analyzer endpoint is not configured")
	}

	url := fmt.Sprintf("%s/documentModels/%s:analyze?pages=%d-%d&outputContentFormat=markdown",
		c.endpoint, c.model, startPage, endPage)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn().
				Int("attempt", attempt).
				Int("start_page", startPage).
				Int("end_page", endPage).
				Err(lastErr).
				Msg("Retrying analysis request")
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, errors.NewUpstreamError("analysis cancelled", ctx.Err())
			}
		}

		doc, err := c.analyzeOnce(ctx, url, document)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, errors.NewUpstreamError(
		fmt.Sprintf("analysis of pages %d-%d failed after %d attempts", startPage, endPage, c.maxRetries+1),
		lastErr)
}

func (c *Client) analyzeOnce(ctx context.Context, url string, document []byte) (*layout.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(document))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/pdf")
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, string(body))
	}

	var doc layout.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode analysis result: %w", err)
	}
	return &doc, nil
}

// RangeFunc adapts the analyzer to the orchestrator's per-range callback for
// a fixed document byte stream.
func RangeFunc(a RangeAnalyzer, document []byte) stitch.AnalyzeRangeFunc {
	return func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		return a.AnalyzeRange(ctx, document, startPage, endPage)
	}
}
