package stitch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/layout"
	"docstitch/pkg/errors"
)

// rangeDoc simulates an analysis result for one page range: pages numbered
// from 1 regardless of the range position, the way a per-range analysis
// call reports them.
func rangeDoc(startPage, endPage int) *layout.Document {
	doc := &layout.Document{}
	offset := 0
	for page := startPage; page <= endPage; page++ {
		content := fmt.Sprintf("page %d.", page)
		relative := page - startPage + 1
		doc.Content += content
		doc.Pages = append(doc.Pages, layout.Page{PageNumber: relative})
		doc.Paragraphs = append(doc.Paragraphs, layout.Element{
			Content:         content,
			Spans:           []layout.Span{{Offset: offset, Length: len(content)}},
			BoundingRegions: []layout.BoundingRegion{{PageNumber: relative}},
		})
		offset += len(content)
	}
	return doc
}

// Test concurrent assembly merges ranges in page order
func TestAssembleAll(t *testing.T) {
	orch := NewOrchestrator(nil)

	analyze := func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		// Later ranges finish first to exercise the result reordering.
		if startPage == 1 {
			time.Sleep(30 * time.Millisecond)
		}
		return rangeDoc(startPage, endPage), nil
	}

	merged, err := orch.AssembleAll(context.Background(), 5, 2, analyze)
	require.NoError(t, err)

	require.Len(t, merged.Pages, 5)
	for i, page := range merged.Pages {
		assert.Equal(t, i+1, page.PageNumber)
	}

	assert.Equal(t, "page 1.page 2.page 3.page 4.page 5.", merged.Content)

	for _, p := range merged.Paragraphs {
		span := p.Spans[0]
		assert.Equal(t, p.Content, merged.Content[span.Offset:span.End()])
	}
}

// Test a single batch covering everything
func TestAssembleAllSingleBatch(t *testing.T) {
	orch := NewOrchestrator(nil)

	merged, err := orch.AssembleAll(context.Background(), 3, 10, func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		assert.Equal(t, 1, startPage)
		assert.Equal(t, 3, endPage)
		return rangeDoc(startPage, endPage), nil
	})
	require.NoError(t, err)
	assert.Len(t, merged.Pages, 3)
}

// Test one failing range fails the whole run with no partial result
func TestAssembleAllFailure(t *testing.T) {
	orch := NewOrchestrator(nil)

	analyze := func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		if startPage == 3 {
			return nil, fmt.Errorf("service unavailable")
		}
		return rangeDoc(startPage, endPage), nil
	}

	merged, err := orch.AssembleAll(context.Background(), 6, 2, analyze)
	require.Error(t, err)
	assert.Nil(t, merged)
	assert.True(t, errors.IsType(err, errors.UpstreamError))
	assert.Contains(t, err.Error(), "pages 3-4")
}

// Test parameter validation
func TestAssembleAllValidation(t *testing.T) {
	orch := NewOrchestrator(nil)
	noop := func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		return rangeDoc(startPage, endPage), nil
	}

	_, err := orch.AssembleAll(context.Background(), 0, 2, noop)
	assert.True(t, errors.IsType(err, errors.ConfigError))

	_, err = orch.AssembleAll(context.Background(), 5, 0, noop)
	assert.True(t, errors.IsType(err, errors.ConfigError))

	_, err = orch.AssembleAll(context.Background(), 5, 2, nil)
	assert.True(t, errors.IsType(err, errors.ConfigError))
}

// Test cancellation propagates to in-flight ranges
func TestAssembleAllCancellation(t *testing.T) {
	orch := NewOrchestrator(nil)

	analyze := func(ctx context.Context, startPage, endPage int) (*layout.Document, error) {
		if startPage == 1 {
			return nil, fmt.Errorf("boom")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return rangeDoc(startPage, endPage), nil
		}
	}

	start := time.Now()
	_, err := orch.AssembleAll(context.Background(), 4, 2, analyze)
	require.Error(t, err)
	// The failing range cancels the sibling instead of waiting it out.
	assert.Less(t, time.Since(start), 3*time.Second)
}
