package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/layout"
	"docstitch/pkg/errors"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func segDoc() *layout.Document {
	return &layout.Document{
		Content: "ignored",
		Pages:   []layout.Page{{PageNumber: 1}},
		Paragraphs: []layout.Element{
			{ID: "p0", Content: "Report Title", Role: "h1", Spans: []layout.Span{{Offset: 0, Length: 12}}},
			{ID: "p1", Content: "first body paragraph with several words", Spans: []layout.Span{{Offset: 20, Length: 39}}},
			{ID: "p2", Content: "Second Section", Role: "h2", Spans: []layout.Span{{Offset: 70, Length: 14}}},
			{ID: "p3", Content: "closing words", Spans: []layout.Span{{Offset: 90, Length: 13}}},
		},
	}
}

// Test filtered segmentation splits on headings and partitions mappings
func TestFilteredSegment(t *testing.T) {
	s := NewSegmenter(New(), wordCounter{})

	cfg := Config{Preset: PresetLLMReady, IncludeIDs: true}
	segments, mappings, metrics, err := s.Segment(segDoc(), cfg, "report.pdf", 3, 100)
	require.NoError(t, err)

	require.Len(t, segments, 2)
	require.Len(t, mappings, 2)
	require.NotNil(t, metrics)

	assert.Equal(t, 1, segments[0].SegmentID)
	assert.Equal(t, "report.pdf", segments[0].SourceFile)
	assert.Len(t, segments[0].Elements, 2)
	assert.Len(t, segments[1].Elements, 2)

	// Each segment's mappings cover exactly its own elements.
	require.Len(t, mappings[0], 2)
	assert.Equal(t, "p0", mappings[0][0].SourceElementID)
	assert.Equal(t, "p1", mappings[0][1].SourceElementID)
	require.Len(t, mappings[1], 2)
	assert.Equal(t, "p2", mappings[1][0].SourceElementID)
	assert.Equal(t, "p3", mappings[1][1].SourceElementID)

	assert.Equal(t, 4, metrics.FilteredElements)
}

// Test heading context survives filtering when role is kept
func TestFilteredSegmentContext(t *testing.T) {
	s := NewSegmenter(New(), wordCounter{})

	segments, _, _, err := s.Segment(segDoc(), Config{Preset: PresetLLMReady, IncludeIDs: true}, "report.pdf", 3, 100)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "Report Title", segments[0].StructuralContext.Level(1))
	assert.Equal(t, "", segments[0].StructuralContext.Level(2))
	assert.Equal(t, "Second Section", segments[1].StructuralContext.Level(2))
}

// Test a preset without role produces no heading boundaries
func TestFilteredSegmentWithoutRole(t *testing.T) {
	s := NewSegmenter(New(), wordCounter{})

	// citation_optimized drops role, so headings cannot close segments.
	segments, _, _, err := s.Segment(segDoc(), Config{Preset: PresetCitation, IncludeIDs: true}, "report.pdf", 3, 100)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Len(t, segments[0].Elements, 4)
}

// Test threshold validation
func TestFilteredSegmentValidation(t *testing.T) {
	s := NewSegmenter(New(), wordCounter{})

	_, _, _, err := s.Segment(segDoc(), DefaultConfig(), "", 3, 100)
	assert.True(t, errors.IsType(err, errors.ConfigError))

	_, _, _, err = s.Segment(segDoc(), DefaultConfig(), "report.pdf", 0, 100)
	assert.True(t, errors.IsType(err, errors.ConfigError))

	_, _, _, err = s.Segment(segDoc(), DefaultConfig(), "report.pdf", 100, 100)
	assert.True(t, errors.IsType(err, errors.ConfigError))
}

// Test an empty document produces no segments
func TestFilteredSegmentEmpty(t *testing.T) {
	s := NewSegmenter(New(), wordCounter{})

	segments, mappings, metrics, err := s.Segment(&layout.Document{}, DefaultConfig(), "report.pdf", 3, 100)
	require.NoError(t, err)
	assert.Empty(t, segments)
	assert.Empty(t, mappings)
	assert.Equal(t, 0, metrics.FilteredElements)
}

// Test filtered element accessors
func TestElementAccessors(t *testing.T) {
	e := Element{
		FieldContent: "body",
		"role":       "h2",
		FieldID:      "p9",
	}
	assert.Equal(t, "body", e.Content())
	assert.Equal(t, "h2", e.Role())
	assert.Equal(t, "p9", e.ID())

	empty := Element{}
	assert.Equal(t, "", empty.Content())
	assert.Equal(t, "", empty.Role())
	assert.Equal(t, "", empty.ID())
}
