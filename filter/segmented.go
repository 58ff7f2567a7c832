package filter

import (
	"docstitch/layout"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
	"docstitch/segment"
)

// FilteredSegment is a token-bounded group of filtered elements. Boundaries
// are computed over the reduced elements, so token counts reflect what a
// downstream consumer actually receives.
type FilteredSegment struct {
	SegmentID         int             `json:"segment_id"`
	SourceFile        string          `json:"source_file"`
	TokenCount        int             `json:"token_count"`
	StructuralContext segment.Context `json:"structural_context"`
	Elements          []Element       `json:"elements"`
}

// Segmenter composes field filtering with segmentation: filter first, then
// partition the filtered stream, then split the element mappings per segment.
type Segmenter struct {
	filter    *Filter
	tokenizer segment.Tokenizer
	log       *logger.Logger
}

// NewSegmenter creates a filtered segmenter.
func NewSegmenter(f *Filter, tokenizer segment.Tokenizer) *Segmenter {
	if f == nil {
		f = New()
	}
	return &Segmenter{
		filter:    f,
		tokenizer: tokenizer,
		log:       logger.Get(),
	}
}

// Segment filters the document, segments the filtered element stream with
// the same boundary rules as the plain segmenter, and partitions the element
// mappings so each segment's mappings cover exactly its own elements.
func (s *Segmenter) Segment(doc *layout.Document, cfg Config, sourceFile string, minTokens, maxTokens int) ([]FilteredSegment, [][]Mapping, *Metrics, error) {
	if sourceFile == "" {
		return nil, nil, nil, errors.NewConfigError("sourceFile must be a non-empty string")
	}
	if minTokens <= 0 || maxTokens <= 0 {
		return nil, nil, nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID",
			"token thresholds must be positive, got min=%d max=%d", minTokens, maxTokens)
	}
	if minTokens >= maxTokens {
		return nil, nil, nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID",
			"minTokens (%d) must be less than maxTokens (%d)", minTokens, maxTokens)
	}

	elements, mappings, metrics, err := s.filter.Apply(doc, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		segments     []FilteredSegment
		buffer       []Element
		bufferTokens int
		context      segment.Context
		segmentID    = 1
	)

	flush := func() {
		segments = append(segments, FilteredSegment{
			SegmentID:         segmentID,
			SourceFile:        sourceFile,
			TokenCount:        bufferTokens,
			StructuralContext: context.Snapshot(),
			Elements:          buffer,
		})
		segmentID++
		buffer = nil
		bufferTokens = 0
	}

	for _, elem := range elements {
		content := elem.Content()
		tokens := s.tokenizer.Count(content)
		// Role may have been filtered out; an absent role is not a heading.
		level := segment.HeadingLevel(elem.Role())
		highLevelHeading := level == 1 || level == 2

		if len(buffer) > 0 &&
			bufferTokens >= minTokens &&
			(highLevelHeading || bufferTokens+tokens > maxTokens) {
			flush()
		}

		if level > 0 {
			context.Set(level, content)
		}

		buffer = append(buffer, elem)
		bufferTokens += tokens
	}
	if len(buffer) > 0 {
		flush()
	}

	segmentMappings := partitionMappings(segments, mappings)

	s.log.Info().
		Str("source_file", sourceFile).
		Int("filtered_elements", len(elements)).
		Int("segments", len(segments)).
		Msg("Filtered segmentation complete")

	return segments, segmentMappings, metrics, nil
}

// partitionMappings assigns each mapping to the segment holding the element
// it points at, matched by source element id.
func partitionMappings(segments []FilteredSegment, mappings []Mapping) [][]Mapping {
	out := make([][]Mapping, len(segments))
	for i, seg := range segments {
		ids := make(map[string]bool, len(seg.Elements))
		for _, elem := range seg.Elements {
			if id := elem.ID(); id != "" {
				ids[id] = true
			}
		}
		segMappings := []Mapping{}
		for _, m := range mappings {
			if m.SourceElementID != "" && ids[m.SourceElementID] {
				segMappings = append(segMappings, m)
			}
		}
		out[i] = segMappings
	}
	return out
}

// Content returns the filtered element's content, or "" if filtered out.
func (e Element) Content() string {
	if v, ok := e[FieldContent].(string); ok {
		return v
	}
	return ""
}

// Role returns the filtered element's role, or "" if filtered out.
func (e Element) Role() string {
	if v, ok := e["role"].(string); ok {
		return v
	}
	return ""
}

// ID returns the filtered element's id, or "" if absent.
func (e Element) ID() string {
	if v, ok := e[FieldID].(string); ok {
		return v
	}
	return ""
}
