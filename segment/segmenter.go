package segment

import (
	"sort"
	"strings"

	"docstitch/layout"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
)

// Segment is a token-bounded, ordered group of elements with a snapshot of
// the heading context at the point the segment started. Immutable once
// emitted.
type Segment struct {
	SegmentID         int              `json:"segment_id"`
	SourceFile        string           `json:"source_file"`
	TokenCount        int              `json:"token_count"`
	StructuralContext Context          `json:"structural_context"`
	Elements          []layout.Element `json:"elements"`
}

// Segmenter walks an assembled document in span order and partitions its
// text-bearing elements into segments respecting token thresholds and
// heading boundaries.
type Segmenter struct {
	tokenizer Tokenizer
	log       *logger.Logger
}

// NewSegmenter creates a segmenter around the given token counter.
func NewSegmenter(tokenizer Tokenizer) *Segmenter {
	return &Segmenter{
		tokenizer: tokenizer,
		log:       logger.Get(),
	}
}

// supportedCollections lists the document collections that contribute
// segment elements, in the order they are gathered before the span sort.
func supportedCollections(doc *layout.Document) [][]layout.Element {
	return [][]layout.Element{
		doc.Paragraphs,
		doc.Tables,
		doc.Figures,
		doc.Formulas,
		doc.KeyValuePairs,
	}
}

// Segment partitions the document into token-bounded segments.
//
// A segment closes before an element is appended when the buffer already
// holds at least minTokens and either the element is a level 1-2 heading or
// appending it would exceed maxTokens. The final buffer is always flushed,
// so a single element larger than maxTokens still lands in one segment --
// elements are never split.
func (s *Segmenter) Segment(doc *layout.Document, sourceFile string, minTokens, maxTokens int) ([]Segment, error) {
	if doc == nil {
		return nil, errors.NewConfigError("document is required")
	}
	if strings.TrimSpace(sourceFile) == "" {
		return nil, errors.NewConfigError("sourceFile must be a non-empty string")
	}
	if minTokens <= 0 || maxTokens <= 0 {
		return nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID",
			"token thresholds must be positive, got min=%d max=%d", minTokens, maxTokens)
	}
	if minTokens >= maxTokens {
		return nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID",
			"minTokens (%d) must be less than maxTokens (%d)", minTokens, maxTokens)
	}

	var all []layout.Element
	for _, list := range supportedCollections(doc) {
		all = append(all, list...)
	}

	// Stable sort keeps collection order for elements at equal offsets.
	sort.SliceStable(all, func(i, j int) bool {
		return s.elementOffset(&all[i]) < s.elementOffset(&all[j])
	})

	if len(all) == 0 {
		s.log.Info().Str("source_file", sourceFile).Msg("No processable elements found")
		return []Segment{}, nil
	}

	var (
		segments     []Segment
		buffer       []layout.Element
		bufferTokens int
		context      Context
		segmentID    = 1
		totalTokens  int
	)

	for i := range all {
		element := all[i]
		if strings.TrimSpace(element.Content) == "" {
			s.log.Warn().
				Str("source_file", sourceFile).
				Str("role", element.Role).
				Msg("Skipping element without content")
			continue
		}

		tokens := s.tokenizer.Count(element.Content)
		level := HeadingLevel(element.Role)
		highLevelHeading := level == 1 || level == 2

		if len(buffer) > 0 &&
			bufferTokens >= minTokens &&
			(highLevelHeading || bufferTokens+tokens > maxTokens) {
			segments = append(segments, Segment{
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

		if level > 0 {
			context.Set(level, element.Content)
		}

		buffer = append(buffer, element)
		bufferTokens += tokens
		totalTokens += tokens
	}

	if len(buffer) > 0 {
		segments = append(segments, Segment{
			SegmentID:         segmentID,
			SourceFile:        sourceFile,
			TokenCount:        bufferTokens,
			StructuralContext: context.Snapshot(),
			Elements:          buffer,
		})
	}

	s.log.Info().
		Str("source_file", sourceFile).
		Int("elements", len(all)).
		Int("segments", len(segments)).
		Int("total_tokens", totalTokens).
		Msg("Created segments")

	return segments, nil
}

// elementOffset resolves an element's position in the document. Elements
// without span information sort to offset 0 rather than failing the run.
func (s *Segmenter) elementOffset(e *layout.Element) int {
	offset, ok := e.FirstSpanOffset()
	if !ok {
		preview := e.Content
		if len(preview) > 50 {
			preview = preview[:50]
		}
		s.log.Warn().Str("content", preview).Msg("Element missing span information")
		return 0
	}
	return offset
}
