// Package filter reduces layout elements to an allow-listed field set while
// preserving a mapping back to each source element, and composes that
// reduction with segmentation.
package filter

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"docstitch/layout"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
	"docstitch/segment"
)

// Element is a filtered element: only the allow-listed fields survive.
type Element map[string]any

// Mapping links a filtered element back to its source for audit. Ids are
// taken from the source elements as-is; an upstream identification step is
// responsible for assigning them.
type Mapping struct {
	FilteredIndex   int    `json:"filtered_index"`
	SourceElementID string `json:"source_element_id"`
	ElementType     string `json:"element_type"`
	PageNumber      int    `json:"page_number"`
	ContentHash     string `json:"content_hash"`
}

// Metrics describes the size effect of a filtering run. The mapping array
// counts toward the filtered size because it is part of the real payload
// cost, so ReductionPercentage can be negative for small documents.
type Metrics struct {
	OriginalSizeBytes   int      `json:"original_size_bytes"`
	FilteredSizeBytes   int      `json:"filtered_size_bytes"`
	ReductionPercentage float64  `json:"reduction_percentage"`
	TotalElements       int      `json:"total_elements"`
	FilteredElements    int      `json:"filtered_elements"`
	ExcludedFields      []string `json:"excluded_fields"`
}

// Filter applies allow-list field reduction to layout documents.
type Filter struct {
	log *logger.Logger
}

// New creates a field filter.
func New() *Filter {
	return &Filter{log: logger.Get()}
}

// sourceElement pairs an element with the collection it came from.
type sourceElement struct {
	el   layout.Element
	kind layout.ElementKind
}

// extractElements gathers every filterable element in document order: the
// segmenter's collections plus words and lines, sorted by first span offset.
func extractElements(doc *layout.Document) []sourceElement {
	var out []sourceElement
	add := func(list []layout.Element, kind layout.ElementKind) {
		for _, el := range list {
			out = append(out, sourceElement{el: el, kind: kind})
		}
	}
	add(doc.Paragraphs, layout.KindParagraph)
	add(doc.Tables, layout.KindTable)
	add(doc.Figures, layout.KindFigure)
	add(doc.Formulas, layout.KindFormula)
	add(doc.KeyValuePairs, layout.KindKeyValuePair)
	add(doc.Words, layout.KindWord)
	add(doc.Lines, layout.KindLine)

	sort.SliceStable(out, func(i, j int) bool {
		oi, _ := out[i].el.FirstSpanOffset()
		oj, _ := out[j].el.FirstSpanOffset()
		return oi < oj
	})
	return out
}

// Apply reduces every element of the document to the configured allow-list.
// It returns the filtered elements in document order, one mapping per kept
// element, and the size metrics of the run.
func (f *Filter) Apply(doc *layout.Document, cfg Config) ([]Element, []Mapping, *Metrics, error) {
	if doc == nil {
		return nil, nil, nil, errors.NewConfigError("document is required")
	}
	fields, ok := cfg.resolveFields()
	if !ok {
		return nil, nil, nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID",
			"unknown filter preset %q and no explicit fields given", cfg.Preset)
	}

	originalJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.InternalError, "SERIALIZE_FAILED", "failed to serialize document")
	}

	allowAll := false
	allowed := make(map[string]bool, len(fields))
	for _, field := range fields {
		if field == FieldAll {
			allowAll = true
		}
		allowed[field] = true
	}

	sources := extractElements(doc)

	var (
		filtered    []Element
		mappings    []Mapping
		excludedSet = map[string]bool{}
		context     segment.Context
	)

	for idx, src := range sources {
		// Heading tracking runs over the unfiltered stream so parent
		// sections stay correct even when role itself is filtered out.
		if level := segment.HeadingLevel(src.el.Role); level > 0 {
			context.Set(level, src.el.Content)
		}

		content := strings.TrimSpace(src.el.Content)
		if content == "" {
			continue
		}

		full, err := src.el.AsMap()
		if err != nil {
			f.log.Warn().Err(err).Msg("Skipping unserializable element")
			continue
		}

		var elem Element
		if allowAll {
			// Wildcard keeps the element byte-identical to the source.
			elem = Element(full)
		} else {
			elem = f.buildFiltered(src, full, allowed, idx, parentSection(&context), content)
		}
		if cfg.IncludeIDs && src.el.ID != "" {
			elem[FieldID] = src.el.ID
		}

		for field := range full {
			if _, kept := elem[field]; !kept {
				excludedSet[field] = true
			}
		}

		mappings = append(mappings, Mapping{
			FilteredIndex:   len(filtered),
			SourceElementID: src.el.ID,
			ElementType:     string(src.kind),
			PageNumber:      src.el.Page(),
			ContentHash:     contentHash(content),
		})
		filtered = append(filtered, elem)
	}

	filteredJSON, err := json.Marshal(map[string]any{
		"elements": filtered,
		"mappings": mappings,
	})
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, errors.InternalError, "SERIALIZE_FAILED", "failed to serialize filtered result")
	}

	reduction := 0.0
	if len(originalJSON) > 0 {
		reduction = float64(len(originalJSON)-len(filteredJSON)) / float64(len(originalJSON)) * 100
	}

	excluded := make([]string, 0, len(excludedSet))
	for field := range excludedSet {
		excluded = append(excluded, field)
	}
	sort.Strings(excluded)

	metrics := &Metrics{
		OriginalSizeBytes:   len(originalJSON),
		FilteredSizeBytes:   len(filteredJSON),
		ReductionPercentage: reduction,
		TotalElements:       len(sources),
		FilteredElements:    len(filtered),
		ExcludedFields:      excluded,
	}

	f.log.Info().
		Str("preset", cfg.Preset).
		Int("total_elements", metrics.TotalElements).
		Int("filtered_elements", metrics.FilteredElements).
		Float64("reduction_percentage", metrics.ReductionPercentage).
		Msg("Filtering complete")

	return filtered, mappings, metrics, nil
}

// buildFiltered assembles the allow-listed view of one element: synthetic
// fields first, then the intersection of the allow-list with the element's
// own serialized keys.
func (f *Filter) buildFiltered(src sourceElement, full map[string]any, allowed map[string]bool, index int, parent, content string) Element {
	elem := Element{}

	if allowed[FieldElementIndex] {
		elem[FieldElementIndex] = index
	}
	if allowed[FieldParentSection] && parent != "" {
		elem[FieldParentSection] = parent
	}
	if allowed[FieldPageNumber] {
		elem[FieldPageNumber] = src.el.Page()
	}
	if allowed[FieldElementType] {
		elem[FieldElementType] = string(src.kind)
	}

	for field, value := range full {
		if allowed[field] {
			elem[field] = value
		}
	}

	elem[FieldContent] = content
	return elem
}

// parentSection resolves the section an element belongs to: the highest
// heading level currently set, preferring h1 downward.
func parentSection(c *segment.Context) string {
	for level := 1; level <= 6; level++ {
		if text := c.Level(level); text != "" {
			return text
		}
	}
	return ""
}

// contentHash fingerprints filtered content, used to spot duplicate content
// across elements rather than to establish identity.
func contentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
