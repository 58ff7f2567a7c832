package layout

import "encoding/json"

// FirstSpanOffset returns the character offset of the element's first span.
// It handles both the plural "spans" array and the singular "span" object.
// The second return reports whether any span information was present.
func (e *Element) FirstSpanOffset() (int, bool) {
	if len(e.Spans) > 0 {
		return e.Spans[0].Offset, true
	}
	if e.Span != nil {
		return e.Span.Offset, true
	}
	return 0, false
}

// Page resolves the page number an element belongs to, preferring the direct
// pageNumber field and falling back to the first bounding region.
func (e *Element) Page() int {
	if e.PageNumber > 0 {
		return e.PageNumber
	}
	if len(e.BoundingRegions) > 0 {
		return e.BoundingRegions[0].PageNumber
	}
	return 0
}

// MaxSpanEnd returns the largest offset+length over all span information on
// the element, or 0 if it carries none.
func (e *Element) MaxSpanEnd() int {
	end := 0
	for _, s := range e.Spans {
		if s.End() > end {
			end = s.End()
		}
	}
	if e.Span != nil && e.Span.End() > end {
		end = e.Span.End()
	}
	return end
}

// AsMap round-trips the element through JSON into a generic map, preserving
// exactly the fields that would appear on the wire. Used by the field filter
// for the "*" allow-list and for field-presence accounting.
func (e *Element) AsMap() (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() Element {
	out := *e
	if e.Span != nil {
		s := *e.Span
		out.Span = &s
	}
	out.Spans = append([]Span(nil), e.Spans...)
	out.BoundingRegions = append([]BoundingRegion(nil), e.BoundingRegions...)
	out.Polygon = append([]float64(nil), e.Polygon...)
	if e.Cells != nil {
		out.Cells = make([]Element, len(e.Cells))
		for i := range e.Cells {
			out.Cells[i] = e.Cells[i].Clone()
		}
	}
	if e.Key != nil {
		k := e.Key.Clone()
		out.Key = &k
	}
	out.Value = append(json.RawMessage(nil), e.Value...)
	return out
}

// Clone returns a deep copy of the document. Stitching mutates its inputs, so
// callers that need to keep a batch intact clone it first.
func (d *Document) Clone() *Document {
	out := &Document{Content: d.Content}
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		cp := p
		cp.Spans = append([]Span(nil), p.Spans...)
		cp.Words = cloneElements(p.Words)
		cp.Lines = cloneElements(p.Lines)
		cp.SelectionMarks = cloneElements(p.SelectionMarks)
		out.Pages[i] = cp
	}
	out.Paragraphs = cloneElements(d.Paragraphs)
	out.Tables = cloneElements(d.Tables)
	out.Figures = cloneElements(d.Figures)
	out.Formulas = cloneElements(d.Formulas)
	out.KeyValuePairs = cloneElements(d.KeyValuePairs)
	out.Words = cloneElements(d.Words)
	out.Lines = cloneElements(d.Lines)
	out.SelectionMarks = cloneElements(d.SelectionMarks)
	return out
}

func cloneElements(in []Element) []Element {
	if in == nil {
		return nil
	}
	out := make([]Element, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// IsEmpty reports whether the document carries no content and no pages, the
// state an accumulator starts in before the first batch is stitched.
func (d *Document) IsEmpty() bool {
	return d == nil || (d.Content == "" && len(d.Pages) == 0)
}
