package layout

import "encoding/json"

// Document is one layout-analysis result: the full document text plus the
// positional element collections the analysis service reports. A Document may
// be a single batch (page numbers and span offsets relative to that batch) or
// the stitched union of many batches.
type Document struct {
	Content        string    `json:"content"`
	Pages          []Page    `json:"pages"`
	Paragraphs     []Element `json:"paragraphs,omitempty"`
	Tables         []Element `json:"tables,omitempty"`
	Figures        []Element `json:"figures,omitempty"`
	Formulas       []Element `json:"formulas,omitempty"`
	KeyValuePairs  []Element `json:"keyValuePairs,omitempty"`
	Words          []Element `json:"words,omitempty"`
	Lines          []Element `json:"lines,omitempty"`
	SelectionMarks []Element `json:"selectionMarks,omitempty"`
}

// Page holds per-page layout metadata. Word/line/selection-mark details can
// appear nested under the page as well as in the document-level collections.
type Page struct {
	PageNumber     int       `json:"pageNumber"`
	Angle          float64   `json:"angle,omitempty"`
	Width          float64   `json:"width,omitempty"`
	Height         float64   `json:"height,omitempty"`
	Unit           string    `json:"unit,omitempty"`
	Spans          []Span    `json:"spans,omitempty"`
	Words          []Element `json:"words,omitempty"`
	Lines          []Element `json:"lines,omitempty"`
	SelectionMarks []Element `json:"selectionMarks,omitempty"`
}

// Span locates a substring within the owning Document's content.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// End returns the exclusive end offset of the span.
func (s Span) End() int { return s.Offset + s.Length }

// BoundingRegion ties an element to a page and a polygon on it.
type BoundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon,omitempty"`
}

// ElementKind identifies which collection an element came from.
type ElementKind string

const (
	KindParagraph     ElementKind = "paragraph"
	KindTable         ElementKind = "table"
	KindFigure        ElementKind = "figure"
	KindFormula       ElementKind = "formula"
	KindKeyValuePair  ElementKind = "keyValuePair"
	KindWord          ElementKind = "word"
	KindLine          ElementKind = "line"
	KindSelectionMark ElementKind = "selectionMark"
)

// Element is the common shape shared by every positional element kind.
// Per-kind payloads (table geometry, selection state, key/value halves) are
// optional fields; absent fields are omitted when serialized, so a round-trip
// preserves only what the analysis service actually sent.
//
// The "value" key is a string for formulas but an object for key-value pairs,
// so it is kept raw and decoded through FormulaValue / PairValue.
type Element struct {
	ID              string           `json:"_id,omitempty"`
	Content         string           `json:"content,omitempty"`
	Role            string           `json:"role,omitempty"`
	PageNumber      int              `json:"pageNumber,omitempty"`
	Spans           []Span           `json:"spans,omitempty"`
	Span            *Span            `json:"span,omitempty"`
	BoundingRegions []BoundingRegion `json:"boundingRegions,omitempty"`
	Polygon         []float64        `json:"polygon,omitempty"`
	Confidence      float64          `json:"confidence,omitempty"`

	// Selection marks.
	State string `json:"state,omitempty"`

	// Tables and table cells.
	RowCount     int       `json:"rowCount,omitempty"`
	ColumnCount  int       `json:"columnCount,omitempty"`
	RowIndex     int       `json:"rowIndex,omitempty"`
	ColumnIndex  int       `json:"columnIndex,omitempty"`
	ColumnHeader string    `json:"columnHeader,omitempty"`
	Cells        []Element `json:"cells,omitempty"`

	// Key-value pairs ("key") and formulas / key-value pairs ("value").
	Key   *Element        `json:"key,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// FormulaValue decodes the raw "value" payload as a formula's string value.
func (e *Element) FormulaValue() string {
	if len(e.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return ""
	}
	return s
}

// PairValue decodes the raw "value" payload as a key-value pair's value half.
func (e *Element) PairValue() *Element {
	if len(e.Value) == 0 {
		return nil
	}
	var v Element
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return nil
	}
	return &v
}
