// Package ident assigns stable ids to layout elements so later filtering and
// segmentation stages can trace every reduced element back to its source.
package ident

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"docstitch/layout"
)

// idPrefixes by element kind, kept short since ids appear in every mapping.
const (
	prefixParagraph = "para"
	prefixTable     = "table"
	prefixCell      = "cell"
	prefixKVPair    = "kv"
	prefixFigure    = "fig"
	prefixFormula   = "formula"
)

// ElementID builds a deterministic id from an element's type, page, global
// index and a short hash of its content: {type}_{page}_{index}_{hash}.
func ElementID(elementType string, pageNumber, index int, content string) string {
	preview := content
	if len(preview) > 50 {
		preview = preview[:50]
	}
	input := fmt.Sprintf("%s_%d_%d_%s", elementType, pageNumber, index, preview)
	sum := md5.Sum([]byte(input))
	return fmt.Sprintf("%s_%d_%d_%s", elementType, pageNumber, index, hex.EncodeToString(sum[:])[:6])
}

// pageOrDefault resolves an element's page, defaulting to 1 when the element
// carries no page reference at all.
func pageOrDefault(e *layout.Element) int {
	if page := e.Page(); page > 0 {
		return page
	}
	return 1
}

// AddElementIDs returns a deep copy of the document with ids assigned to
// paragraphs, tables (and their cells), key-value pairs, figures and
// formulas. Existing ids are overwritten so re-running identification over
// an already-enriched document stays deterministic. The input is untouched.
func AddElementIDs(doc *layout.Document) *layout.Document {
	out := doc.Clone()

	for i := range out.Paragraphs {
		p := &out.Paragraphs[i]
		p.ID = ElementID(prefixParagraph, pageOrDefault(p), i, p.Content)
	}

	for i := range out.Tables {
		t := &out.Tables[i]
		page := pageOrDefault(t)
		t.ID = ElementID(prefixTable, page, i, "")
		for j := range t.Cells {
			cell := &t.Cells[j]
			sum := md5.Sum([]byte(cell.Content))
			cell.ID = fmt.Sprintf("%s_%d_%d_%d_%d_%s",
				prefixCell, page, i, cell.RowIndex, cell.ColumnIndex,
				hex.EncodeToString(sum[:])[:6])
		}
	}

	for i := range out.KeyValuePairs {
		kv := &out.KeyValuePairs[i]
		keyContent := ""
		if kv.Key != nil {
			keyContent = kv.Key.Content
		}
		valueContent := ""
		if v := kv.PairValue(); v != nil {
			valueContent = v.Content
		}
		kv.ID = ElementID(prefixKVPair, pageOrDefault(kv), i, keyContent+":"+valueContent)
	}

	for i := range out.Figures {
		f := &out.Figures[i]
		f.ID = ElementID(prefixFigure, pageOrDefault(f), i, "")
	}

	for i := range out.Formulas {
		f := &out.Formulas[i]
		f.ID = ElementID(prefixFormula, pageOrDefault(f), i, f.FormulaValue())
	}

	return out
}
