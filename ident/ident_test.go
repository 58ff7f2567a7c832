package ident

import (
	"encoding/json"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/layout"
)

var idPattern = regexp.MustCompile(`^[a-z]+_\d+_\d+_[0-9a-f]{6}$`)

// Test id format and determinism
func TestElementID(t *testing.T) {
	id := ElementID("para", 3, 7, "The quick brown fox")
	assert.Regexp(t, idPattern, id)
	assert.Contains(t, id, "para_3_7_")

	// Same inputs, same id.
	assert.Equal(t, id, ElementID("para", 3, 7, "The quick brown fox"))

	// Any input change moves the hash.
	assert.NotEqual(t, id, ElementID("para", 3, 7, "The quick brown cat"))
	assert.NotEqual(t, id, ElementID("para", 3, 8, "The quick brown fox"))

	// Only the first 50 characters of content participate.
	long := ""
	for i := 0; i < 60; i++ {
		long += "a"
	}
	assert.Equal(t, ElementID("para", 1, 0, long), ElementID("para", 1, 0, long+"tail"))
}

// Test ids are assigned across all supported collections
func TestAddElementIDs(t *testing.T) {
	doc := &layout.Document{
		Pages: []layout.Page{{PageNumber: 1}},
		Paragraphs: []layout.Element{
			{Content: "intro", BoundingRegions: []layout.BoundingRegion{{PageNumber: 1}}},
			{Content: "body", BoundingRegions: []layout.BoundingRegion{{PageNumber: 2}}},
		},
		Tables: []layout.Element{{
			RowCount:    1,
			ColumnCount: 2,
			BoundingRegions: []layout.BoundingRegion{
				{PageNumber: 2},
			},
			Cells: []layout.Element{
				{Content: "a", RowIndex: 0, ColumnIndex: 0},
				{Content: "b", RowIndex: 0, ColumnIndex: 1},
			},
		}},
		Figures:  []layout.Element{{Content: "chart"}},
		Formulas: []layout.Element{{Value: json.RawMessage(`"x=y"`)}},
		KeyValuePairs: []layout.Element{{
			Key:   &layout.Element{Content: "Total"},
			Value: json.RawMessage(`{"content":"99"}`),
		}},
	}

	out := AddElementIDs(doc)

	assert.Regexp(t, idPattern, out.Paragraphs[0].ID)
	assert.Contains(t, out.Paragraphs[0].ID, "para_1_0_")
	assert.Contains(t, out.Paragraphs[1].ID, "para_2_1_")
	assert.Contains(t, out.Tables[0].ID, "table_2_0_")
	assert.Contains(t, out.Figures[0].ID, "fig_1_0_")
	assert.Contains(t, out.Formulas[0].ID, "formula_1_0_")
	assert.Contains(t, out.KeyValuePairs[0].ID, "kv_1_0_")

	// Cell ids carry table index and grid position.
	assert.Contains(t, out.Tables[0].Cells[0].ID, "cell_2_0_0_0_")
	assert.Contains(t, out.Tables[0].Cells[1].ID, "cell_2_0_0_1_")

	// The input document is left untouched.
	assert.Empty(t, doc.Paragraphs[0].ID)
	assert.Empty(t, doc.Tables[0].Cells[0].ID)
}

// Test elements without page references default to page 1
func TestAddElementIDsDefaultPage(t *testing.T) {
	doc := &layout.Document{
		Paragraphs: []layout.Element{{Content: "floating"}},
	}

	out := AddElementIDs(doc)
	assert.Contains(t, out.Paragraphs[0].ID, "para_1_0_")
}

// Test re-running identification is idempotent
func TestAddElementIDsIdempotent(t *testing.T) {
	doc := &layout.Document{
		Paragraphs: []layout.Element{
			{Content: "stable", PageNumber: 2},
		},
	}

	first := AddElementIDs(doc)
	second := AddElementIDs(first)
	assert.Equal(t, first.Paragraphs[0].ID, second.Paragraphs[0].ID)
}

// Test distinct content yields distinct ids at scale
func TestAddElementIDsUnique(t *testing.T) {
	doc := &layout.Document{}
	for i := 0; i < 100; i++ {
		doc.Paragraphs = append(doc.Paragraphs, layout.Element{
			Content:    fmt.Sprintf("paragraph number %d", i),
			PageNumber: i/10 + 1,
		})
	}

	out := AddElementIDs(doc)
	seen := make(map[string]bool)
	for _, p := range out.Paragraphs {
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}
