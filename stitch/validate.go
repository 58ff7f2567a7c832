// Package stitch reassembles page-range analysis batches into one continuous
// layout document: structural validation, offset-corrected merging, and the
// concurrent orchestration of per-range analysis calls.
package stitch

import (
	"docstitch/layout"
	"docstitch/pkg/errors"
)

// ValidateStructure checks that a batch document conforms to the layout
// contract: a pages list must be present and every page must carry a positive
// page number. Field-type violations are caught earlier, when the raw JSON is
// decoded into layout.Document.
func ValidateStructure(doc *layout.Document) error {
	if doc == nil {
		return errors.NewStructureError("batch document is nil")
	}
	if doc.Pages == nil {
		return errors.NewStructureError("missing required field: pages")
	}
	for i, page := range doc.Pages {
		if page.PageNumber <= 0 {
			return errors.Newf(errors.StructureError, "BATCH_STRUCTURE_INVALID",
				"page %d pageNumber must be a positive integer, got %d", i, page.PageNumber)
		}
	}
	return nil
}

// ValidateSequence checks that an ordered list of batches forms continuous
// page numbering: each batch must start exactly one page after the previous
// batch ends. Batches without pages are skipped, matching the structural
// validator's responsibility for that case.
func ValidateSequence(batches []*layout.Document) error {
	if len(batches) < 2 {
		return nil
	}

	for i := 1; i < len(batches); i++ {
		prev := batches[i-1]
		curr := batches[i]
		if prev == nil || curr == nil || len(prev.Pages) == 0 || len(curr.Pages) == 0 {
			continue
		}

		prevMax := maxPageNumber(prev.Pages)
		currMin := minPageNumber(curr.Pages)
		if currMin != prevMax+1 {
			return errors.Newf(errors.SequenceError, "BATCH_SEQUENCE_INVALID",
				"non-consecutive batches: gap between page %d and %d", prevMax, currMin)
		}
	}
	return nil
}

func maxPageNumber(pages []layout.Page) int {
	max := pages[0].PageNumber
	for _, p := range pages[1:] {
		if p.PageNumber > max {
			max = p.PageNumber
		}
	}
	return max
}

func minPageNumber(pages []layout.Page) int {
	min := pages[0].PageNumber
	for _, p := range pages[1:] {
		if p.PageNumber < min {
			min = p.PageNumber
		}
	}
	return min
}
