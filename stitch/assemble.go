package stitch

import (
	"docstitch/layout"
)

// Assembler merges page-range batches into one accumulating document.
//
// Assemble takes ownership of both inputs: the accumulator is mutated in
// place and the incoming batch's page numbers and span offsets are rewritten.
// Callers that need a batch intact afterwards must Clone it first.
type Assembler struct {
	// Validate gates structural validation of both documents before any
	// mutation. Disable only for inputs already validated upstream.
	Validate bool
}

// NewAssembler returns an assembler with validation enabled.
func NewAssembler() *Assembler {
	return &Assembler{Validate: true}
}

// PageOffset computes the page-number shift needed to make incoming follow
// accumulated contiguously. It is a pure function of the two page lists:
// zero when the accumulator is empty or the batches are already consecutive,
// otherwise max(accumulated) - min(incoming) + 1, which renumbers batches
// whose internal numbering restarted at 1.
func PageOffset(accumulated, incoming *layout.Document) int {
	if accumulated.IsEmpty() || len(accumulated.Pages) == 0 {
		return 0
	}
	if len(incoming.Pages) == 0 {
		return 0
	}

	accMax := maxPageNumber(accumulated.Pages)
	inMin := minPageNumber(incoming.Pages)
	if inMin == accMax+1 {
		return 0
	}
	return accMax - inMin + 1
}

// Assemble stitches incoming into accumulated and returns the accumulator.
// A nil pageOffset selects the automatic offset policy (PageOffset); a
// non-nil value is applied verbatim. When the accumulator is empty the
// incoming batch becomes the accumulator, with its page numbers shifted if
// an explicit non-zero offset was given -- the only place a first batch's own
// numbering is corrected.
func (a *Assembler) Assemble(accumulated, incoming *layout.Document, pageOffset *int) (*layout.Document, error) {
	if a.Validate {
		if !accumulated.IsEmpty() {
			if err := ValidateStructure(accumulated); err != nil {
				return nil, err
			}
		}
		if err := ValidateStructure(incoming); err != nil {
			return nil, err
		}
	}

	offset := 0
	if pageOffset != nil {
		offset = *pageOffset
	} else {
		offset = PageOffset(accumulated, incoming)
	}

	if accumulated.IsEmpty() {
		if offset != 0 {
			shiftPageNumbers(incoming, offset)
		}
		return incoming, nil
	}

	contentOffset := len(accumulated.Content)
	rewriteBatch(incoming, contentOffset, offset)

	accumulated.Content += incoming.Content
	accumulated.Pages = append(accumulated.Pages, incoming.Pages...)
	accumulated.Paragraphs = append(accumulated.Paragraphs, incoming.Paragraphs...)
	accumulated.Tables = append(accumulated.Tables, incoming.Tables...)
	accumulated.Words = append(accumulated.Words, incoming.Words...)
	accumulated.Lines = append(accumulated.Lines, incoming.Lines...)
	accumulated.SelectionMarks = append(accumulated.SelectionMarks, incoming.SelectionMarks...)

	return accumulated, nil
}

// shiftPageNumbers applies a pure page-number shift to a first batch,
// touching page records and every element's page references but no spans.
func shiftPageNumbers(doc *layout.Document, offset int) {
	for i := range doc.Pages {
		doc.Pages[i].PageNumber += offset
	}
	for _, list := range elementLists(doc) {
		for i := range list {
			shiftElementPages(&list[i], offset)
		}
	}
}

// rewriteBatch shifts every span offset by contentOffset and every page
// reference by pageOffset across the stitched element collections, including
// the word/line/selection-mark details nested under each page.
func rewriteBatch(doc *layout.Document, contentOffset, pageOffset int) {
	for i := range doc.Pages {
		page := &doc.Pages[i]
		page.PageNumber += pageOffset
		for j := range page.Spans {
			page.Spans[j].Offset += contentOffset
		}
		for _, nested := range [][]layout.Element{page.Words, page.Lines, page.SelectionMarks} {
			for j := range nested {
				shiftElementSpans(&nested[j], contentOffset)
				shiftElementPages(&nested[j], pageOffset)
			}
		}
	}

	for _, list := range elementLists(doc) {
		for i := range list {
			shiftElementSpans(&list[i], contentOffset)
			shiftElementPages(&list[i], pageOffset)
		}
	}
}

// elementLists returns the document-level collections the stitcher rewrites
// and appends. Figures, formulas and key-value pairs are re-derived from a
// full analysis pass and are not carried across batch boundaries.
func elementLists(doc *layout.Document) [][]layout.Element {
	return [][]layout.Element{
		doc.Paragraphs,
		doc.Tables,
		doc.Words,
		doc.Lines,
		doc.SelectionMarks,
	}
}

func shiftElementSpans(e *layout.Element, contentOffset int) {
	for i := range e.Spans {
		e.Spans[i].Offset += contentOffset
	}
	if e.Span != nil {
		e.Span.Offset += contentOffset
	}
}

func shiftElementPages(e *layout.Element, pageOffset int) {
	if e.PageNumber != 0 {
		e.PageNumber += pageOffset
	}
	for i := range e.BoundingRegions {
		e.BoundingRegions[i].PageNumber += pageOffset
	}
}

// AssembleSequence folds a pre-sorted list of batches through Assemble with
// the automatic offset policy, optionally validating sequence contiguity
// first. The first batch becomes the accumulator unchanged.
func (a *Assembler) AssembleSequence(batches []*layout.Document, validateSequence bool) (*layout.Document, error) {
	if len(batches) == 0 {
		return &layout.Document{}, nil
	}
	if validateSequence {
		if err := ValidateSequence(batches); err != nil {
			return nil, err
		}
	}

	accumulated := &layout.Document{}
	for _, batch := range batches {
		var err error
		accumulated, err = a.Assemble(accumulated, batch, nil)
		if err != nil {
			return nil, err
		}
	}
	return accumulated, nil
}
