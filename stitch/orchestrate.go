package stitch

import (
	"context"
	"sort"
	"sync"

	"docstitch/layout"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
)

// AnalyzeRangeFunc produces the analysis result for one inclusive page range.
// Implementations call the external document-analysis service; retries and
// backoff belong behind this boundary, not in the orchestrator.
type AnalyzeRangeFunc func(ctx context.Context, startPage, endPage int) (*layout.Document, error)

// Orchestrator fans out concurrent analysis calls over disjoint page ranges
// and folds the results through the Assembler in page-start order.
type Orchestrator struct {
	assembler *Assembler
	log       *logger.Logger
}

// NewOrchestrator creates an orchestrator around the given assembler.
func NewOrchestrator(assembler *Assembler) *Orchestrator {
	if assembler == nil {
		assembler = NewAssembler()
	}
	return &Orchestrator{
		assembler: assembler,
		log:       logger.Get(),
	}
}

type rangeResult struct {
	startPage int
	doc       *layout.Document
}

// AssembleAll partitions [1, totalPages] into contiguous ranges of batchSize
// pages, analyzes every range concurrently, and merges the results into one
// document. Merge order follows ascending range start regardless of which
// call finished first. If any range fails the whole operation fails; no
// partial document is ever returned.
func (o *Orchestrator) AssembleAll(ctx context.Context, totalPages, batchSize int, analyze AnalyzeRangeFunc) (*layout.Document, error) {
	if totalPages <= 0 {
		return nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID", "totalPages must be positive, got %d", totalPages)
	}
	if batchSize <= 0 {
		return nil, errors.Newf(errors.ConfigError, "CONFIG_INVALID", "batchSize must be positive, got %d", batchSize)
	}
	if analyze == nil {
		return nil, errors.NewConfigError("analyze function is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []rangeResult
		firstErr error
	)

	for start := 1; start <= totalPages; start += batchSize {
		end := start + batchSize - 1
		if end > totalPages {
			end = totalPages
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			o.log.Debug().Int("start_page", start).Int("end_page", end).Msg("Analyzing page range")
			doc, err := analyze(ctx, start, end)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = errors.Wrapf(err, errors.UpstreamError, "UPSTREAM_CALL_FAILED",
						"analysis of pages %d-%d failed", start, end)
					cancel()
				}
				return
			}
			results = append(results, rangeResult{startPage: start, doc: doc})
		}(start, end)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Completion order is nondeterministic; the offset arithmetic is not,
	// so restore page order before folding.
	sort.Slice(results, func(i, j int) bool {
		return results[i].startPage < results[j].startPage
	})

	accumulated := &layout.Document{}
	for i, res := range results {
		var offset *int
		if i == 0 {
			// A first batch numbered from 1 for a range starting later in
			// the document needs its numbering corrected explicitly.
			first := res.startPage - 1
			offset = &first
		}
		var err error
		accumulated, err = o.assembler.Assemble(accumulated, res.doc, offset)
		if err != nil {
			return nil, err
		}
	}

	o.log.Info().
		Int("total_pages", totalPages).
		Int("batches", len(results)).
		Int("pages_stitched", len(accumulated.Pages)).
		Msg("Assembled all page ranges")

	return accumulated, nil
}
