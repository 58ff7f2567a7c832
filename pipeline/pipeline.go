// Package pipeline wires the analysis client, stitcher, segmenter and
// filter into the end-to-end flows exposed by the HTTP API, the queue
// worker and the CLI.
package pipeline

import (
	"context"
	"time"

	"docstitch/analyzer"
	"docstitch/cache"
	"docstitch/config"
	"docstitch/filter"
	"docstitch/ident"
	"docstitch/layout"
	"docstitch/pkg/logger"
	"docstitch/pkg/metrics"
	"docstitch/segment"
	"docstitch/stitch"
)

// Service runs the document pipeline end to end.
type Service struct {
	analyzer     analyzer.RangeAnalyzer
	orchestrator *stitch.Orchestrator
	segmenter    *segment.Segmenter
	filterSeg    *filter.Segmenter
	cache        *cache.ResultCache
	metrics      *metrics.Metrics
	cfg          *config.Config
	log          *logger.Logger
}

// NewService assembles a pipeline from its parts. metrics may be nil when
// metrics are disabled.
func NewService(cfg *config.Config, ra analyzer.RangeAnalyzer, tokenizer segment.Tokenizer, m *metrics.Metrics) *Service {
	return &Service{
		analyzer:     ra,
		orchestrator: stitch.NewOrchestrator(stitch.NewAssembler()),
		segmenter:    segment.NewSegmenter(tokenizer),
		filterSeg:    filter.NewSegmenter(filter.New(), tokenizer),
		metrics:      m,
		cfg:          cfg,
		log:          logger.Get(),
	}
}

// UseCache enables the extraction result cache.
func (s *Service) UseCache(rc *cache.ResultCache) {
	s.cache = rc
}

// ExtractOptions controls a batch extraction run.
type ExtractOptions struct {
	TotalPages int
	BatchSize  int
	AddIDs     bool
}

// Extract analyzes the document in page-range batches, stitches the
// results into one consolidated layout and optionally enriches every
// element with a stable identifier.
func (s *Service) Extract(ctx context.Context, document []byte, opts ExtractOptions) (*layout.Document, error) {
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = s.cfg.Analyzer.BatchSize
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = cache.Key(document, opts.TotalPages, batchSize, opts.AddIDs)
		if doc, ok := s.cache.Get(ctx, cacheKey); ok {
			s.log.FromContext(ctx).Info().Str("cache_key", cacheKey).Msg("Extraction cache hit")
			return doc, nil
		}
	}

	start := time.Now()
	doc, err := s.orchestrator.AssembleAll(ctx, opts.TotalPages, batchSize, analyzer.RangeFunc(s.analyzer, document))
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordStitch("error", 0, opts.TotalPages, time.Since(start))
		}
		return nil, err
	}

	batches := (opts.TotalPages + batchSize - 1) / batchSize
	if s.metrics != nil {
		s.metrics.RecordStitch("success", batches, len(doc.Pages), time.Since(start))
	}

	if opts.AddIDs {
		doc = ident.AddElementIDs(doc)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, doc); err != nil {
			s.log.FromContext(ctx).Warn().Err(err).Msg("Failed to cache extraction result")
		}
	}
	return doc, nil
}

// Segment splits an assembled document into token-bounded segments.
func (s *Service) Segment(ctx context.Context, doc *layout.Document, sourceFile string, minTokens, maxTokens int) ([]segment.Segment, error) {
	if minTokens == 0 && maxTokens == 0 {
		minTokens = s.cfg.Segmenter.MinTokens
		maxTokens = s.cfg.Segmenter.MaxTokens
	}

	start := time.Now()
	segments, err := s.segmenter.Segment(doc, sourceFile, minTokens, maxTokens)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		counts := make([]int, len(segments))
		for i, seg := range segments {
			counts[i] = seg.TokenCount
		}
		s.metrics.RecordSegmentation("plain", counts, time.Since(start))
	}
	return segments, nil
}

// SegmentFiltered filters an assembled document down to the configured
// field set, then segments the filtered stream. The returned mappings are
// partitioned per segment.
func (s *Service) SegmentFiltered(ctx context.Context, doc *layout.Document, cfg filter.Config, sourceFile string, minTokens, maxTokens int) ([]filter.FilteredSegment, [][]filter.Mapping, *filter.Metrics, error) {
	if minTokens == 0 && maxTokens == 0 {
		minTokens = s.cfg.Segmenter.MinTokens
		maxTokens = s.cfg.Segmenter.MaxTokens
	}

	start := time.Now()
	segments, mappings, stats, err := s.filterSeg.Segment(doc, cfg, sourceFile, minTokens, maxTokens)
	if err != nil {
		return nil, nil, nil, err
	}

	if s.metrics != nil {
		counts := make([]int, len(segments))
		for i, seg := range segments {
			counts[i] = seg.TokenCount
		}
		s.metrics.RecordSegmentation("filtered", counts, time.Since(start))
		s.metrics.RecordFiltering(cfg.Preset, stats.FilteredElements, stats.ReductionPercentage)
	}
	return segments, mappings, stats, nil
}
