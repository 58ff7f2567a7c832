// Package worker consumes pipeline jobs from the Redis queue. Each job
// carries a path to its input on shared storage; results are written back
// onto the job record.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"docstitch/filter"
	"docstitch/layout"
	"docstitch/pipeline"
	"docstitch/pkg/logger"
	"docstitch/pkg/metrics"
	"docstitch/queue"
)

type Worker struct {
	id           string
	queue        *queue.RedisQueue
	pipeline     *pipeline.Service
	metrics      *metrics.Metrics
	log          *logger.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	isRunning    bool
	runningMutex sync.RWMutex
}

// ExtractPayload asks for batch analysis and stitching of a raw document.
type ExtractPayload struct {
	InputPath  string `json:"input_path"`
	TotalPages int    `json:"total_pages"`
	BatchSize  int    `json:"batch_size,omitempty"`
	AddIDs     bool   `json:"add_ids,omitempty"`
}

// SegmentPayload asks for segmentation of an already stitched layout
// document stored as JSON.
type SegmentPayload struct {
	InputPath  string `json:"input_path"`
	SourceFile string `json:"source_file"`
	MinTokens  int    `json:"min_tokens,omitempty"`
	MaxTokens  int    `json:"max_tokens,omitempty"`
}

// SegmentFilteredPayload adds a filter configuration to SegmentPayload.
type SegmentFilteredPayload struct {
	SegmentPayload
	Filter filter.Config `json:"filter"`
}

func NewWorker(q *queue.RedisQueue, pipe *pipeline.Service, m *metrics.Metrics) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:       uuid.New().String(),
		queue:    q,
		pipeline: pipe,
		metrics:  m,
		log:      logger.Get(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) Start() {
	w.runningMutex.Lock()
	defer w.runningMutex.Unlock()

	if w.isRunning {
		return
	}

	w.log.Info().Str("worker_id", w.id).Msg("Worker starting")
	w.isRunning = true
	if w.metrics != nil {
		w.metrics.ActiveWorkers.Inc()
	}

	w.wg.Add(1)
	go w.workerRoutine()
}

func (w *Worker) Stop() {
	w.runningMutex.Lock()
	if !w.isRunning {
		w.runningMutex.Unlock()
		return
	}
	w.isRunning = false
	w.runningMutex.Unlock()

	w.log.Info().Str("worker_id", w.id).Msg("Worker stopping")
	w.cancel()
	w.wg.Wait()
	if w.metrics != nil {
		w.metrics.ActiveWorkers.Dec()
	}
	w.log.Info().Str("worker_id", w.id).Msg("Worker stopped")
}

func (w *Worker) IsRunning() bool {
	w.runningMutex.RLock()
	defer w.runningMutex.RUnlock()
	return w.isRunning
}

func (w *Worker) workerRoutine() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(w.ctx)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			if err == redis.Nil {
				continue
			}
			w.log.Error().Str("worker_id", w.id).Err(err).Msg("Failed to dequeue job")
			time.Sleep(1 * time.Second)
			continue
		}

		w.processJob(job)
	}
}

func (w *Worker) processJob(job *queue.Job) {
	w.log.Info().
		Str("worker_id", w.id).
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Msg("Processing job")

	startTime := time.Now()

	var (
		result any
		err    error
	)

	switch job.Type {
	case queue.TypeExtract:
		result, err = w.runExtract(job)
	case queue.TypeSegment:
		result, err = w.runSegment(job)
	case queue.TypeSegmentFiltered:
		result, err = w.runSegmentFiltered(job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		w.failJob(job, err)
		return
	}

	resultData, err := json.Marshal(result)
	if err != nil {
		w.failJob(job, fmt.Errorf("failed to marshal result: %w", err))
		return
	}

	if err := w.queue.CompleteJob(context.Background(), job.ID, resultData); err != nil {
		w.log.Error().Str("job_id", job.ID).Err(err).Msg("Failed to complete job")
		return
	}

	if w.metrics != nil {
		w.metrics.QueueItemsProcessedTotal.WithLabelValues(string(job.Type)).Inc()
	}
	w.log.Info().
		Str("worker_id", w.id).
		Str("job_id", job.ID).
		Dur("duration", time.Since(startTime)).
		Msg("Job completed")
}

func (w *Worker) failJob(job *queue.Job, err error) {
	w.log.Error().
		Str("worker_id", w.id).
		Str("job_id", job.ID).
		Err(err).
		Msg("Job failed")
	if w.metrics != nil {
		w.metrics.QueueItemsFailedTotal.WithLabelValues(string(job.Type)).Inc()
	}
	if failErr := w.queue.FailJob(context.Background(), job.ID, err.Error()); failErr != nil {
		w.log.Error().Str("job_id", job.ID).Err(failErr).Msg("Failed to record job failure")
	}
}

func (w *Worker) runExtract(job *queue.Job) (any, error) {
	var payload ExtractPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid extract payload: %w", err)
	}

	document, err := os.ReadFile(payload.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input document: %w", err)
	}

	doc, err := w.pipeline.Extract(w.ctx, document, pipeline.ExtractOptions{
		TotalPages: payload.TotalPages,
		BatchSize:  payload.BatchSize,
		AddIDs:     payload.AddIDs,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"document":     doc,
		"input_path":   payload.InputPath,
		"total_pages":  payload.TotalPages,
		"processed_at": time.Now(),
	}, nil
}

func (w *Worker) runSegment(job *queue.Job) (any, error) {
	var payload SegmentPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid segment payload: %w", err)
	}

	doc, err := loadDocument(payload.InputPath)
	if err != nil {
		return nil, err
	}

	segments, err := w.pipeline.Segment(w.ctx, doc, payload.SourceFile, payload.MinTokens, payload.MaxTokens)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"segments":      segments,
		"segment_count": len(segments),
		"source_file":   payload.SourceFile,
		"processed_at":  time.Now(),
	}, nil
}

func (w *Worker) runSegmentFiltered(job *queue.Job) (any, error) {
	var payload SegmentFilteredPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid segment_filtered payload: %w", err)
	}

	doc, err := loadDocument(payload.InputPath)
	if err != nil {
		return nil, err
	}

	segments, mappings, stats, err := w.pipeline.SegmentFiltered(w.ctx, doc, payload.Filter, payload.SourceFile, payload.MinTokens, payload.MaxTokens)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"segments":         segments,
		"segment_count":    len(segments),
		"element_mappings": mappings,
		"filter_metrics":   stats,
		"source_file":      payload.SourceFile,
		"processed_at":     time.Now(),
	}, nil
}

func loadDocument(path string) (*layout.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout document: %w", err)
	}

	var doc layout.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode layout document: %w", err)
	}
	return &doc, nil
}

// SubmitJob enqueues a pipeline job with the given type and payload.
func SubmitJob(q *queue.RedisQueue, jobType queue.JobType, payload any) (*queue.Job, error) {
	payloadData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &queue.Job{
		ID:      uuid.New().String(),
		Type:    jobType,
		Payload: payloadData,
	}

	if err := q.Enqueue(context.Background(), job); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	return job, nil
}
