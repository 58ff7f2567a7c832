package api

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"docstitch/filter"
	"docstitch/layout"
	"docstitch/pipeline"
	"docstitch/pkg/errors"
	"docstitch/queue"
	"docstitch/utils"
	"docstitch/worker"
)

type segmentRequest struct {
	Document   *layout.Document `json:"document"`
	SourceFile string           `json:"source_file"`
	MinTokens  int              `json:"min_tokens"`
	MaxTokens  int              `json:"max_tokens"`
}

type segmentFilteredRequest struct {
	segmentRequest
	Filter *filter.Config `json:"filter"`
}

func (s *Server) handleExtract(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errors.NewValidationError("file upload is required")
	}

	totalPages, err := strconv.Atoi(c.FormValue("total_pages"))
	if err != nil {
		return errors.NewValidationError("total_pages must be an integer")
	}

	batchSize := 0
	if raw := c.FormValue("batch_size"); raw != "" {
		batchSize, err = strconv.Atoi(raw)
		if err != nil {
			return errors.NewValidationError("batch_size must be an integer")
		}
	}

	if batchSize > 0 {
		if err := s.validator.ValidateBatchParams(totalPages, batchSize); err != nil {
			return errors.NewValidationError(err.Error())
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errors.NewInternalError("failed to open uploaded file")
	}
	defer src.Close()

	document, err := io.ReadAll(src)
	if err != nil {
		return errors.NewInternalError("failed to read uploaded file")
	}

	if err := s.validator.ValidateUpload(document); err != nil {
		return errors.NewValidationError(err.Error())
	}

	doc, err := s.pipeline.Extract(c.UserContext(), document, pipeline.ExtractOptions{
		TotalPages: totalPages,
		BatchSize:  batchSize,
		AddIDs:     c.FormValue("add_ids") == "true",
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"document":    doc,
		"total_pages": len(doc.Pages),
	})
}

func (s *Server) handleSegment(c *fiber.Ctx) error {
	var req segmentRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.NewValidationError("invalid JSON body")
	}
	if req.Document == nil {
		return errors.NewValidationError("document is required")
	}

	segments, err := s.pipeline.Segment(c.UserContext(), req.Document, req.SourceFile, req.MinTokens, req.MaxTokens)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"segments":      segments,
		"segment_count": len(segments),
		"source_file":   req.SourceFile,
	})
}

func (s *Server) handleSegmentFiltered(c *fiber.Ctx) error {
	var req segmentFilteredRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.NewValidationError("invalid JSON body")
	}
	if req.Document == nil {
		return errors.NewValidationError("document is required")
	}

	cfg := filter.DefaultConfig()
	if req.Filter != nil {
		cfg = *req.Filter
	}

	segments, mappings, stats, err := s.pipeline.SegmentFiltered(c.UserContext(), req.Document, cfg, req.SourceFile, req.MinTokens, req.MaxTokens)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"segments":         segments,
		"segment_count":    len(segments),
		"element_mappings": mappings,
		"filter_metrics":   stats,
		"source_file":      req.SourceFile,
	})
}

func (s *Server) handleFilterPresets(c *fiber.Ctx) error {
	presets := make(map[string][]string)
	for _, name := range filter.Presets() {
		fields, _ := filter.PresetFields(name)
		presets[name] = fields
	}

	return c.JSON(fiber.Map{
		"presets": presets,
		"default": filter.DefaultConfig().Preset,
	})
}

func (s *Server) handleAsyncExtract(c *fiber.Ctx) error {
	if s.queue == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "job queue is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errors.NewValidationError("file upload is required")
	}

	totalPages, err := strconv.Atoi(c.FormValue("total_pages"))
	if err != nil {
		return errors.NewValidationError("total_pages must be an integer")
	}

	batchSize := 0
	if raw := c.FormValue("batch_size"); raw != "" {
		batchSize, err = strconv.Atoi(raw)
		if err != nil {
			return errors.NewValidationError("batch_size must be an integer")
		}
	}

	inputFile, err := utils.SaveUploadedFile(fileHeader)
	if err != nil {
		return errors.NewInternalError("failed to save uploaded file")
	}
	inputFile.Close()

	job, err := worker.SubmitJob(s.queue, queue.TypeExtract, worker.ExtractPayload{
		InputPath:  inputFile.Name(),
		TotalPages: totalPages,
		BatchSize:  batchSize,
		AddIDs:     c.FormValue("add_ids") == "true",
	})
	if err != nil {
		return errors.NewInternalError("failed to submit job")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":           job.ID,
		"status":           "accepted",
		"check_status_url": "/api/v1/job/" + job.ID,
	})
}

func (s *Server) handleJobStatus(c *fiber.Ctx) error {
	if s.queue == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "job queue is not configured")
	}

	jobID := c.Params("id")
	if jobID == "" {
		return errors.NewValidationError("job id is required")
	}

	job, err := s.queue.GetJob(context.Background(), jobID)
	if err != nil {
		return errors.NewNotFoundError("job " + jobID)
	}

	return c.JSON(job)
}

func (s *Server) handleQueueStats(c *fiber.Ctx) error {
	if s.queue == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "job queue is not configured")
	}

	stats, err := s.queue.GetQueueStats(context.Background())
	if err != nil {
		return errors.NewInternalError("failed to get queue stats")
	}

	return c.JSON(fiber.Map{
		"queue_stats": stats,
		"timestamp":   time.Now(),
	})
}
