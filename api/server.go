// Package api exposes the pipeline over HTTP using fiber. Synchronous
// endpoints run the pipeline inline; async endpoints hand work to the
// Redis-backed worker pool.
package api

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docstitch/config"
	"docstitch/health"
	"docstitch/pipeline"
	"docstitch/pkg/errors"
	"docstitch/pkg/logger"
	"docstitch/pkg/metrics"
	"docstitch/pkg/security"
	"docstitch/pkg/validator"
	"docstitch/queue"
)

// Server bundles the HTTP surface of the service.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	pipeline  *pipeline.Service
	queue     *queue.RedisQueue
	health    *health.HealthChecker
	metrics   *metrics.Metrics
	validator *validator.Validator
	log       *logger.Logger
}

// NewServer builds the fiber application with all routes registered.
// queue may be nil; async endpoints then respond 503.
func NewServer(cfg *config.Config, pipe *pipeline.Service, q *queue.RedisQueue, hc *health.HealthChecker, m *metrics.Metrics, v *validator.Validator) *Server {
	s := &Server{
		cfg:       cfg,
		pipeline:  pipe,
		queue:     q,
		health:    hc,
		metrics:   m,
		validator: v,
		log:       logger.Get(),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: s.errorHandler,
	})

	app.Use(recover.New())
	app.Use(s.requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization," + cfg.Security.APIKeyHeader,
	}))

	if hc != nil {
		app.Get("/health", hc.HealthHandler)
		app.Get("/health/readiness", hc.ReadinessHandler)
	}
	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := app.Group("/api/v1")
	api.Use(security.New(&cfg.Security).Middleware())

	api.Post("/extract", s.handleExtract)
	api.Post("/segment", s.handleSegment)
	api.Post("/segment-filtered", s.handleSegmentFiltered)
	api.Get("/filter/presets", s.handleFilterPresets)

	async := api.Group("/async")
	async.Post("/extract", s.handleAsyncExtract)

	api.Get("/job/:id", s.handleJobStatus)
	api.Get("/queue/stats", s.handleQueueStats)

	s.app = app
	return s
}

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	return s.app.Listen(":" + s.cfg.Server.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if s.metrics != nil {
			s.metrics.HTTPRequestsInFlight.Inc()
			defer s.metrics.HTTPRequestsInFlight.Dec()
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if appErr := errors.AsAppError(err); appErr != nil {
				status = appErr.HTTPStatus
			} else if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(c.Method(), c.Route().Path, statusLabel(status), duration)
		}
		s.log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", duration).
			Msg("Request handled")
		return err
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if appErr := errors.AsAppError(err); appErr != nil {
		return c.Status(appErr.HTTPStatus).JSON(errors.NewErrorResponse(appErr))
	}

	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":     message,
		"timestamp": time.Now(),
		"path":      c.Path(),
	})
}

func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
