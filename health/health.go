package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"docstitch/config"
	"docstitch/queue"
)

type HealthChecker struct {
	config           *config.Config
	queue            *queue.RedisQueue
	httpClient       *http.Client
	cachedServices   map[string]ServiceInfo
	lastServiceCheck time.Time
	serviceCheckTTL  time.Duration
}

type HealthStatus struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Services  map[string]ServiceInfo `json:"services"`
	Queue     QueueInfo              `json:"queue"`
	System    SystemInfo             `json:"system"`
}

type ServiceInfo struct {
	Status    string `json:"status"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

type QueueInfo struct {
	Connected bool             `json:"connected"`
	Stats     map[string]int64 `json:"stats"`
	Error     string           `json:"error,omitempty"`
}

type SystemInfo struct {
	Environment string `json:"environment"`
	Platform    string `json:"platform"`
}

var startTime = time.Now()

func NewHealthChecker(config *config.Config, queue *queue.RedisQueue) *HealthChecker {
	return &HealthChecker{
		config:          config,
		queue:           queue,
		httpClient:      &http.Client{Timeout: 3 * time.Second},
		cachedServices:  make(map[string]ServiceInfo),
		serviceCheckTTL: 5 * time.Minute,
	}
}

func (h *HealthChecker) GetHealthStatus() HealthStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
		Services:  make(map[string]ServiceInfo),
		System: SystemInfo{
			Environment: h.config.Server.Environment,
			Platform:    runtime.GOOS,
		},
	}

	// Upstream checks are cached, the queue check is always fresh.
	h.checkServicesWithCache(&status)
	h.checkQueue(ctx, &status)

	for _, service := range status.Services {
		if !service.Available {
			status.Status = "degraded"
		}
	}

	if !status.Queue.Connected {
		status.Status = "unhealthy"
	}

	return status
}

func (h *HealthChecker) checkServicesWithCache(status *HealthStatus) {
	if time.Since(h.lastServiceCheck) > h.serviceCheckTTL || len(h.cachedServices) == 0 {
		h.refreshServiceCache()
		h.lastServiceCheck = time.Now()
	}

	for name, service := range h.cachedServices {
		status.Services[name] = service
	}
}

func (h *HealthChecker) refreshServiceCache() {
	services := make(map[string]ServiceInfo)
	services["analyzer"] = h.checkAnalyzer()
	h.cachedServices = services
}

func (h *HealthChecker) checkAnalyzer() ServiceInfo {
	if h.config.Analyzer.Endpoint == "" {
		return ServiceInfo{
			Status:    "unconfigured",
			Available: false,
			Error:     "analyzer endpoint is not configured",
		}
	}

	req, err := http.NewRequest(http.MethodGet, h.config.Analyzer.Endpoint, nil)
	if err != nil {
		return ServiceInfo{
			Status:    "unavailable",
			Available: false,
			Error:     err.Error(),
		}
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return ServiceInfo{
			Status:    "unavailable",
			Available: false,
			Error:     err.Error(),
		}
	}
	resp.Body.Close()

	// Any HTTP response means the endpoint is reachable.
	return ServiceInfo{
		Status:    "available",
		Available: true,
	}
}

func (h *HealthChecker) checkQueue(ctx context.Context, status *HealthStatus) {
	if h.queue == nil {
		status.Queue = QueueInfo{
			Connected: false,
			Error:     "queue not initialized",
		}
		return
	}

	queueCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats, err := h.queue.GetQueueStats(queueCtx)
	if err != nil {
		status.Queue = QueueInfo{
			Connected: false,
			Error:     err.Error(),
		}
		return
	}

	status.Queue = QueueInfo{
		Connected: true,
		Stats:     stats,
	}
}

// Fiber handlers
func (h *HealthChecker) HealthHandler(c *fiber.Ctx) error {
	health := h.GetHealthStatus()

	var statusCode int
	switch health.Status {
	case "healthy", "degraded":
		statusCode = fiber.StatusOK
	case "unhealthy":
		statusCode = fiber.StatusServiceUnavailable
	default:
		statusCode = fiber.StatusInternalServerError
	}

	return c.Status(statusCode).JSON(health)
}

func (h *HealthChecker) ReadinessHandler(c *fiber.Ctx) error {
	health := h.GetHealthStatus()

	if !health.Queue.Connected {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
			"reason": "queue not available",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}
