package worker

import (
	"context"
	"sync"
	"time"

	"docstitch/config"
	"docstitch/pipeline"
	"docstitch/pkg/logger"
	"docstitch/pkg/metrics"
	"docstitch/queue"
)

// Pool runs a fixed set of workers against the shared queue and keeps the
// queue-depth gauge current.
type Pool struct {
	queue         *queue.RedisQueue
	pipeline      *pipeline.Service
	metrics       *metrics.Metrics
	log           *logger.Logger
	size          int
	checkInterval time.Duration

	workers      map[string]*Worker
	workersMutex sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewPool(q *queue.RedisQueue, pipe *pipeline.Service, cfg *config.WorkerConfig, m *metrics.Metrics) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	size := cfg.MaxConcurrency
	if size < 1 {
		size = 1
	}

	return &Pool{
		queue:         q,
		pipeline:      pipe,
		metrics:       m,
		log:           logger.Get(),
		size:          size,
		checkInterval: 10 * time.Second,
		workers:       make(map[string]*Worker),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (p *Pool) Start() {
	p.workersMutex.Lock()
	for i := 0; i < p.size; i++ {
		w := NewWorker(p.queue, p.pipeline, p.metrics)
		p.workers[w.id] = w
		w.Start()
	}
	count := len(p.workers)
	p.workersMutex.Unlock()

	p.wg.Add(1)
	go p.queueMonitor()

	p.log.Info().Int("workers", count).Msg("Worker pool started")
}

func (p *Pool) Stop() {
	p.log.Info().Msg("Worker pool stopping")
	p.cancel()
	p.wg.Wait()

	p.workersMutex.Lock()
	var workerWg sync.WaitGroup
	for _, w := range p.workers {
		workerWg.Add(1)
		go func(w *Worker) {
			defer workerWg.Done()
			w.Stop()
		}(w)
	}
	p.workersMutex.Unlock()

	workerWg.Wait()

	p.workersMutex.Lock()
	p.workers = make(map[string]*Worker)
	p.workersMutex.Unlock()

	p.log.Info().Msg("Worker pool stopped")
}

func (p *Pool) WorkerCount() int {
	p.workersMutex.RLock()
	defer p.workersMutex.RUnlock()
	return len(p.workers)
}

func (p *Pool) queueMonitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			stats, err := p.queue.GetQueueStats(p.ctx)
			if err != nil {
				if p.ctx.Err() == nil {
					p.log.Error().Err(err).Msg("Failed to get queue stats")
				}
				continue
			}
			if p.metrics != nil {
				for status, count := range stats {
					p.metrics.QueueSize.WithLabelValues(status).Set(float64(count))
				}
			}
		}
	}
}
