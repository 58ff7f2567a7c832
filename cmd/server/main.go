package main

import (
	"os"
	"os/signal"
	"syscall"

	"docstitch/analyzer"
	"docstitch/api"
	"docstitch/cache"
	"docstitch/config"
	"docstitch/health"
	"docstitch/pipeline"
	"docstitch/pkg/logger"
	"docstitch/pkg/metrics"
	"docstitch/pkg/validator"
	"docstitch/queue"
	"docstitch/segment"
	"docstitch/worker"
)

func main() {
	manager := config.NewManager()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := manager.LoadFromFile(path); err != nil {
			os.Exit(1)
		}
	}
	cfg := manager.Get()

	if err := logger.Init(&logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Filename:   cfg.Logging.Filename,
		TimeFormat: cfg.Logging.TimeFormat,
	}); err != nil {
		os.Exit(1)
	}
	log := logger.Get()

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting docstitch server")

	if os.Getenv("CONFIG_FILE") != "" {
		manager.OnChange(func(_, _ *config.Config) {
			log.Info().Msg("Configuration file reloaded, settings apply to new components")
		})
		if err := manager.StartWatching(); err != nil {
			log.Warn().Err(err).Msg("Config file watching disabled")
		} else {
			defer manager.StopWatching()
		}
	}

	tokenizer, err := segment.NewTokenizer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tokenizer")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	}

	analysisClient := analyzer.NewClient(&cfg.Analyzer)
	pipe := pipeline.NewService(cfg, analysisClient, tokenizer, m)

	if cfg.Cache.Enabled {
		resultCache, err := cache.NewResultCache(&cfg.Redis, cfg.Cache.TTL)
		if err != nil {
			log.Warn().Err(err).Msg("Result cache not available, extractions run uncached")
		} else {
			defer resultCache.Close()
			pipe.UseCache(resultCache)
		}
	}

	// The queue is optional, synchronous endpoints work without it.
	var redisQueue *queue.RedisQueue
	var pool *worker.Pool
	if cfg.Redis.Host != "" {
		redisQueue, err = queue.NewRedisQueue(&cfg.Redis, &cfg.Worker)
		if err != nil {
			log.Warn().Err(err).Msg("Redis not available, async endpoints disabled")
		} else {
			defer redisQueue.Close()
			pool = worker.NewPool(redisQueue, pipe, &cfg.Worker, m)
			pool.Start()
		}
	}

	healthChecker := health.NewHealthChecker(cfg, redisQueue)
	v := validator.New(validator.DefaultConfig())

	server := api.NewServer(cfg, pipe, redisQueue, healthChecker, m, v)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info().Msg("Gracefully shutting down")
		if pool != nil {
			pool.Stop()
		}
		server.Shutdown()
	}()

	if err := server.Listen(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
