// Package app wires configuration, Redis, metrics and the occurrence service
// into the long-running API and worker processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/api"
	"github.com/nikhilbhutani/wordcount/internal/cache"
	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
	"github.com/nikhilbhutani/wordcount/internal/occurrence"
	"github.com/nikhilbhutani/wordcount/internal/queue"
	"github.com/nikhilbhutani/wordcount/internal/queue/workers"
	"github.com/nikhilbhutani/wordcount/internal/webhook"
)

const (
	keyPrefix       = "wordcount:"
	shutdownTimeout = 30 * time.Second
)

func newRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func newCounter(cfg config.CounterConfig, logger *zap.Logger) *occurrence.Counter {
	return occurrence.NewCounter(
		occurrence.WithParallelism(cfg.Parallelism),
		occurrence.WithLogger(logger),
	)
}

func serviceConfig(cfg config.CounterConfig) occurrence.ServiceConfig {
	return occurrence.ServiceConfig{CacheTTL: cfg.CacheTTL, MaxTextBytes: cfg.MaxTextBytes}
}

// RunAPI serves the HTTP API until ctx is cancelled, then drains in-flight
// requests. Without a reachable Redis the server still counts, but uncached
// and with the job routes disabled.
func RunAPI(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rdb := newRedis(cfg.Redis)
	defer rdb.Close()

	m := metrics.NewCollector("wordcount", prometheus.DefaultRegisterer)
	counter := newCounter(cfg.Counter, logger)
	deps := api.Deps{Metrics: m, Logger: logger}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		logger.Warn("redis unavailable, running without cache and jobs", zap.Error(err))
		deps.Counter = occurrence.NewService(counter, serviceConfig(cfg.Counter), logger,
			occurrence.WithMetrics(m),
		)
	} else {
		c := cache.NewCache(rdb, keyPrefix)
		deps.Redis = c
		deps.Counter = occurrence.NewService(counter, serviceConfig(cfg.Counter), logger,
			occurrence.WithMetrics(m),
			occurrence.WithCache(c),
		)

		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		deps.Scheduler = queue.NewScheduler(queue.NewJobStore(c, cfg.Queue.JobTTL), qc, m)
	}

	router := api.NewRouter(cfg, deps)
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server",
			zap.String("addr", cfg.Addr()),
			zap.Int("parallelism", occurrence.HardwareParallelism()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// RunWorker processes queued count jobs until ctx is cancelled.
func RunWorker(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rdb := newRedis(cfg.Redis)
	defer rdb.Close()
	c := cache.NewCache(rdb, keyPrefix)

	m := metrics.NewCollector("wordcount_worker", prometheus.DefaultRegisterer)
	if cfg.Worker.MetricsAddr != "" {
		metricsSrv := newMetricsServer(cfg.Worker.MetricsAddr, prometheus.DefaultGatherer)
		go func() {
			logger.Info("serving worker metrics", zap.String("addr", cfg.Worker.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		// stops after the callback dispatcher has drained
		defer shutdownServer(metricsSrv, logger)
	}
	svc := occurrence.NewService(newCounter(cfg.Counter, logger), serviceConfig(cfg.Counter), logger,
		occurrence.WithMetrics(m),
		occurrence.WithCache(c),
	)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency:     cfg.Queue.Concurrency,
			Queues:          map[string]int{"default": 1},
			ShutdownTimeout: shutdownTimeout,
		},
	)

	callbacks := webhook.NewDispatcher(cfg.Webhook, m, logger)
	defer callbacks.Close()

	registry := queue.NewHandlersRegistry(logger)
	occurrenceWorker := workers.NewOccurrenceWorker(svc, queue.NewJobStore(c, cfg.Queue.JobTTL), m, logger,
		workers.WithNotifier(callbacks),
	)
	registry.Register(queue.TypeOccurrenceCount, asynq.HandlerFunc(occurrenceWorker.ProcessTask))

	logger.Info("starting worker", zap.Int("concurrency", cfg.Queue.Concurrency))
	if err := srv.Start(registry.Mux()); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down worker...")
	srv.Shutdown()
	return nil
}

// newMetricsServer exposes g on /metrics for processes without the API router.
func newMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func shutdownServer(srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics server forced shutdown", zap.Error(err))
	}
}
