// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	countsTotal   *prometheus.CounterVec
	countDuration prometheus.Histogram
	countWorkers  prometheus.Histogram
	countTokens   prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	jobsTotal     *prometheus.CounterVec
	webhooksTotal *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector registers all instruments on reg under namespace.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		countsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "occurrence_counts_total",
				Help:      "Total number of occurrence counts by outcome",
			},
			[]string{"status"},
		),
		countDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "occurrence_count_duration_seconds",
				Help:      "Time spent counting occurrences, cache hits excluded",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10),
			},
		),
		countWorkers: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "occurrence_count_workers",
				Help:      "Workers started per count",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
			},
		),
		countTokens: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "occurrence_count_tokens",
				Help:      "Tokens scanned per count",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 8),
			},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		jobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Count jobs by lifecycle event",
			},
			[]string{"event"},
		),
		webhooksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_deliveries_total",
				Help:      "Job callback deliveries by outcome",
			},
			[]string{"result"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (c *Collector) RecordCount(workers, tokens int, d time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.countsTotal.WithLabelValues("failed").Inc()
		return
	}
	c.countsTotal.WithLabelValues("ok").Inc()
	c.countDuration.Observe(d.Seconds())
	c.countWorkers.Observe(float64(workers))
	c.countTokens.Observe(float64(tokens))
}

func (c *Collector) RecordCacheLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		c.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordJob counts a job event: enqueued, completed or failed.
func (c *Collector) RecordJob(event string) {
	if c == nil {
		return
	}
	c.jobsTotal.WithLabelValues(event).Inc()
}

// RecordWebhook counts a callback delivery: delivered, rejected, failed or dropped.
func (c *Collector) RecordWebhook(result string) {
	if c == nil {
		return
	}
	c.webhooksTotal.WithLabelValues(result).Inc()
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
