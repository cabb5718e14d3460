package occurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/cache"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
)

// ErrTextTooLarge is returned when a text exceeds the configured size limit.
var ErrTextTooLarge = errors.New("text too large")

// ResultCache stores count results between requests.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type ServiceConfig struct {
	CacheTTL     time.Duration
	MaxTextBytes int
}

// Service puts caching, metrics and tracing around a Counter.
type Service struct {
	counter *Counter
	cache   ResultCache
	metrics *metrics.Collector
	tracer  trace.Tracer
	logger  *zap.Logger
	cfg     ServiceConfig
}

type ServiceOption func(*Service)

// WithCache enables the result cache. A nil cache leaves caching off.
func WithCache(c ResultCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Collector) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) ServiceOption {
	return func(s *Service) { s.tracer = tp.Tracer("wordcount/occurrence") }
}

func NewService(counter *Counter, cfg ServiceConfig, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		counter: counter,
		tracer:  otel.Tracer("wordcount/occurrence"),
		logger:  logger.With(zap.String("component", "occurrence")),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Count counts word in text, serving repeated requests from the cache.
// The count itself is not interrupted by ctx; ctx bounds cache access only.
func (s *Service) Count(ctx context.Context, text, word string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "occurrence.Count", trace.WithAttributes(
		attribute.Int("text.bytes", len(text)),
		attribute.String("word", word),
	))
	defer span.End()

	if s.cfg.MaxTextBytes > 0 && len(text) > s.cfg.MaxTextBytes {
		err := fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTextTooLarge, len(text), s.cfg.MaxTextBytes)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	key := cache.Key("occurrence", text, word)
	if res, ok := s.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("count", res.Count))
		return res, nil
	}

	start := time.Now()
	res, err := s.counter.Count(text, word)
	s.metrics.RecordCount(res.Workers, res.Tokens, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "worker fault")
		return Result{}, fmt.Errorf("count occurrences: %w", err)
	}

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Int("count", res.Count),
		attribute.Int("tokens", res.Tokens),
		attribute.Int("workers", res.Workers),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache result", zap.Error(err))
		}
	}

	return res, nil
}

func (s *Service) lookup(ctx context.Context, key string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}

	var res Result
	err := s.cache.Get(ctx, key, &res)
	s.metrics.RecordCacheLookup(err == nil)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("cache lookup failed", zap.Error(err))
		}
		return Result{}, false
	}
	return res, true
}
