package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nikhilbhutani/wordcount/internal/api/handlers"
	"github.com/nikhilbhutani/wordcount/internal/api/middleware"
	"github.com/nikhilbhutani/wordcount/internal/auth"
	"github.com/nikhilbhutani/wordcount/internal/config"
	"github.com/nikhilbhutani/wordcount/internal/document"
	"github.com/nikhilbhutani/wordcount/internal/metrics"
)

// Deps are the services the router exposes. Scheduler and Redis may be nil,
// which disables the job routes and the readiness check respectively.
type Deps struct {
	Counter   handlers.Counter
	Scheduler handlers.JobScheduler
	Redis     handlers.Pinger
	Metrics   *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	jwt  *auth.JWTMiddleware
	rl   *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		jwt:  auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		rl:   middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateBurst),
	}
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	log := rt.deps.Logger

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log, rt.deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(rt.rl.Limit)

	// Health and metrics (no auth)
	health := handlers.NewHealthHandler(rt.deps.Redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", promhttp.HandlerFor(rt.deps.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		occH := handlers.NewOccurrenceHandler(rt.deps.Counter, log)
		r.Post("/occurrences", occH.Count)

		docH := handlers.NewDocumentHandler(document.NewTextExtractor(log), rt.deps.Counter, documentLimit(rt.cfg), log)
		r.Post("/documents/occurrences", docH.Count)

		if rt.deps.Scheduler != nil {
			jobH := handlers.NewJobHandler(rt.deps.Scheduler, log,
				handlers.AllowPrivateCallbacks(rt.cfg.Webhook.AllowPrivate),
			)
			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", jobH.Submit)
				r.Get("/{id}", jobH.Get)
			})
		}

		graphH := handlers.NewGraphHandler()
		r.Post("/graph/bfs", graphH.BFS)
	})

	return r
}

// documentLimit bounds uploads; binary formats are larger than their text.
func documentLimit(cfg *config.Config) int64 {
	if cfg.Counter.MaxTextBytes <= 0 {
		return 64 << 20
	}
	return int64(cfg.Counter.MaxTextBytes) * 4
}
