// Package httpapi exposes the ledger over HTTP: entry CRUD, month forecast,
// summaries and series lifecycle. Authentication is handled upstream; every
// request under /api carries the resolved owner in the X-Owner-ID header.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/services"
)

// Server is the ledger HTTP API server.
type Server struct {
	entries   *services.EntryService
	forecasts *services.Forecaster
	lifecycle *services.Lifecycle
	horizon   *services.HorizonJob
	logger    *log.Logger
	limiter   *ratelimit.Limiter
}

// NewServer creates a new API server.
func NewServer(entries *services.EntryService, forecasts *services.Forecaster, lifecycle *services.Lifecycle, horizon *services.HorizonJob, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	return &Server{
		entries:   entries,
		forecasts: forecasts,
		lifecycle: lifecycle,
		horizon:   horizon,
		logger:    logger,
	}
}

// SetRateLimiter enables per-client rate limiting on the /api routes.
func (s *Server) SetRateLimiter(limiter *ratelimit.Limiter) {
	s.limiter = limiter
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(log.Middleware(s.logger))
	r.Use(log.AccessLog)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Use(requireOwner)

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", s.handleCreateEntry)
			r.Get("/", s.handleListEntries)
			r.Get("/forecast", s.handleForecast)
			r.Get("/summary", s.handleSummary)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEntry)
				r.Put("/", s.handleUpdateEntry)
				r.Delete("/", s.handleDeleteEntry)
			})
		})

		r.Get("/categories", s.handleListCategories)

		r.Route("/series", func(r chi.Router) {
			r.Post("/run-job", s.handleRunHorizonJob)
			r.Patch("/{id}/pause", s.handlePauseSeries)
			r.Patch("/{id}/resume", s.handleResumeSeries)
			r.Delete("/{id}", s.handleCancelSeries)
		})
	})

	return r
}
