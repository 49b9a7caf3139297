// Package http serves the ledger's JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"baedal/internal/log"
	"baedal/internal/middleware/ratelimit"
	"baedal/internal/middleware/security"
	"baedal/internal/services"
)

// Options configures a Server. Zero values select defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Ready reports backend readiness for /readyz.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(ctx context.Context) error
	now      func() time.Time
	logger   *log.Logger
}

func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Ready == nil {
		opts.Ready = func(context.Context) error { return nil }
	}

	s := &Server{
		svc:      svc,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		ready:    opts.Ready,
		now:      opts.Now,
		logger:   logger,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(s.logger, s.detector.ClientIP))
	r.Use(recoverer(s.logger))
	r.Use(metricsMiddleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware(func(r *http.Request) {
		suspiciousTotal.Inc()
		s.logger.WarnContext(r.Context(), "Suspicious request blocked",
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, s.detector.ClientIP(r))
	}))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", promhttp.Handler())

	limited := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
		rateLimitedTotal.Inc()
		writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, try again later")
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/entries", s.listEntries)
		r.Get("/entries/{id}", s.getEntry)
		r.Get("/installments", s.listInstallments)
		r.Get("/summary/monthly", s.monthlySummary)
		r.Get("/summary/monthly/previous", s.previousMonthlySummary)
		r.Get("/summary/yearly", s.yearlySummary)
		r.Get("/summary/cumulative", s.cumulativeSummary)
		r.Get("/goal", s.goalProgress)
		r.Get("/settings", s.getSettings)

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/entries", s.postEntry)
			r.Post("/entries/import", s.importEntries)
			r.Post("/entries/clear", s.clearEntries)
			r.Put("/entries/{id}", s.putEntry)
			r.Delete("/entries/{id}", s.deleteEntry)
			r.Delete("/groups/{groupId}", s.deleteGroup)
			r.Post("/installments", s.postInstallments)
			r.Put("/settings", s.putSettings)
		})
	})
	return r
}

// Shutdown stops accepting requests and releases the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeError(w, http.StatusServiceUnavailable, "not_ready", "backend not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "entries": s.svc.Count()})
}
