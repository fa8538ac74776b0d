package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wildlens/apiserver/internal/handlers"
	"github.com/wildlens/apiserver/internal/middleware"
)

const requestTimeout = 60 * time.Second

// RouterConfig carries everything NewRouter mounts. Nil optional fields are
// skipped.
type RouterConfig struct {
	Log     zerolog.Logger
	Auth    *handlers.AuthHandler
	Scans   *handlers.ScanHandler
	Species *handlers.SpeciesHandler
	Health  *handlers.HealthHandler

	AuthRateLimit    func(http.Handler) http.Handler
	Secure           func(http.Handler) http.Handler
	CORS             func(http.Handler) http.Handler
	MaxScanBodyBytes int64
	Metrics          bool
	// TrustProxy takes the client address from X-Forwarded-For or X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// NewRouter builds the HTTP routing tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	if cfg.TrustProxy {
		r.Use(chimid.RealIP)
	}
	r.Use(
		middleware.RequestLogger(cfg.Log),
		recoverer,
	)
	if cfg.Metrics {
		r.Use(middleware.Prometheus)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(chimid.Timeout(requestTimeout))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	handlers.AuthRouter(r, cfg.Auth, cfg.AuthRateLimit)
	r.Route("/scans", func(r chi.Router) {
		handlers.ScanRouter(r, cfg.Scans, cfg.Auth.RequireAuth, cfg.MaxScanBodyBytes)
	})
	r.Route("/species-info", func(r chi.Router) {
		handlers.SpeciesRouter(r, cfg.Species)
	})
	return r
}

// recoverer turns a panic into a 500 JSON response and logs the stack.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"Erreur serveur"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
