package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/movesion/cardsim/adapters/metrics"
)

// RouterConfig holds optional router features.
type RouterConfig struct {
	Metrics     *metrics.Collector
	MetricsPath string
}

// NewRouter creates the main HTTP router.
func NewRouter(sim *SimulationHandler, pricing *PricingHandler, presets *PresetHandler, logger zerolog.Logger) chi.Router {
	return NewRouterWithConfig(sim, pricing, presets, logger, RouterConfig{})
}

// NewRouterWithConfig creates the main HTTP router with optional config.
func NewRouterWithConfig(sim *SimulationHandler, pricing *PricingHandler, presets *PresetHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Metrics middleware (if enabled)
	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", Health)
	r.Get("/health/live", Health)
	r.Get("/health/ready", Health)
	r.Get("/version", Version)

	// Metrics endpoint
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/simulation", func(r chi.Router) {
			r.Post("/run", sim.Run)
			r.Post("/compare", sim.Compare)
			r.Post("/sensitivity/{parameter}", sim.Sensitivity)
			r.Get("/template", sim.Template)
			r.Get("/export/{format}", sim.ExportTemplate)
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Get("/plan", pricing.Plan)
			r.Get("/tiers/{metric}", pricing.Tiers)
			r.Get("/fees/fixed", pricing.FixedFees)
			r.Get("/fees/events", pricing.EventFees)
			r.Get("/fees/oneoff", pricing.OneOffFees)

			r.Route("/presets", func(r chi.Router) {
				r.Get("/", presets.List)
				r.Get("/{name}", presets.Get)
				r.Put("/{name}", presets.Put)
				r.Delete("/{name}", presets.Delete)
			})
		})
	})

	return r
}

// NewMetricsMiddleware records request counts, durations, and the in-flight
// gauge. Internal endpoints are skipped.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics for internal endpoints
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" ||
				r.URL.Path == "/version" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			path := metrics.NormalizePath(r.URL.Path)

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		})
	}
}

// NewLoggingMiddleware logs each request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}
