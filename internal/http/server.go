package httpapp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterOptions configures the outer middleware chain.
type RouterOptions struct {
	Gatherer     prometheus.Gatherer
	RateLimitRPS float64
	CORS         bool
}

// NewRouter mounts the API under /api and /metrics at the root.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	log := h.Logger.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(func(next http.Handler) http.Handler { return recoveryMiddleware(log, next) })
	r.Use(func(next http.Handler) http.Handler { return loggingMiddleware(log, next) })
	r.Use(metricsMiddleware)
	if opts.CORS {
		r.Use(corsMiddleware)
	}
	if opts.RateLimitRPS > 0 {
		burst := int(opts.RateLimitRPS * 2)
		if burst < 1 {
			burst = 1
		}
		r.Use(func(next http.Handler) http.Handler { return rateLimitMiddleware(opts.RateLimitRPS, burst, next) })
	}

	r.Route("/api", h.RegisterRoutes)

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return otelhttp.NewHandler(r, "spotiflac",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/api/health" && !strings.HasPrefix(p, "/api/events") && p != "/api/ws"
		}),
	)
}
