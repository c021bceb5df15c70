package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configure NewRouter.
type RouterOptions struct {
	// RequestTimeout bounds the quick endpoints. Analysis and history are
	// left unbounded since a cold fetch walks the whole index.
	RequestTimeout time.Duration
	CORSOrigins    string
	Gatherer       prometheus.Gatherer // nil means the default registry
}

// NewRouter creates and configures a chi router with all routes.
func NewRouter(h *APIHandler, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(opts.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(opts.RequestTimeout))
			r.Get("/health", h.handleHealth)
			r.Get("/portfolio", h.handleGetPortfolio)
			r.Put("/portfolio", h.handlePutPortfolio)
			r.Get("/fred/{series}", h.handleFred)
			r.Get("/runs", h.handleRuns)
		})
		r.Get("/analysis", h.handleAnalysis)
		r.Get("/history/{ticker}", h.handleHistory)
	})

	r.Get("/ws/progress", h.hub.ServeWS)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// corsMiddleware returns CORS middleware with the specified allowed origins.
func corsMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
