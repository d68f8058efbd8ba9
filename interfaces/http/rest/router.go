// Package rest wires the HTTP surface: routing, middleware, and the
// JSON envelope around the application services.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"docgraph/application/services"
	"docgraph/infrastructure/config"
	"docgraph/interfaces/http/rest/handlers"
	"docgraph/interfaces/http/rest/middleware"
	"docgraph/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	svc     *services.DocumentService
	cfg     *config.Config
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	svc *services.DocumentService,
	cfg *config.Config,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		svc:     svc,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(middleware.Metrics(rt.metrics))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		// Document endpoints
		r.Route("/documents", func(r chi.Router) {
			documentHandler := handlers.NewDocumentHandler(rt.svc, rt.logger)
			r.Get("/", documentHandler.List)
			r.Post("/", documentHandler.Create)
			r.Get("/{documentID}", documentHandler.Get)
			r.Put("/{documentID}", documentHandler.Update)
			r.Delete("/{documentID}", documentHandler.Delete)
		})

		// Graph and tag endpoints
		graphHandler := handlers.NewGraphHandler(rt.svc, rt.logger)
		r.Get("/graph", graphHandler.GetGraph)
		r.Get("/graph/layout", graphHandler.GetLayout)
		r.Get("/tags", graphHandler.GetTags)
		r.Get("/tags/clusters", graphHandler.GetClusters)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck verifies the collection blob is reachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if _, err := rt.svc.Tags(req.Context()); err != nil {
		rt.logger.Warn("readiness check failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
