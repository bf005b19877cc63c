// Package rest wires the HTTP surface: routing, middleware and handlers.
package rest

import (
	"net/http"

	"scholarmap-backend/application/services"
	"scholarmap-backend/interfaces/http/rest/handlers"
	"scholarmap-backend/interfaces/http/rest/middleware"
	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	orchestrator *services.Orchestrator
	reads        *services.ReadService
	writes       *services.WriteService
	validator    *auth.JWTValidator
	enableCORS   bool
	logger       *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	orchestrator *services.Orchestrator,
	reads *services.ReadService,
	writes *services.WriteService,
	validator *auth.JWTValidator,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		orchestrator: orchestrator,
		reads:        reads,
		writes:       writes,
		validator:    validator,
		enableCORS:   enableCORS,
		logger:       logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errors.NewErrorHandler(rt.logger, false).Middleware)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.scholarmap.dev"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		searchHandler := handlers.NewSearchHandler(rt.orchestrator, rt.logger)
		r.Post("/search", searchHandler.Search)

		workspaceHandler := handlers.NewWorkspaceHandler(rt.reads, rt.logger)
		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/by-org/{orgID}", workspaceHandler.GetByOrg)
			r.Get("/{workspaceID}/queries", workspaceHandler.ListQueries)
			r.Get("/{workspaceID}/starred", workspaceHandler.ListStarred)
		})

		queryHandler := handlers.NewQueryHandler(rt.reads, rt.logger)
		r.Route("/queries", func(r chi.Router) {
			r.Get("/{queryID}", queryHandler.GetQuery)
			r.Get("/{queryID}/nodes", queryHandler.ListNodes)
			r.Get("/{queryID}/edges", queryHandler.ListEdges)
		})

		nodeHandler := handlers.NewNodeHandler(rt.reads, rt.writes, rt.logger)
		r.Route("/nodes", func(r chi.Router) {
			r.Get("/{nodeID}/sources", nodeHandler.ListSources)
			r.Get("/{nodeID}/notes", nodeHandler.ListNotes)
			r.Post("/{nodeID}/notes", nodeHandler.AddNote)
			r.Post("/{nodeID}/star", nodeHandler.ToggleStar)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
