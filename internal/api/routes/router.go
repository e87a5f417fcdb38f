package routes

import (
	"net/http"
	"strings"

	"github.com/codershubham350/discover-places-backend/internal/api/handlers"
	"github.com/codershubham350/discover-places-backend/internal/api/middleware"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	placeHandler *handlers.PlaceHandler
	userHandler  *handlers.UserHandler

	tokens         middleware.TokenVerifier
	uploadsDir     string
	uploadsPrefix  string
	allowedOrigins []string
	readiness      map[string]handlers.Pinger
	metrics        *observability.Metrics
}

// Options carries router settings that are not handlers
type Options struct {
	Tokens         middleware.TokenVerifier
	UploadsDir     string
	UploadsPrefix  string
	AllowedOrigins []string
	// Readiness lists the dependencies GET /ready pings, by name.
	Readiness map[string]handlers.Pinger
	Metrics   *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(placeHandler *handlers.PlaceHandler, userHandler *handlers.UserHandler, opts Options) *Router {
	prefix := opts.UploadsPrefix
	if prefix == "" {
		prefix = "/uploads/images/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &Router{
		mux:            http.NewServeMux(),
		placeHandler:   placeHandler,
		userHandler:    userHandler,
		tokens:         opts.Tokens,
		uploadsDir:     opts.UploadsDir,
		uploadsPrefix:  prefix,
		allowedOrigins: opts.AllowedOrigins,
		readiness:      opts.Readiness,
		metrics:        opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	protected := middleware.AuthMiddleware(r.tokens)

	r.mux.HandleFunc("GET /health", handlers.Health)
	r.mux.Handle("GET /ready", handlers.Ready(r.readiness))

	// Place endpoints
	r.mux.Handle("GET /api/places/user/{uid}", handlers.Handle(r.placeHandler.ListByUser))
	r.mux.Handle("GET /api/places/{pid}", handlers.Handle(r.placeHandler.GetByID))
	r.mux.Handle("POST /api/places", protected(handlers.Handle(r.placeHandler.Create)))
	r.mux.Handle("PATCH /api/places/{pid}", protected(handlers.Handle(r.placeHandler.Update)))
	r.mux.Handle("DELETE /api/places/{pid}", protected(handlers.Handle(r.placeHandler.Delete)))

	// User endpoints
	r.mux.Handle("GET /api/users", handlers.Handle(r.userHandler.List))
	r.mux.Handle("POST /api/users/signup", handlers.Handle(r.userHandler.Signup))
	r.mux.Handle("POST /api/users/login", handlers.Handle(r.userHandler.Login))

	// Uploaded images
	if r.uploadsDir != "" {
		r.mux.Handle("GET "+r.uploadsPrefix, http.StripPrefix(r.uploadsPrefix, http.FileServer(http.Dir(r.uploadsDir))))
	}

	// Everything else
	r.mux.Handle("/", handlers.Handle(handlers.NotFound))

	// Apply middleware in reverse order (last middleware wraps first)
	// Observability must wrap the mux directly: it reads the matched
	// pattern off the request value the mux was handed.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so preflight never reaches the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
