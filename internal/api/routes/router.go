package routes

import (
	"net/http"
	"strings"

	"github.com/zatekoja/vaccinefinder/backend/internal/api/handlers"
	"github.com/zatekoja/vaccinefinder/backend/internal/api/middleware"
	"github.com/zatekoja/vaccinefinder/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler *handlers.HospitalHandler
	vaccineHandler  *handlers.VaccineHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	hospitalHandler *handlers.HospitalHandler,
	vaccineHandler *handlers.VaccineHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		hospitalHandler: hospitalHandler,
		vaccineHandler:  vaccineHandler,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Hospital endpoints
	r.mux.HandleFunc("POST /api/hospitals/nearby", r.hospitalHandler.Nearby)
	r.mux.HandleFunc("POST /api/hospitals/nearby/translated", r.hospitalHandler.NearbyTranslated)
	r.mux.HandleFunc("POST /api/hospitals/details", r.hospitalHandler.Details)
	r.mux.HandleFunc("POST /api/hospitals/details/translated", r.hospitalHandler.DetailsTranslated)

	// Vaccine cache endpoints
	r.mux.HandleFunc("GET /api/vaccines/lookup", r.vaccineHandler.Lookup)
	r.mux.HandleFunc("POST /api/vaccines/refresh", r.vaccineHandler.Refresh)
	r.mux.HandleFunc("GET /api/vaccines/cache", r.vaccineHandler.Stats)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.routeOf)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	// CORS wraps everything so preflight requests never reach the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// routeOf returns the registered pattern without its method
func (r *Router) routeOf(req *http.Request) string {
	_, pattern := r.mux.Handler(req)
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	return pattern
}
