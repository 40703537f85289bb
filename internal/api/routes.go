package api

import (
	"github.com/gorilla/mux"
	"stealthcompany.com/devevent/internal/metrics"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(conns ConnectionProvider) *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.MetricsMiddleware)

	// Probes
	r.HandleFunc("/health", HealthHandler).Methods("GET")
	r.HandleFunc("/ready", ReadyHandler(conns)).Methods("GET")

	// Connection manager state
	r.HandleFunc("/db/state", StateHandler(conns)).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return r
}
