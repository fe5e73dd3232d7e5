package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/saiweb3dev/zk-circuit-compiler/internal/api/handlers"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/api/middleware"
	"github.com/saiweb3dev/zk-circuit-compiler/internal/common/config"
)

// SetupRouter creates and configures the HTTP router.
func SetupRouter(circuitHandler *handlers.CircuitHandler, cfg *config.Config, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	// Global middleware, outermost first.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.BodySizeLimit(middleware.MaxRequestBodySize, logger))
	if cfg.RateLimit.Enabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
		r.Use(rateLimiter.Middleware())
	}
	r.Use(middleware.Logging(logger))
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS())
	}

	// API v1 routes.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/circuits/prove", circuitHandler.ProveCircuit).Methods("POST")
	api.HandleFunc("/runs", circuitHandler.ListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", circuitHandler.GetRun).Methods("GET")

	// Health and status.
	r.HandleFunc("/health", circuitHandler.HealthCheck).Methods("GET")
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ready"}`))
	}).Methods("GET")
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service": "zk-circuit-compiler", "version": "0.1.0"}`))
	}).Methods("GET")

	return r
}
