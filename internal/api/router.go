package api

import (
	"github.com/alexivanou/sportslocations/internal/service"
	"github.com/alexivanou/sportslocations/internal/stats"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter creates a new HTTP router. A nil limiter disables rate limiting.
func NewRouter(service service.ServiceInterface, statsCollector *stats.Collector, limiter *IPRateLimiter, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := NewHandler(service, logger)
	statsHandler := NewStatsHandler(statsCollector, logger)

	router := mux.NewRouter()
	router.Use(RequestID, RequestLogger(logger))

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API v1
	v1 := router.PathPrefix("/api/v1").Subrouter()
	if limiter != nil {
		v1.Use(limiter.Middleware)
	}
	v1.HandleFunc("/locations/search", handler.SearchLocations).Methods("GET")
	v1.HandleFunc("/layouts/{id}", handler.GetLayout).Methods("GET")
	v1.HandleFunc("/layouts/{id}", handler.SaveLayout).Methods("PUT")
	v1.HandleFunc("/layouts/{id}", handler.DeleteLayout).Methods("DELETE")
	v1.HandleFunc("/layouts/{id}/output", handler.GetLayoutOutput).Methods("GET")
	if statsCollector != nil {
		v1.HandleFunc("/stats", statsHandler.GetStats).Methods("GET")
	}

	return router
}
