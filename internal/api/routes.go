package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meridianhealth.io/losengine/internal/metrics"
)

// SetupRoutes wires the results API router.
func SetupRoutes(store DocumentStore) *mux.Router {
	h := NewHandlers(store)

	router := mux.NewRouter()
	router.Use(metrics.Middleware)

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/patients/{patientID}/stays", h.PatientStays).Methods("GET")
	router.HandleFunc("/runs/{runID}", h.Run).Methods("GET")

	return router
}
