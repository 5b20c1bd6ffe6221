package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/couchbase"
)

// DocumentStore is the document access the handlers need; satisfied by the
// Couchbase client and by test stubs.
type DocumentStore interface {
	GetDocument(docID string, result interface{}) error
}

// Handlers serves persisted stay results.
type Handlers struct {
	store DocumentStore
}

// NewHandlers creates the handler set backed by the given store.
func NewHandlers(store DocumentStore) *Handlers {
	return &Handlers{store: store}
}

// Health reports service liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PatientStays returns the finalized stays computed for one patient.
func (h *Handlers) PatientStays(w http.ResponseWriter, r *http.Request) {
	patientID := mux.Vars(r)["patientID"]
	if patientID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "patient id is required"})
		return
	}

	var doc map[string]interface{}
	err := h.store.GetDocument("stays::"+patientID, &doc)
	if err != nil {
		if couchbase.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stays recorded for patient"})
			return
		}
		log.Error().Err(err).Str("patient", patientID).Msg("Failed to read stays document")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read stays"})
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Run returns a batch run summary by run identifier; "latest" resolves to
// the most recent run.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runID"]

	var doc map[string]interface{}
	err := h.store.GetDocument("run::"+runID, &doc)
	if err != nil {
		if couchbase.IsNotFound(err) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown run"})
			return
		}
		log.Error().Err(err).Str("runId", runID).Msg("Failed to read run document")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read run"})
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}
