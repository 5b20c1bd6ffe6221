package sink

import (
	"context"
	"fmt"
	"time"

	"meridianhealth.io/losengine/internal/couchbase"
	"meridianhealth.io/losengine/internal/stay"
)

// PatientStaysDocument is the per-patient result document persisted to the
// results bucket and read back by the API service.
type PatientStaysDocument struct {
	PatientID string      `json:"patientId"`
	RunID     string      `json:"runId"`
	Stays     []stay.Stay `json:"stays"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// PatientStaysDocID returns the document key for a patient's stays.
func PatientStaysDocID(patientID string) string {
	return fmt.Sprintf("stays::%s", patientID)
}

// CouchbaseSink persists one stays document per patient.
type CouchbaseSink struct {
	db    *couchbase.Client
	runID string
}

// NewCouchbaseSink creates a sink writing documents tagged with runID.
func NewCouchbaseSink(db *couchbase.Client, runID string) *CouchbaseSink {
	return &CouchbaseSink{db: db, runID: runID}
}

// WriteStays upserts the patient's stays document. Patients with zero stays
// still get a document so the API can distinguish "processed, no acute
// stays" from "never processed".
func (s *CouchbaseSink) WriteStays(_ context.Context, patientID string, stays []stay.Stay) error {
	doc := PatientStaysDocument{
		PatientID: patientID,
		RunID:     s.runID,
		Stays:     stays,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.db.UpsertDocument(PatientStaysDocID(patientID), doc); err != nil {
		return fmt.Errorf("failed to persist stays for patient %s: %w", patientID, err)
	}
	return nil
}

// Close is a no-op; the Couchbase connection is owned by the caller.
func (s *CouchbaseSink) Close() error {
	return nil
}
