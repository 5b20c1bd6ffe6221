// Package source provides the event collaborators that feed raw encounter
// records into the stay engine.
package source

import (
	"context"
	"fmt"
	"sort"

	"meridianhealth.io/losengine/internal/stay"
)

// Source yields the cohort's patient identifiers and each patient's complete
// raw event set. Cohort restriction and the exclusion of encounters without
// a discharge time both happen here, before events reach the engine.
type Source interface {
	PatientIDs(ctx context.Context) ([]string, error)
	PatientEvents(ctx context.Context, patientID string) ([]stay.RawEvent, error)
}

// MemorySource serves events from an in-memory map. It backs unit tests and
// the occasional ad-hoc replay of an extracted record set.
type MemorySource struct {
	events map[string][]stay.RawEvent
	// FailPatients simulates per-patient source failures.
	FailPatients map[string]error
}

// NewMemorySource groups the given events by patient.
func NewMemorySource(events []stay.RawEvent) *MemorySource {
	byPatient := make(map[string][]stay.RawEvent)
	for _, ev := range events {
		byPatient[ev.PatientID] = append(byPatient[ev.PatientID], ev)
	}
	return &MemorySource{events: byPatient}
}

// PatientIDs returns the patient identifiers in deterministic order.
func (m *MemorySource) PatientIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.events))
	for id := range m.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PatientEvents returns one patient's events.
func (m *MemorySource) PatientEvents(_ context.Context, patientID string) ([]stay.RawEvent, error) {
	if err, ok := m.FailPatients[patientID]; ok {
		return nil, err
	}
	evs, ok := m.events[patientID]
	if !ok {
		return nil, fmt.Errorf("unknown patient %s", patientID)
	}
	return evs, nil
}
