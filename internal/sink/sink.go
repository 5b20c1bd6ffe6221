// Package sink provides the output collaborators a batch run writes
// finalized stays to. The engine is agnostic to the destination; anything
// satisfying the batch Sink contract works.
package sink

import (
	"context"

	"meridianhealth.io/losengine/internal/stay"
)

// Sink accepts finalized per-patient stay sets. Implementations are called
// from a single writer goroutine and need not be safe for concurrent use.
type Sink interface {
	WriteStays(ctx context.Context, patientID string, stays []stay.Stay) error
	Close() error
}

// MultiSink fans writes out to several sinks; the first failure aborts the
// write, since a partially written batch must not be reported as complete.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// WriteStays writes to every sink in order.
func (m *MultiSink) WriteStays(ctx context.Context, patientID string, stays []stay.Stay) error {
	for _, s := range m.sinks {
		if err := s.WriteStays(ctx, patientID, stays); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink, returning the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
