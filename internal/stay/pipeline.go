package stay

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/metrics"
)

// Pipeline runs the full per-patient stay determination. It owns no merging
// logic itself; it sequences the segment builder, classification gate,
// nesting resolver, contiguity merger, overlap resolver and length
// calculator. A Pipeline is read-only after construction and safe to share
// across patient workers.
type Pipeline struct {
	classifier *Classifier
	lag        time.Duration
}

// NewPipeline builds a pipeline with the given classifier and lag threshold.
func NewPipeline(classifier *Classifier, lag time.Duration) (*Pipeline, error) {
	if lag <= 0 {
		return nil, ErrLagThreshold
	}
	if classifier == nil {
		return nil, fmt.Errorf("pipeline requires a specialty classifier")
	}
	return &Pipeline{classifier: classifier, lag: lag}, nil
}

// Lag returns the configured lag threshold.
func (p *Pipeline) Lag() time.Duration {
	return p.lag
}

// DetermineStays computes the finalized acute stays for one patient from its
// complete raw event set. A patient with no surviving acute segments yields
// an empty result and no error. Processing has no side effects, so a failed
// patient can be retried safely.
func (p *Pipeline) DetermineStays(patientID string, events []RawEvent) ([]Stay, error) {
	start := time.Now()

	built := BuildSegments(patientID, events)

	transferStays, err := p.mergeStream(built.TransferDerived)
	if err != nil {
		metrics.RecordPatientProcessed("failed", start)
		return nil, fmt.Errorf("transfer-derived stream for patient %s: %w", patientID, err)
	}

	directStays, err := p.mergeStream(built.Direct)
	if err != nil {
		metrics.RecordPatientProcessed("failed", start)
		return nil, fmt.Errorf("direct stream for patient %s: %w", patientID, err)
	}

	// Transfer-derived stays win where the streams intersect; the surviving
	// union may hold newly adjacent intervals, so it is denested and merged
	// one final time.
	union := ResolveOverlap(transferStays, directStays)
	union = resolveNestedStays(dedupeStays(union))
	merged, err := MergeStays(union, p.lag)
	if err != nil {
		metrics.RecordPatientProcessed("failed", start)
		return nil, fmt.Errorf("final merge for patient %s: %w", patientID, err)
	}

	final := FinalizeStays(merged)

	log.Debug().
		Str("patient", patientID).
		Int("events", len(events)).
		Int("transferSegments", len(built.TransferDerived)).
		Int("directSegments", len(built.Direct)).
		Int("stays", len(final)).
		Msg("Determined stays for patient")

	status := "success"
	if len(final) == 0 {
		status = "empty"
	}
	metrics.RecordPatientProcessed(status, start)
	metrics.RecordStaysEmitted(len(final))

	return final, nil
}

// mergeStream takes one raw segment stream through the classification gate,
// de-duplication, nesting resolution and the contiguity merge.
func (p *Pipeline) mergeStream(segs []Segment) ([]Stay, error) {
	acute := FilterAcute(segs, p.classifier)
	acute = ResolveNested(DedupeSegments(acute))
	return MergeSegments(acute, p.lag)
}
