// Package batch runs the stay pipeline across a patient cohort. Patients are
// independent of each other, so the work is data-parallel at patient
// granularity; only the sink write is serialized.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/sink"
	"meridianhealth.io/losengine/internal/source"
	"meridianhealth.io/losengine/internal/stay"
)

// Summary reports the outcome of one batch run.
type Summary struct {
	RunID            string    `json:"runId"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
	LagThresholdHrs  float64   `json:"lagThresholdHours"`
	PatientsTotal    int       `json:"patientsTotal"`
	PatientsWritten  int       `json:"patientsWritten"`
	PatientsEmpty    int       `json:"patientsEmpty"`
	PatientsFailed   int       `json:"patientsFailed"`
	PatientsSkipped  int       `json:"patientsSkipped"`
	StaysWritten     int       `json:"staysWritten"`
	FailedPatientIDs []string  `json:"failedPatientIds,omitempty"`
}

// Runner drives the per-patient pipeline over a cohort with a fixed-size
// worker pool. Each worker owns its patient's data exclusively; the sink is
// fed by the single Run goroutine.
type Runner struct {
	source   source.Source
	sink     sink.Sink
	pipeline *stay.Pipeline
	workers  int
	runID    string
}

// NewRunner wires a runner. workers must be positive.
func NewRunner(runID string, src source.Source, snk sink.Sink, pipeline *stay.Pipeline, workers int) (*Runner, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	return &Runner{source: src, sink: snk, pipeline: pipeline, workers: workers, runID: runID}, nil
}

type patientResult struct {
	patientID string
	stays     []stay.Stay
	err       error
}

// Run processes every patient in the cohort and writes finalized stays to
// the sink. A failure in one patient's computation is recorded and the batch
// continues; a sink-write failure aborts the batch, with the successfully
// written patients noted in the summary. Cancelling ctx stops dispatching
// new patients and lets in-flight ones finish.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:           r.runID,
		StartedAt:       time.Now().UTC(),
		LagThresholdHrs: r.pipeline.Lag().Hours(),
	}

	ids, err := r.source.PatientIDs(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to load patient cohort: %w", err)
	}
	summary.PatientsTotal = len(ids)

	log.Info().
		Str("runId", r.runID).
		Int("patients", len(ids)).
		Int("workers", r.workers).
		Msg("Starting batch run")

	dispatchCtx, stopDispatch := context.WithCancel(ctx)
	defer stopDispatch()

	jobs := make(chan string)
	results := make(chan patientResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- r.processPatient(ctx, id)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case <-dispatchCtx.Done():
				return
			case jobs <- id:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var sinkErr error
	completed := 0
	for res := range results {
		completed++

		if res.err != nil {
			summary.PatientsFailed++
			summary.FailedPatientIDs = append(summary.FailedPatientIDs, res.patientID)
			log.Error().
				Err(res.err).
				Str("patient", res.patientID).
				Msg("Patient computation failed; continuing batch")
			continue
		}

		if sinkErr != nil {
			// The sink is broken; drain remaining results without writing.
			continue
		}

		if err := r.sink.WriteStays(ctx, res.patientID, res.stays); err != nil {
			sinkErr = fmt.Errorf("sink write failed for patient %s: %w", res.patientID, err)
			stopDispatch()
			continue
		}

		summary.PatientsWritten++
		summary.StaysWritten += len(res.stays)
		if len(res.stays) == 0 {
			summary.PatientsEmpty++
		}
	}

	summary.PatientsSkipped = summary.PatientsTotal - completed
	summary.FinishedAt = time.Now().UTC()

	log.Info().
		Str("runId", r.runID).
		Int("written", summary.PatientsWritten).
		Int("failed", summary.PatientsFailed).
		Int("skipped", summary.PatientsSkipped).
		Int("stays", summary.StaysWritten).
		Dur("duration", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Batch run finished")

	if sinkErr != nil {
		return summary, sinkErr
	}
	if ctx.Err() != nil && summary.PatientsSkipped > 0 {
		return summary, fmt.Errorf("batch run interrupted: %w", ctx.Err())
	}
	return summary, nil
}

// processPatient isolates one patient's computation, converting a panic into
// a recorded failure so a bad record set cannot take down the batch.
func (r *Runner) processPatient(ctx context.Context, patientID string) (res patientResult) {
	res.patientID = patientID
	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("panic while processing patient %s: %v", patientID, p)
		}
	}()

	events, err := r.source.PatientEvents(ctx, patientID)
	if err != nil {
		res.err = fmt.Errorf("failed to load events: %w", err)
		return res
	}

	stays, err := r.pipeline.DetermineStays(patientID, events)
	if err != nil {
		res.err = err
		return res
	}

	res.stays = stays
	return res
}
