package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"meridianhealth.io/losengine/internal/source"
	"meridianhealth.io/losengine/internal/stay"
)

type captureSink struct {
	written map[string][]stay.Stay
	failOn  string
	closed  bool
}

func newCaptureSink() *captureSink {
	return &captureSink{written: make(map[string][]stay.Stay)}
}

func (c *captureSink) WriteStays(_ context.Context, patientID string, stays []stay.Stay) error {
	if c.failOn != "" && patientID == c.failOn {
		return errors.New("disk full")
	}
	c.written[patientID] = stays
	return nil
}

func (c *captureSink) Close() error {
	c.closed = true
	return nil
}

func testPipeline(t *testing.T) *stay.Pipeline {
	t.Helper()
	classifier := stay.NewClassifier(map[string]stay.Category{"MED": stay.CategoryAcute})
	p, err := stay.NewPipeline(classifier, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

func testEvents(t *testing.T, patients int) []stay.RawEvent {
	t.Helper()
	base, err := time.Parse("2006-01-02", "2024-01-01")
	if err != nil {
		t.Fatalf("bad base time: %v", err)
	}
	events := make([]stay.RawEvent, 0, patients)
	for i := 0; i < patients; i++ {
		events = append(events, stay.RawEvent{
			PatientID: fmt.Sprintf("p%02d", i),
			Kind:      stay.KindAdmission,
			StayKey:   fmt.Sprintf("s%02d", i),
			Begin:     base,
			End:       base.Add(72 * time.Hour),
			Specialty: "MED",
		})
	}
	return events
}

func TestRunProcessesAllPatients(t *testing.T) {
	src := source.NewMemorySource(testEvents(t, 20))
	snk := newCaptureSink()

	runner, err := NewRunner("run-1", src, snk, testPipeline(t), 4)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if summary.PatientsTotal != 20 || summary.PatientsWritten != 20 {
		t.Errorf("Expected 20/20 patients written, got %d/%d", summary.PatientsWritten, summary.PatientsTotal)
	}
	if summary.PatientsFailed != 0 || summary.PatientsSkipped != 0 {
		t.Errorf("Expected no failures or skips, got %d failed %d skipped",
			summary.PatientsFailed, summary.PatientsSkipped)
	}
	if summary.StaysWritten != 20 {
		t.Errorf("Expected 20 stays written, got %d", summary.StaysWritten)
	}
	if len(snk.written) != 20 {
		t.Errorf("Expected sink to hold 20 patients, got %d", len(snk.written))
	}
	for id, stays := range snk.written {
		if len(stays) != 1 || stays[0].LengthOfStayDays != 3 {
			t.Errorf("Patient %s: unexpected stays %+v", id, stays)
		}
	}
}

func TestRunIsolatesPatientFailure(t *testing.T) {
	src := source.NewMemorySource(testEvents(t, 5))
	src.FailPatients = map[string]error{"p02": errors.New("corrupt record set")}
	snk := newCaptureSink()

	runner, err := NewRunner("run-2", src, snk, testPipeline(t), 2)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("A single patient failure must not abort the batch, got %v", err)
	}

	if summary.PatientsFailed != 1 {
		t.Errorf("Expected 1 failed patient, got %d", summary.PatientsFailed)
	}
	if summary.PatientsWritten != 4 {
		t.Errorf("Expected 4 written patients, got %d", summary.PatientsWritten)
	}
	if len(summary.FailedPatientIDs) != 1 || summary.FailedPatientIDs[0] != "p02" {
		t.Errorf("Expected failed patient p02, got %v", summary.FailedPatientIDs)
	}
	if _, ok := snk.written["p02"]; ok {
		t.Error("Failed patient must not reach the sink")
	}
}

func TestRunSinkFailureAbortsBatch(t *testing.T) {
	src := source.NewMemorySource(testEvents(t, 10))
	snk := newCaptureSink()
	snk.failOn = "p00"

	runner, err := NewRunner("run-3", src, snk, testPipeline(t), 1)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	summary, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected sink failure to surface as a batch error")
	}
	if summary.PatientsWritten >= summary.PatientsTotal {
		t.Errorf("Expected a partial write count, got %d of %d",
			summary.PatientsWritten, summary.PatientsTotal)
	}
}

func TestRunCancelledContextSkipsRemaining(t *testing.T) {
	src := source.NewMemorySource(testEvents(t, 50))
	snk := newCaptureSink()

	runner, err := NewRunner("run-4", src, snk, testPipeline(t), 2)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := runner.Run(ctx)
	if err == nil {
		t.Fatal("Expected an interruption error for a cancelled run")
	}
	if summary.PatientsSkipped == 0 {
		t.Error("Expected unstarted patients to be skipped")
	}
	if summary.PatientsWritten+summary.PatientsFailed+summary.PatientsSkipped != summary.PatientsTotal {
		t.Errorf("Summary does not account for every patient: %+v", summary)
	}
}
