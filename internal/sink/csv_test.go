package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meridianhealth.io/losengine/internal/stay"
)

func TestCSVSinkWritesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stays.csv")

	s, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}

	begin := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	stays := []stay.Stay{
		{PatientID: "p1", Begin: begin, End: begin.Add(72 * time.Hour), LengthOfStayDays: 3},
		{PatientID: "p1", Begin: begin.AddDate(0, 1, 0), End: begin.AddDate(0, 1, 2), LengthOfStayDays: 2},
	}
	if err := s.WriteStays(context.Background(), "p1", stays); err != nil {
		t.Fatalf("WriteStays failed: %v", err)
	}
	if err := s.WriteStays(context.Background(), "p2", nil); err != nil {
		t.Fatalf("WriteStays for empty patient failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "patient_id" || records[0][3] != "length_of_stay_days" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][0] != "p1" || records[1][1] != "2024-03-01T08:00:00Z" || records[1][3] != "3" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
}

func TestCSVSinkWriteFailureSurfacesPerPatient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stays.csv")

	s, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}

	// Break the underlying file; the buffered writer must report the failure
	// on this patient's write, not silently defer it to Close.
	s.file.Close()

	begin := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	stays := []stay.Stay{
		{PatientID: "p1", Begin: begin, End: begin.Add(72 * time.Hour), LengthOfStayDays: 3},
	}
	if err := s.WriteStays(context.Background(), "p1", stays); err == nil {
		t.Fatal("Expected the write failure to surface in WriteStays")
	}
	if s.patients != 0 {
		t.Errorf("Expected no patients counted as written, got %d", s.patients)
	}
}

func TestMultiSinkStopsOnFirstFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stays.csv")
	csvSink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	defer csvSink.Close()

	failing := failingSink{}
	multi := NewMultiSink(failing, csvSink)

	err = multi.WriteStays(context.Background(), "p1", []stay.Stay{{PatientID: "p1"}})
	if err == nil {
		t.Fatal("Expected the first sink's failure to surface")
	}
	if csvSink.rows != 0 {
		t.Errorf("Expected no rows written past the failure, got %d", csvSink.rows)
	}
}

type failingSink struct{}

func (failingSink) WriteStays(context.Context, string, []stay.Stay) error {
	return os.ErrClosed
}

func (failingSink) Close() error { return nil }
