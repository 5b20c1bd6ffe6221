package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/stay"
)

// CSVSink appends finalized stays to a CSV file. Writes are expected to come
// from a single writer goroutine; a write failure is fatal to the batch, so
// errors are returned rather than swallowed.
type CSVSink struct {
	file     *os.File
	writer   *csv.Writer
	rows     int
	patients int
}

var csvHeader = []string{"patient_id", "stay_begin", "stay_end", "length_of_stay_days"}

// NewCSVSink creates the output file, truncating any previous run's output,
// and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened CSV output file")
	return &CSVSink{file: f, writer: w}, nil
}

// WriteStays appends one patient's finalized stays.
func (s *CSVSink) WriteStays(_ context.Context, patientID string, stays []stay.Stay) error {
	for _, st := range stays {
		row := []string{
			patientID,
			st.Begin.UTC().Format(time.RFC3339),
			st.End.UTC().Format(time.RFC3339),
			strconv.Itoa(st.LengthOfStayDays),
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("failed to write stay row for patient %s: %w", patientID, err)
		}
		s.rows++
	}

	// Flush per patient: the writer buffers, and a deferred write error would
	// otherwise surface only at Close, after the patient was already counted
	// as written.
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush stays for patient %s: %w", patientID, err)
	}

	s.patients++
	return nil
}

// Close flushes and closes the output file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	log.Info().
		Int("rows", s.rows).
		Int("patients", s.patients).
		Msg("Closed CSV output file")
	return s.file.Close()
}
