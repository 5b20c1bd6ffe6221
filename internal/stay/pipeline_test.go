package stay

import (
	"errors"
	"testing"
	"time"
)

func testClassifier() *Classifier {
	return NewClassifier(map[string]Category{
		"MED":   CategoryAcute,
		"ICU":   CategoryAcute,
		"SURG":  CategoryAcute,
		"REHAB": CategoryNonAcute,
	})
}

func TestNewPipelineValidation(t *testing.T) {
	if _, err := NewPipeline(testClassifier(), 0); !errors.Is(err, ErrLagThreshold) {
		t.Errorf("Expected ErrLagThreshold for zero lag, got %v", err)
	}
	if _, err := NewPipeline(nil, 24*time.Hour); err == nil {
		t.Error("Expected error for nil classifier")
	}
}

func TestDetermineStaysEndToEnd(t *testing.T) {
	p, err := NewPipeline(testClassifier(), 24*time.Hour)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	events := []RawEvent{
		// Transferred admission: MED then ICU, one continuous hospitalization.
		admission(t, "s1", "2024-01-01T00:00", "2024-01-10T00:00", "MED"),
		transfer(t, "s1", "2024-01-04T00:00", "ICU"),
		// Direct admission inside the transfer-derived stay: discarded by
		// overlap precedence.
		admission(t, "s2", "2024-01-02T00:00", "2024-01-03T00:00", "MED"),
		// Fee episode just past the transfer stay, within the lag threshold:
		// fuses onto the stay in the final merge.
		fee(t, "2024-01-10T12:00", "2024-01-13T00:00", "MED"),
		// Non-acute and unclassified encounters never reach the output.
		fee(t, "2024-02-01T00:00", "2024-02-02T00:00", "REHAB"),
		admission(t, "s3", "2024-03-01T08:00", "2024-03-04T08:00", "MYSTERY"),
		// A separate acute admission well clear of everything else.
		admission(t, "s4", "2024-04-01T00:00", "2024-04-03T00:00", "MED"),
	}

	stays, err := p.DetermineStays("p1", events)
	if err != nil {
		t.Fatalf("DetermineStays returned error: %v", err)
	}

	if len(stays) != 2 {
		t.Fatalf("Expected 2 stays, got %d: %+v", len(stays), stays)
	}

	first := stays[0]
	if !first.Begin.Equal(mustTime(t, "2024-01-01T00:00")) || !first.End.Equal(mustTime(t, "2024-01-13T00:00")) {
		t.Errorf("Expected first stay [2024-01-01, 2024-01-13], got [%s, %s]", first.Begin, first.End)
	}
	if first.LengthOfStayDays != 12 {
		t.Errorf("Expected first stay LOS 12 days, got %d", first.LengthOfStayDays)
	}

	second := stays[1]
	if !second.Begin.Equal(mustTime(t, "2024-04-01T00:00")) || second.LengthOfStayDays != 2 {
		t.Errorf("Expected second stay beginning 2024-04-01 with LOS 2, got %+v", second)
	}

	// No stay may contain the non-acute or unclassified intervals.
	for _, s := range stays {
		if s.Begin.Month() == time.February || s.Begin.Month() == time.March {
			t.Errorf("Excluded encounter leaked into output: %+v", s)
		}
	}
}

func TestDetermineStaysEmptyPatient(t *testing.T) {
	p, err := NewPipeline(testClassifier(), 24*time.Hour)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	// Only non-acute encounters: not an error, just zero stays.
	stays, err := p.DetermineStays("p1", []RawEvent{
		fee(t, "2024-02-01T00:00", "2024-02-02T00:00", "REHAB"),
	})
	if err != nil {
		t.Fatalf("Expected no error for empty result, got %v", err)
	}
	if len(stays) != 0 {
		t.Fatalf("Expected zero stays, got %d", len(stays))
	}
}

func TestDetermineStaysNoOverlapBetweenOutputs(t *testing.T) {
	p, err := NewPipeline(testClassifier(), 24*time.Hour)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	events := []RawEvent{
		admission(t, "s1", "2024-01-01T00:00", "2024-01-05T00:00", "MED"),
		fee(t, "2024-01-03T00:00", "2024-01-20T00:00", "SURG"),
		admission(t, "s2", "2024-01-18T00:00", "2024-01-25T00:00", "ICU"),
	}

	stays, err := p.DetermineStays("p1", events)
	if err != nil {
		t.Fatalf("DetermineStays returned error: %v", err)
	}

	for i := 1; i < len(stays); i++ {
		if stays[i].Begin.Before(stays[i-1].End) {
			t.Errorf("Finalized stays overlap: %+v and %+v", stays[i-1], stays[i])
		}
	}
}

func TestDetermineStaysAmbiguityFailsPatient(t *testing.T) {
	p, err := NewPipeline(testClassifier(), 24*time.Hour)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	// Three direct encounters sharing one begin time exceed the documented
	// two-way tie guarantee.
	events := []RawEvent{
		admission(t, "s1", "2024-01-01T00:00", "2024-01-02T00:00", "MED"),
		fee(t, "2024-01-01T00:00", "2024-01-03T00:00", "SURG"),
		fee(t, "2024-01-01T00:00", "2024-01-04T00:00", "ICU"),
	}

	_, err = p.DetermineStays("p1", events)
	if !errors.Is(err, ErrDuplicateBeginAmbiguity) {
		t.Fatalf("Expected ErrDuplicateBeginAmbiguity, got %v", err)
	}
}
