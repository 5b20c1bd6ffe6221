package stay

import (
	"sort"
	"time"
)

// Segment is an atomic, non-subdivided span of time a patient spent under one
// clinical specialty. Segments are ephemeral: they exist between event
// splitting and interval merging, then fold into a Stay.
type Segment struct {
	PatientID string
	Begin     time.Time
	End       time.Time
	Specialty string
}

// Valid reports whether the segment satisfies the begin-before-end invariant.
func (s Segment) Valid() bool {
	return s.Begin.Before(s.End)
}

// Stay is one continuous acute hospitalization after all merging.
// LengthOfStayDays is populated by FinalizeStays.
type Stay struct {
	PatientID        string    `json:"patientId"`
	Begin            time.Time `json:"begin"`
	End              time.Time `json:"end"`
	LengthOfStayDays int       `json:"lengthOfStayDays"`
}

// DedupeSegments collapses segments with identical (begin, end) pairs,
// keeping the first occurrence. Specialty differences between duplicates are
// irrelevant past the classification gate.
func DedupeSegments(segs []Segment) []Segment {
	type key struct{ begin, end int64 }
	seen := make(map[key]struct{}, len(segs))
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		k := key{s.Begin.UnixNano(), s.End.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// dedupeStays collapses stays with identical (begin, end) pairs.
func dedupeStays(stays []Stay) []Stay {
	type key struct{ begin, end int64 }
	seen := make(map[key]struct{}, len(stays))
	out := make([]Stay, 0, len(stays))
	for _, s := range stays {
		k := key{s.Begin.UnixNano(), s.End.UnixNano()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sortStays orders stays chronologically by begin, then by end for identical
// begins.
func sortStays(stays []Stay) {
	sort.Slice(stays, func(i, j int) bool {
		if stays[i].Begin.Equal(stays[j].Begin) {
			return stays[i].End.Before(stays[j].End)
		}
		return stays[i].Begin.Before(stays[j].Begin)
	})
}
