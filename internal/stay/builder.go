package stay

import (
	"sort"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/metrics"
)

// BuiltSegments holds the two independently processed segment streams for one
// patient. TransferDerived segments come from admissions split at ward
// transfers; Direct segments come from transfer-free admissions and
// fee-basis episodes. The streams stay separate until overlap resolution,
// where transfer-derived stays take precedence.
type BuiltSegments struct {
	TransferDerived []Segment
	Direct          []Segment
}

// BuildSegments converts one patient's raw encounter events into atomic
// segments. Admissions with k transfers yield a chain of k+1 segments split
// at the transfer times; admissions without transfers and fee-basis episodes
// yield a single segment each.
//
// Events missing an end timestamp should have been filtered upstream; any
// that slip through are logged and dropped, as are segments violating the
// begin-before-end invariant (for example a transfer recorded at or after
// discharge).
func BuildSegments(patientID string, events []RawEvent) BuiltSegments {
	admissions := make([]RawEvent, 0, len(events))
	fees := make([]RawEvent, 0)
	transfers := make(map[string][]RawEvent)

	for _, ev := range events {
		if ev.PatientID != patientID {
			log.Warn().
				Str("patient", patientID).
				Str("eventPatient", ev.PatientID).
				Msg("Dropping event for a different patient")
			continue
		}
		switch ev.Kind {
		case KindAdmission:
			admissions = append(admissions, ev)
		case KindTransfer:
			if ev.StayKey == "" {
				log.Warn().
					Str("patient", patientID).
					Time("transferTime", ev.Begin).
					Msg("Dropping transfer without a stay key")
				continue
			}
			transfers[ev.StayKey] = append(transfers[ev.StayKey], ev)
		case KindFeeBasis:
			fees = append(fees, ev)
		}
	}

	var built BuiltSegments

	for _, adm := range admissions {
		if adm.End.IsZero() {
			// Open admissions are excluded upstream; never build from one.
			log.Warn().
				Str("patient", patientID).
				Str("stayKey", adm.StayKey).
				Time("admit", adm.Begin).
				Msg("Dropping admission without a discharge time")
			metrics.RecordSegmentRejected("missing_discharge")
			continue
		}

		chain := transfers[adm.StayKey]
		if adm.StayKey == "" || len(chain) == 0 {
			seg := Segment{PatientID: patientID, Begin: adm.Begin, End: adm.End, Specialty: adm.Specialty}
			built.Direct = appendValid(built.Direct, seg)
			continue
		}

		sort.Slice(chain, func(i, j int) bool { return chain[i].Begin.Before(chain[j].Begin) })

		// Boundaries: admit, each transfer time, discharge. Segment i carries
		// the specialty in effect from boundary i to boundary i+1.
		bounds := make([]RawEvent, 0, len(chain)+1)
		bounds = append(bounds, adm)
		bounds = append(bounds, chain...)

		for i, b := range bounds {
			end := adm.End
			if i+1 < len(bounds) {
				end = bounds[i+1].Begin
			}
			seg := Segment{PatientID: patientID, Begin: b.Begin, End: end, Specialty: b.Specialty}
			built.TransferDerived = appendValid(built.TransferDerived, seg)
		}
	}

	for _, fee := range fees {
		if fee.End.IsZero() {
			log.Warn().
				Str("patient", patientID).
				Time("treatmentFrom", fee.Begin).
				Msg("Dropping fee-basis episode without a treatment end")
			metrics.RecordSegmentRejected("missing_discharge")
			continue
		}
		seg := Segment{PatientID: patientID, Begin: fee.Begin, End: fee.End, Specialty: fee.Specialty}
		built.Direct = appendValid(built.Direct, seg)
	}

	// Transfers whose stay key matches no admission reconstruct nothing.
	for key, chain := range transfers {
		if !hasAdmissionKey(admissions, key) {
			log.Warn().
				Str("patient", patientID).
				Str("stayKey", key).
				Int("transfers", len(chain)).
				Msg("Dropping transfers without a matching admission")
		}
	}

	return built
}

// appendValid appends seg if it satisfies begin < end, otherwise logs and
// counts the rejection.
func appendValid(segs []Segment, seg Segment) []Segment {
	if !seg.Valid() {
		log.Warn().
			Str("patient", seg.PatientID).
			Time("begin", seg.Begin).
			Time("end", seg.End).
			Str("specialty", seg.Specialty).
			Msg("Excluding segment with inverted or zero-length interval")
		metrics.RecordSegmentRejected("invalid_interval")
		return segs
	}
	return append(segs, seg)
}

func hasAdmissionKey(admissions []RawEvent, key string) bool {
	for _, adm := range admissions {
		if adm.StayKey == key {
			return true
		}
	}
	return false
}

// FilterAcute keeps only segments whose specialty classifies as acute.
// Non-acute and unknown specialties are counted and dropped; an unknown code
// is never treated as acute.
func FilterAcute(segs []Segment, classifier *Classifier) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		switch classifier.Classify(seg.Specialty) {
		case CategoryAcute:
			out = append(out, seg)
		case CategoryNonAcute:
			metrics.RecordSegmentRejected("nonacute_specialty")
		default:
			log.Debug().
				Str("patient", seg.PatientID).
				Str("specialty", seg.Specialty).
				Msg("Excluding segment with unclassified specialty")
			metrics.RecordSegmentRejected("unknown_specialty")
		}
	}
	return out
}
