package stay

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ResolveOverlap reconciles the two independently merged stay streams for one
// patient. A direct (non-transfer) stay is discarded when its begin or its
// end falls within — inclusively — any transfer-derived interval:
// transfer-derived stays reconstruct ward-to-ward continuity the direct
// sources cannot see, so they are authoritative.
//
// The returned union is not yet final; callers re-resolve nesting and re-run
// the merge, since a surviving direct stay may newly abut a transfer-derived
// stay within the lag threshold.
func ResolveOverlap(transferDerived, direct []Stay) []Stay {
	out := make([]Stay, 0, len(transferDerived)+len(direct))
	out = append(out, transferDerived...)

	for _, d := range direct {
		if intersectsAny(d, transferDerived) {
			log.Debug().
				Str("patient", d.PatientID).
				Time("begin", d.Begin).
				Time("end", d.End).
				Msg("Discarding direct stay overlapping a transfer-derived stay")
			continue
		}
		out = append(out, d)
	}

	return out
}

func intersectsAny(d Stay, transferDerived []Stay) bool {
	for _, t := range transferDerived {
		if within(d.Begin, t) || within(d.End, t) {
			return true
		}
	}
	return false
}

func within(t time.Time, s Stay) bool {
	return !t.Before(s.Begin) && !t.After(s.End)
}
