package stay

import (
	"math"

	"github.com/rs/zerolog/log"

	"meridianhealth.io/losengine/internal/metrics"
)

// LengthOfStayDays computes a stay's duration in whole days, rounding
// half-up on the hour count.
func LengthOfStayDays(s Stay) int {
	hours := s.End.Sub(s.Begin).Hours()
	return int(math.Round(hours / 24))
}

// FinalizeStays populates LengthOfStayDays on each stay. A stay whose end
// does not come after its begin indicates an upstream data defect; it is
// flagged and withheld from the output instead of silently emitted with a
// zero length.
func FinalizeStays(stays []Stay) []Stay {
	out := make([]Stay, 0, len(stays))
	for _, s := range stays {
		if !s.End.After(s.Begin) {
			log.Error().
				Str("patient", s.PatientID).
				Time("begin", s.Begin).
				Time("end", s.End).
				Msg("Flagging zero-length stay; upstream data defect")
			metrics.RecordStayFlagged()
			continue
		}
		s.LengthOfStayDays = LengthOfStayDays(s)
		out = append(out, s)
	}
	sortStays(out)
	return out
}
