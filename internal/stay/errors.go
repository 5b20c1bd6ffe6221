package stay

import "errors"

var (
	// ErrInvalidSegment marks a segment whose begin does not precede its end,
	// or a segment set that still overlaps after nesting resolution.
	ErrInvalidSegment = errors.New("invalid segment: begin must precede end")

	// ErrDuplicateBeginAmbiguity is raised when more than two segments share
	// the same begin time. The upstream data promises at most a two-way tie;
	// anything beyond that needs manual review instead of a guessed merge.
	ErrDuplicateBeginAmbiguity = errors.New("more than two segments share a begin time")

	// ErrLagThreshold is returned for a non-positive lag threshold.
	ErrLagThreshold = errors.New("lag threshold must be positive")
)
