package stay

// ResolveNested deletes every segment whose interval lies entirely inside
// another segment's interval for the same patient, keeping the enclosing
// segment. Input must already be de-duplicated; output is de-duplicated
// again.
//
// Segments that share a begin time are deliberately left alone even when one
// encloses the other: the merge stage owns the duplicate-begin tie policy and
// resolves those pairs through its deferred/active two-pass walk.
func ResolveNested(segs []Segment) []Segment {
	if len(segs) < 2 {
		return segs
	}

	out := make([]Segment, 0, len(segs))
	for i, inner := range segs {
		enclosed := false
		for j, outer := range segs {
			if i == j {
				continue
			}
			if outer.Begin.Before(inner.Begin) && !inner.End.After(outer.End) {
				enclosed = true
				break
			}
		}
		if !enclosed {
			out = append(out, inner)
		}
	}

	return DedupeSegments(out)
}

// resolveNestedStays applies the same enclosure rule to merged stays. The
// union produced by overlap resolution can nest a direct stay inside a wider
// transfer-derived one (or the reverse), and the chain walk requires a
// nesting-free input.
func resolveNestedStays(stays []Stay) []Stay {
	if len(stays) < 2 {
		return stays
	}

	out := make([]Stay, 0, len(stays))
	for i, inner := range stays {
		enclosed := false
		for j, outer := range stays {
			if i == j {
				continue
			}
			if outer.Begin.Before(inner.Begin) && !inner.End.After(outer.End) {
				enclosed = true
				break
			}
		}
		if !enclosed {
			out = append(out, inner)
		}
	}

	return dedupeStays(out)
}
