package stay

import "testing"

func TestResolveNested(t *testing.T) {
	tests := []struct {
		name string
		segs []Segment
		want []Segment
	}{
		{
			name: "inner segment removed",
			segs: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
				seg(t, "2024-01-03T00:00", "2024-01-05T00:00"),
			},
			want: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
			},
		},
		{
			name: "partial overlap is not nesting",
			segs: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-05T00:00"),
				seg(t, "2024-01-03T00:00", "2024-01-08T00:00"),
			},
			want: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-05T00:00"),
				seg(t, "2024-01-03T00:00", "2024-01-08T00:00"),
			},
		},
		{
			name: "shared end counts as nested",
			segs: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
				seg(t, "2024-01-04T00:00", "2024-01-10T00:00"),
			},
			want: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
			},
		},
		{
			name: "shared begin left for the merge tie policy",
			segs: []Segment{
				seg(t, "2024-02-01T00:00", "2024-02-03T00:00"),
				seg(t, "2024-02-01T00:00", "2024-02-01T12:00"),
			},
			want: []Segment{
				seg(t, "2024-02-01T00:00", "2024-02-03T00:00"),
				seg(t, "2024-02-01T00:00", "2024-02-01T12:00"),
			},
		},
		{
			name: "multiple independent pairs resolved in one pass",
			segs: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
				seg(t, "2024-01-02T00:00", "2024-01-03T00:00"),
				seg(t, "2024-02-01T00:00", "2024-02-10T00:00"),
				seg(t, "2024-02-04T00:00", "2024-02-05T00:00"),
			},
			want: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-10T00:00"),
				seg(t, "2024-02-01T00:00", "2024-02-10T00:00"),
			},
		},
		{
			name: "disjoint segments untouched",
			segs: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-02T00:00"),
				seg(t, "2024-01-05T00:00", "2024-01-06T00:00"),
			},
			want: []Segment{
				seg(t, "2024-01-01T00:00", "2024-01-02T00:00"),
				seg(t, "2024-01-05T00:00", "2024-01-06T00:00"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveNested(tt.segs)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d segments, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if !got[i].Begin.Equal(tt.want[i].Begin) || !got[i].End.Equal(tt.want[i].End) {
					t.Errorf("Segment %d: expected [%s, %s], got [%s, %s]",
						i, tt.want[i].Begin, tt.want[i].End, got[i].Begin, got[i].End)
				}
			}
		})
	}
}

func TestDedupeSegments(t *testing.T) {
	segs := []Segment{
		seg(t, "2024-01-01T00:00", "2024-01-02T00:00"),
		seg(t, "2024-01-01T00:00", "2024-01-02T00:00"),
		seg(t, "2024-01-03T00:00", "2024-01-04T00:00"),
	}

	got := DedupeSegments(segs)
	if len(got) != 2 {
		t.Fatalf("Expected 2 segments after dedupe, got %d", len(got))
	}
}
