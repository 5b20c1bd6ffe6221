package couchbase

import (
	"testing"
	"time"
)

func TestRunLockExpiry(t *testing.T) {
	expiresAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := runLockDoc{
		RunID:     "run-1",
		LockedAt:  expiresAt.Add(-1 * time.Hour),
		ExpiresAt: expiresAt,
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before expiry still held", now: expiresAt.Add(-time.Minute), want: false},
		{name: "exactly at expiry may be taken over", now: expiresAt, want: true},
		{name: "after expiry may be taken over", now: expiresAt.Add(time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := doc.expired(tt.now); got != tt.want {
				t.Errorf("expired(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
