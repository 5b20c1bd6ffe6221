package couchbase

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const runLockKey = "run_lock"

// RunLocker serializes batch runs against the results bucket. A run acquires
// the lock before writing stay documents so two concurrent runs cannot
// interleave their output; the lock expires on its own if a run dies without
// releasing it.
type RunLocker struct {
	bucket *gocb.Bucket
	runID  string
	held   bool
}

// NewRunLocker creates a locker for the given run identifier
func NewRunLocker(bucket *gocb.Bucket, runID string) *RunLocker {
	return &RunLocker{bucket: bucket, runID: runID}
}

type runLockDoc struct {
	RunID     string    `json:"runId"`
	LockedAt  time.Time `json:"lockedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// expired reports whether the lock may be taken over at the given instant.
func (d runLockDoc) expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Acquire takes the run lock. It fails if another unexpired run holds it.
// Creation uses Insert so two runs racing for a free lock cannot both win;
// taking over an expired lock uses a CAS replace so a concurrent takeover
// loses cleanly instead of overwriting.
func (l *RunLocker) Acquire() error {
	if l.held {
		return fmt.Errorf("run lock already held by this run")
	}

	col := l.bucket.DefaultCollection()

	doc := runLockDoc{
		RunID:     l.runID,
		LockedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(1 * time.Hour),
	}

	_, err := col.Insert(runLockKey, doc, &gocb.InsertOptions{})
	if err == nil {
		l.held = true
		log.Info().Str("runId", l.runID).Msg("Run lock acquired")
		return nil
	}
	if !errors.Is(err, gocb.ErrDocumentExists) {
		return fmt.Errorf("failed to create run lock: %w", err)
	}

	res, err := col.Get(runLockKey, &gocb.GetOptions{})
	if err != nil {
		return fmt.Errorf("failed to check run lock: %w", err)
	}
	var existing runLockDoc
	if err := res.Content(&existing); err != nil {
		return fmt.Errorf("failed to parse run lock: %w", err)
	}
	if !existing.expired(time.Now().UTC()) {
		return fmt.Errorf("another run %s holds the lock until %s",
			existing.RunID, existing.ExpiresAt.Format(time.RFC3339))
	}

	// Expired lock from a dead run; take it over at the observed version.
	log.Warn().
		Str("staleRun", existing.RunID).
		Msg("Replacing expired run lock")
	if _, err := col.Replace(runLockKey, doc, &gocb.ReplaceOptions{Cas: res.Cas()}); err != nil {
		return fmt.Errorf("failed to replace expired run lock: %w", err)
	}

	l.held = true
	log.Info().Str("runId", l.runID).Msg("Run lock acquired")
	return nil
}

// Release drops the run lock
func (l *RunLocker) Release() error {
	if !l.held {
		return fmt.Errorf("run lock is not held")
	}

	col := l.bucket.DefaultCollection()

	if _, err := col.Remove(runLockKey, &gocb.RemoveOptions{}); err != nil {
		return fmt.Errorf("failed to remove run lock: %w", err)
	}

	l.held = false
	log.Info().Str("runId", l.runID).Msg("Run lock released")
	return nil
}

// Held reports whether this run currently holds the lock
func (l *RunLocker) Held() bool {
	return l.held
}
