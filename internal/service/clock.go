package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current wall-clock time. Services default to time.Now.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// normalizeInstant keeps instants at millisecond precision in UTC so they
// compare equal after a round trip through JSON or Postgres.
func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
