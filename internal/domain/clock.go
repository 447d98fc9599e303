package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps ProcessedAt. Tests and the offline classify tool freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the processing-time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current processing time.
func Now() time.Time {
	return clock.Now()
}
