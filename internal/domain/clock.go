package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is the package-level time source for record IDs, record timestamps
// and package fetch times. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time in UTC from the active clock.
func Now() time.Time {
	return clock.Now().UTC()
}
