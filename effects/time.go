package effects

import (
	"time"

	"github.com/rickb777/date/v2/timespan"
)

type TimeSpan = timespan.TimeSpan

// NewTimeSpan spans from..to. A zero from gives an empty span at to.
func NewTimeSpan(from, to time.Time) TimeSpan {
	if from.IsZero() {
		from = to
	}
	return timespan.BetweenTimes(from, to)
}

const epsilon = time.Millisecond

// Now is a short span around the current instant.
func Now() TimeSpan {
	now := time.Now()
	return timespan.BetweenTimes(now.Add(-1*epsilon), now.Add(epsilon))
}
