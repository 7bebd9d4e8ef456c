package clock

import "time"

// Clock abstracts time so that staleness checks and debounce timers can be
// driven from tests without real waiting.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// System returns the wall clock.
func System() Clock {
	return systemClock{}
}
