package control

import "time"

// Clock supplies "now" to every component that makes a time-based decision.
// Injecting it keeps due/attempt logic deterministic under test; production
// code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
