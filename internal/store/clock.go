package store

import "time"

// Clock supplies the timestamps stored on documents and runs.
// Implemented by SystemClock (production) and fixed clocks (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
//
// Thread-safety: SystemClock is stateless and safe for concurrent use.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
