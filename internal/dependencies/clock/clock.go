// Package clock abstracts wall-clock time so game timestamps and session
// durations can be controlled in tests.
package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// SystemClock reads the system clock
type SystemClock struct{}

// New creates a new SystemClock
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t
func (SystemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}
