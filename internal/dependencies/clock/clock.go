// Package clock supplies the time source for ban timestamps and command
// cooldowns.
package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time
}

// System reads the wall clock
type System struct{}

// New creates a System clock
func New() System {
	return System{}
}

// Now returns the current time in UTC, the zone ban rows are stored in
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Since returns the time elapsed on c since t
func Since(c Clock, t time.Time) time.Duration {
	return c.Now().Sub(t)
}
