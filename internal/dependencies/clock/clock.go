// Package clock abstracts the current time so token lifetimes can be tested.
package clock

import "time"

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// System reads the wall clock
type System struct{}

// New returns the system clock
func New() System {
	return System{}
}

// Now returns the current time in UTC
func (System) Now() time.Time {
	return time.Now().UTC()
}
