// Package clock abstracts time for components that schedule delayed work.
//
// Production code uses [Real]. Tests use [Fake], which only moves when
// [Fake.Advance] is called, so timing behaviour can be asserted without
// sleeping.
package clock

import "time"

// Clock reports the current time and schedules callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f in its own goroutine (or, for [Fake], on the
	// goroutine that advances the clock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback has already fired or been stopped.
	Stop() bool
}

type realClock struct{}

// Real returns a [Clock] backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
