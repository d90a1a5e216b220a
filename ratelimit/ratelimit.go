// Package ratelimit provides two call-shaping wrappers for bursty signals.
//
//   - [Debouncer]: coalesces a burst of calls into one trailing call that
//     carries the last argument.
//   - [Throttler]: runs the first call of a window immediately and drops
//     every other call until the window has passed.
//
// Both take a [clock.Clock] so tests can drive them with virtual time.
package ratelimit

import (
	"sync"
	"time"

	"github.com/jpalmerr/mesboard/clock"
	"golang.org/x/time/rate"
)

// Debouncer delays an action until calls have stopped arriving for a wait
// period. It is safe for concurrent use.
type Debouncer[T any] struct {
	clock  clock.Clock
	wait   time.Duration
	action func(T)

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

// Debounce returns a [Debouncer] that runs action wait after the most
// recent call to [Debouncer.Call], with that call's argument.
//
// The action runs on the clock's callback goroutine.
func Debounce[T any](c clock.Clock, wait time.Duration, action func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		clock:  c,
		wait:   wait,
		action: action,
	}
}

// Call replaces any scheduled action with one carrying arg, due wait from now.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen, arg) })
}

// Cancel drops the scheduled action, if any. It reports whether an action
// was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether an action is scheduled and has not yet run.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// fire runs the action unless a later Call or Cancel superseded gen.
// A real timer can fire while Stop is racing with it, so gen is the
// authority rather than Stop's return value.
func (d *Debouncer[T]) fire(gen uint64, arg T) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.action(arg)
}

// Throttler runs at most one action per window, on the leading edge.
// Calls inside a window are dropped together with their arguments.
// It is safe for concurrent use.
type Throttler[T any] struct {
	clock   clock.Clock
	limiter *rate.Limiter
	action  func(T)
}

// Throttle returns a [Throttler] that lets one call through per window.
// A non-positive window disables throttling.
func Throttle[T any](c clock.Clock, window time.Duration, action func(T)) *Throttler[T] {
	limit := rate.Inf
	if window > 0 {
		limit = rate.Every(window)
	}
	return &Throttler[T]{
		clock:   c,
		limiter: rate.NewLimiter(limit, 1),
		action:  action,
	}
}

// Call runs the action synchronously if the window is cold and reports
// whether it ran.
func (t *Throttler[T]) Call(arg T) bool {
	if !t.limiter.AllowN(t.clock.Now(), 1) {
		return false
	}
	t.action(arg)
	return true
}
