package notify

import "github.com/jpalmerr/mesboard/clock"

// Renderer puts a notification on screen and takes it down again.
type Renderer interface {
	Render(n Notification)
	Remove(n Notification)
}

// TimedDisplay is a [Display] that keeps each notification rendered for
// its Duration, measured on the given clock, then removes it and signals
// completion.
type TimedDisplay struct {
	clock    clock.Clock
	renderer Renderer
}

// NewTimedDisplay creates a [TimedDisplay] that draws through r.
func NewTimedDisplay(c clock.Clock, r Renderer) *TimedDisplay {
	return &TimedDisplay{clock: c, renderer: r}
}

// Show renders n and schedules its removal.
func (d *TimedDisplay) Show(n Notification, done func()) {
	d.renderer.Render(n)
	d.clock.AfterFunc(n.Duration, func() {
		d.renderer.Remove(n)
		done()
	})
}
