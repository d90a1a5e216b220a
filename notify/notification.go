// Package notify implements a FIFO queue of transient dashboard alerts.
//
// A [Queue] shows one [Notification] at a time through a [Display]. The
// display decides how long a notification stays visible (normally its
// Duration) and then signals completion, which advances the queue:
//
//	q := notify.NewQueue(notify.NewTimedDisplay(clock.Real(), renderer))
//	q.Enqueue("Line A stopped", notify.Danger, 0)
//
// Enqueue never preempts the notification currently on screen.
package notify

import "time"

// DefaultDuration is how long a notification stays visible when Enqueue is
// given a zero duration.
const DefaultDuration = 3 * time.Second

// Severity classifies a notification for styling.
//
// Severity is an open set: values other than the predefined constants are
// carried through unchanged for the renderer to interpret.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Danger  Severity = "danger"
)

// String returns the severity as a plain string.
func (s Severity) String() string {
	return string(s)
}

// Notification is a single transient message. It is a value type and is
// not modified after [Queue.Enqueue] creates it.
type Notification struct {
	// ID is unique within the queue and increases with every Enqueue.
	ID uint64 `json:"id"`

	// Message is caller supplied and may contain untrusted text.
	// Renderers are responsible for escaping it.
	Message string `json:"message"`

	Severity Severity `json:"severity"`

	// Duration is how long the notification stays visible. Negative
	// values are accepted and mean "dismiss immediately".
	Duration time.Duration `json:"duration"`

	CreatedAt time.Time `json:"created_at"`
}
