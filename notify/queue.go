package notify

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/mesboard/clock"
)

// Display renders notifications on behalf of a [Queue].
//
// Show must make n visible and, once n has been on screen for n.Duration,
// remove it and call done. Calling done is what advances the queue; it is
// safe to call more than once and from any goroutine. Show must not block
// for the duration of the notification.
type Display interface {
	Show(n Notification, done func())
}

// DisplayFunc adapts an ordinary function to the [Display] interface.
type DisplayFunc func(n Notification, done func())

// Show calls f(n, done).
func (f DisplayFunc) Show(n Notification, done func()) {
	f(n, done)
}

// Queue holds pending notifications and hands them to a [Display] one at a
// time, in the order they were enqueued.
//
// At most one notification is active at any instant. The active
// notification changes only when the queue is idle and Enqueue is called,
// or when the display signals completion through [Queue.ProcessNext].
//
// A paused queue keeps accepting notifications but hands none to the
// display until [Queue.Resume].
//
// Queue is safe for concurrent use.
type Queue struct {
	display         Display
	clock           clock.Clock
	logger          *slog.Logger
	defaultDuration time.Duration

	mu      sync.Mutex
	pending []Notification
	active  *Notification
	nextID  uint64
	showSeq uint64
	paused  bool
}

// QueueOption configures a [Queue] during construction.
type QueueOption func(*Queue)

// WithClock sets the clock used to stamp CreatedAt. Defaults to [clock.Real].
func WithClock(c clock.Clock) QueueOption {
	return func(q *Queue) {
		if c != nil {
			q.clock = c
		}
	}
}

// WithLogger sets the logger used to report display panics.
func WithLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithDefaultDuration overrides [DefaultDuration] for notifications
// enqueued with a zero duration. Non-positive values are ignored.
func WithDefaultDuration(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.defaultDuration = d
		}
	}
}

// NewQueue creates an empty, idle [Queue] that shows notifications through
// display.
func NewQueue(display Display, opts ...QueueOption) *Queue {
	q := &Queue{
		display:         display,
		clock:           clock.Real(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		defaultDuration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a notification and starts showing it if the queue is
// idle. An empty severity becomes [Info]; a zero duration becomes the
// queue's default. Other values, including empty messages and negative
// durations, are accepted as given.
//
// Enqueue returns the notification that was queued.
func (q *Queue) Enqueue(message string, severity Severity, duration time.Duration) Notification {
	if severity == "" {
		severity = Info
	}
	if duration == 0 {
		duration = q.defaultDuration
	}

	q.mu.Lock()
	q.nextID++
	n := Notification{
		ID:        q.nextID,
		Message:   message,
		Severity:  severity,
		Duration:  duration,
		CreatedAt: q.clock.Now(),
	}
	q.pending = append(q.pending, n)

	var (
		next  Notification
		seq   uint64
		start bool
	)
	if q.active == nil {
		next, seq, start = q.advanceLocked()
	}
	q.mu.Unlock()

	if start {
		q.show(next, seq)
	}
	return n
}

// ProcessNext finishes the active notification and shows the next pending
// one. On an empty queue it only marks the queue idle.
//
// Displays normally reach ProcessNext through the done callback passed to
// [Display.Show] rather than calling it directly.
func (q *Queue) ProcessNext() {
	q.mu.Lock()
	next, seq, ok := q.advanceLocked()
	q.mu.Unlock()

	if ok {
		q.show(next, seq)
	}
}

// Pause stops the queue from showing further notifications. A notification
// already on screen finishes normally; the ones behind it wait.
func (q *Queue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume lets a paused queue show notifications again, starting with the
// oldest pending one if nothing is on screen.
func (q *Queue) Resume() {
	q.mu.Lock()
	if !q.paused {
		q.mu.Unlock()
		return
	}
	q.paused = false

	var (
		next  Notification
		seq   uint64
		start bool
	)
	if q.active == nil {
		next, seq, start = q.advanceLocked()
	}
	q.mu.Unlock()

	if start {
		q.show(next, seq)
	}
}

// Paused reports whether the queue is paused.
func (q *Queue) Paused() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// Pending returns the number of notifications waiting behind the active one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Active returns the notification currently being displayed.
func (q *Queue) Active() (Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.active == nil {
		return Notification{}, false
	}
	return *q.active, true
}

// advanceLocked pops the head of pending and makes it active.
// When pending is empty or the queue is paused, the queue becomes idle and
// ok is false.
func (q *Queue) advanceLocked() (n Notification, seq uint64, ok bool) {
	q.showSeq++
	if q.paused || len(q.pending) == 0 {
		q.active = nil
		return Notification{}, 0, false
	}

	n = q.pending[0]
	q.pending[0] = Notification{}
	q.pending = q.pending[1:]
	q.active = &n
	return n, q.showSeq, true
}

// complete advances the queue if seq still identifies the active display.
func (q *Queue) complete(seq uint64) {
	q.mu.Lock()
	if q.showSeq != seq {
		q.mu.Unlock()
		return
	}
	next, nextSeq, ok := q.advanceLocked()
	q.mu.Unlock()

	if ok {
		q.show(next, nextSeq)
	}
}

// show hands n to the display. A panicking display is logged and treated
// as having completed, so one bad render cannot stall the queue.
func (q *Queue) show(n Notification, seq uint64) {
	var once sync.Once
	done := func() {
		once.Do(func() { q.complete(seq) })
	}

	panicked := true
	func() {
		defer func() {
			if r := recover(); r != nil {
				q.logger.Error("notification display panicked",
					"correlation_id", uuid.NewString(),
					"notification_id", n.ID,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		q.display.Show(n, done)
		panicked = false
	}()

	if panicked {
		done()
	}
}
