package mesboard

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/mesboard/clock"
	"github.com/jpalmerr/mesboard/internal/poller"
	"github.com/jpalmerr/mesboard/internal/store"
	"github.com/jpalmerr/mesboard/notify"
	"github.com/jpalmerr/mesboard/ratelimit"
)

// storeRenderer shows notifications by publishing them to the store, from
// where the SSE handler forwards them to every open dashboard.
type storeRenderer struct {
	store store.Store
}

func (r storeRenderer) Render(n notify.Notification) {
	r.store.ShowNotification(n)
}

func (r storeRenderer) Remove(n notify.Notification) {
	r.store.DismissNotification(n)
}

// alerter turns refresh outcomes into notifications: a throttled danger
// alert per failing source and a success notice when it recovers.
type alerter struct {
	queue  *notify.Queue
	clock  clock.Clock
	window time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	throttles map[string]*ratelimit.Throttler[string]
	failing   map[string]bool
}

func newAlerter(q *notify.Queue, c clock.Clock, window time.Duration, logger *slog.Logger) *alerter {
	return &alerter{
		queue:     q,
		clock:     c,
		window:    window,
		logger:    logger,
		throttles: make(map[string]*ratelimit.Throttler[string]),
		failing:   make(map[string]bool),
	}
}

// observe records one refresh outcome.
func (a *alerter) observe(r poller.RefreshResult) {
	if r.Status != poller.StatusFailed {
		a.mu.Lock()
		wasFailing := a.failing[r.SourceName]
		delete(a.failing, r.SourceName)
		a.mu.Unlock()

		if wasFailing {
			a.queue.Enqueue(fmt.Sprintf("%s is reporting again", r.SourceName), notify.Success, 0)
		}
		return
	}

	a.mu.Lock()
	a.failing[r.SourceName] = true
	t, ok := a.throttles[r.SourceName]
	if !ok {
		t = ratelimit.Throttle(a.clock, a.window, func(msg string) {
			a.queue.Enqueue(msg, notify.Danger, 0)
		})
		a.throttles[r.SourceName] = t
	}
	a.mu.Unlock()

	msg := fmt.Sprintf("%s refresh failed", r.SourceName)
	if r.Error != nil {
		msg = fmt.Sprintf("%s refresh failed: %v", r.SourceName, r.Error)
	}
	if !t.Call(msg) {
		a.logger.Debug("failure alert throttled", "source", r.SourceName)
	}
}
