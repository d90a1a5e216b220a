package store

import (
	"sort"
	"sync"
	"time"

	"github.com/jpalmerr/mesboard/notify"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// notificationSendTimeout bounds how long one Publish waits for full
// subscriber buffers to make room for a notify or dismiss event.
var notificationSendTimeout = time.Second

// MemoryStore is an in-memory implementation of [Store].
//
// Snapshots are keyed by source name, with new snapshots replacing previous
// values. Snapshot and refreshed events are sent non-blocking; if a
// subscriber's buffer is full the event is dropped for that subscriber, and
// the next poll supersedes it. Notify and dismiss events wait for room, up
// to notificationSendTimeout per Publish, since a lost dismiss leaves a
// banner on screen.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
	active    *notify.Notification

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]Snapshot),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Update stores s and notifies subscribers.
func (m *MemoryStore) Update(s Snapshot) {
	m.mu.Lock()
	m.snapshots[s.Source] = s
	m.mu.Unlock()

	m.Publish(Event{Type: EventSnapshot, Data: s})
}

// GetAll returns a copy of all snapshots, ordered by source name.
func (m *MemoryStore) GetAll() []Snapshot {
	m.mu.RLock()
	results := make([]Snapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		results = append(results, s)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})
	return results
}

// ShowNotification records n as on screen and publishes it.
func (m *MemoryStore) ShowNotification(n notify.Notification) {
	m.mu.Lock()
	m.active = &n
	m.mu.Unlock()

	m.Publish(Event{Type: EventNotify, Data: n})
}

// DismissNotification clears n and publishes the dismissal. The dismissal
// is published even if another notification has replaced n, so clients can
// drop a stale banner.
func (m *MemoryStore) DismissNotification(n notify.Notification) {
	m.mu.Lock()
	if m.active != nil && m.active.ID == n.ID {
		m.active = nil
	}
	m.mu.Unlock()

	m.Publish(Event{Type: EventDismiss, Data: n})
}

// ActiveNotification returns the notification on screen, if any.
func (m *MemoryStore) ActiveNotification() (notify.Notification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return notify.Notification{}, false
	}
	return *m.active, true
}

// Subscribe creates a subscription with a buffer of 100 events.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// Publish sends ev to every subscriber. Only notify and dismiss events wait
// for a full buffer; the wait is shared by all subscribers of one call.
func (m *MemoryStore) Publish(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	var deadline <-chan time.Time
	if ev.Type == EventNotify || ev.Type == EventDismiss {
		timer := time.NewTimer(notificationSendTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	expired := false
	for ch := range m.subscribers {
		select {
		case ch <- ev:
			continue
		default:
		}
		if deadline == nil || expired {
			// subscriber is slow, drop the event
			continue
		}
		select {
		case ch <- ev:
		case <-deadline:
			expired = true
		}
	}
}
