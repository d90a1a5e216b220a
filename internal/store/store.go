package store

import (
	"time"

	"github.com/jpalmerr/mesboard/notify"
)

// Event types published by the store.
const (
	// EventSnapshot carries a [Snapshot] after a source was refreshed.
	EventSnapshot = "snapshot"

	// EventNotify carries a [notify.Notification] that should be shown.
	EventNotify = "notify"

	// EventDismiss carries the [notify.Notification] that should be removed.
	EventDismiss = "dismiss"

	// EventRefreshed carries a [Refresh] summary after a burst of updates.
	EventRefreshed = "refreshed"
)

// Snapshot is the latest state of one stats source, shaped for the
// dashboard: Values maps element IDs to the text they should display.
type Snapshot struct {
	// Source is the stats source's name.
	Source string `json:"source"`

	// URL is the polled URL.
	URL string `json:"url"`

	// Status is "fresh", "partial" or "failed".
	Status string `json:"status"`

	// Values maps dashboard element IDs to formatted text.
	Values map[string]string `json:"values"`

	// Labels contains key-value metadata for grouping.
	Labels map[string]string `json:"labels"`

	// ResponseTimeMs is the request latency in milliseconds.
	ResponseTimeMs int64 `json:"response_time_ms"`

	// CheckedAt is the time of the poll.
	CheckedAt time.Time `json:"checked_at"`

	// Error is the failure message, nil when the refresh succeeded.
	Error *string `json:"error"`
}

// Refresh summarises a burst of snapshot updates.
type Refresh struct {
	// At is the time of the last update in the burst.
	At time.Time `json:"at"`

	// Sources is the number of sources currently known to the store.
	Sources int `json:"sources"`
}

// Event is a message delivered to subscribers. Type selects the SSE event
// name and Data is JSON encoded as the event payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Store defines storage and subscription operations for dashboard state.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update stores a snapshot, keyed by Source, and publishes an
	// EventSnapshot.
	Update(s Snapshot)

	// GetAll returns all current snapshots ordered by source name.
	GetAll() []Snapshot

	// Publish sends an event to all subscribers without storing it.
	Publish(ev Event)

	// ShowNotification records n as the notification on screen and
	// publishes an EventNotify.
	ShowNotification(n notify.Notification)

	// DismissNotification clears n if it is on screen and publishes an
	// EventDismiss.
	DismissNotification(n notify.Notification)

	// ActiveNotification returns the notification on screen, if any.
	ActiveNotification() (notify.Notification, bool)

	// Subscribe returns a channel that receives events. Slow consumers
	// may miss events. Caller must call Unsubscribe when done.
	Subscribe() <-chan Event

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Event)
}
