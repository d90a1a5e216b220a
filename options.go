package mesboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/mesboard/clock"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title                string
	sources              []Source
	pollingInterval      time.Duration
	port                 int
	maxConcurrency       int
	logger               *slog.Logger
	refreshCallbacks     []func(RefreshResult)
	clock                clock.Clock
	notificationDuration time.Duration
	alertWindow          time.Duration
	refreshDebounce      time.Duration
}

// Option configures a [Board] during [New]. Options return an error if
// validation fails.
type Option func(*boardConfig) error

// WithSource adds a single [Source]. At least one source is required.
func WithSource(s Source) Option {
	return func(cfg *boardConfig) error {
		cfg.sources = append(cfg.sources, s)
		return nil
	}
}

// WithSources adds several sources at once.
func WithSources(sources ...Source) Option {
	return func(cfg *boardConfig) error {
		cfg.sources = append(cfg.sources, sources...)
		return nil
	}
}

// WithPollingInterval sets how often sources without their own interval
// are polled. Defaults to 30 seconds.
//
// Returns an error if the duration is zero or negative.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("polling interval must be positive")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxConcurrency caps how many sources are fetched at once.
// Defaults to 10.
func WithMaxConcurrency(n int) Option {
	return func(cfg *boardConfig) error {
		if n <= 0 {
			return errors.New("max concurrency must be positive")
		}
		cfg.maxConcurrency = n
		return nil
	}
}

// WithLogger sets the logger. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithRefreshCallback registers a function called after every poll, once
// the result is in the store.
//
// Callbacks run synchronously in registration order on the goroutine that
// consumes poll results, so they must not block. Panics are recovered and
// logged. Nil callbacks are ignored.
//
// Example:
//
//	mesboard.WithRefreshCallback(func(r mesboard.RefreshResult) {
//	    if r.Status == mesboard.StatusFailed {
//	        metrics.Inc("mes_refresh_failures", r.SourceName)
//	    }
//	})
func WithRefreshCallback(cb func(RefreshResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.refreshCallbacks = append(cfg.refreshCallbacks, cb)
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "MESBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithClock sets the clock that times notifications, alert throttling and
// the refresh debounce. Defaults to [clock.Real].
func WithClock(c clock.Clock) Option {
	return func(cfg *boardConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

// WithNotificationDuration sets how long a notification enqueued without
// an explicit duration stays on screen. Defaults to 3 seconds.
func WithNotificationDuration(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("notification duration must be positive")
		}
		cfg.notificationDuration = d
		return nil
	}
}

// WithAlertWindow sets the minimum gap between two failure alerts for the
// same source. Failures inside the window are logged but not shown.
// Zero disables throttling. Defaults to 1 minute.
func WithAlertWindow(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d < 0 {
			return errors.New("alert window cannot be negative")
		}
		cfg.alertWindow = d
		return nil
	}
}

// WithRefreshDebounce sets the quiet period after the last poll result
// before a "refreshed" event is published. Defaults to 250ms.
func WithRefreshDebounce(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("refresh debounce must be positive")
		}
		cfg.refreshDebounce = d
		return nil
	}
}
