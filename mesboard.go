package mesboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jpalmerr/mesboard/clock"
	"github.com/jpalmerr/mesboard/dashboard"
	"github.com/jpalmerr/mesboard/internal/poller"
	"github.com/jpalmerr/mesboard/internal/server"
	"github.com/jpalmerr/mesboard/internal/store"
	"github.com/jpalmerr/mesboard/notify"
	"github.com/jpalmerr/mesboard/ratelimit"
)

const (
	defaultPollingInterval      = 30 * time.Second
	defaultPort                 = 8080
	defaultMaxConcurrency       = 10
	defaultNotificationDuration = notify.DefaultDuration
	defaultAlertWindow          = time.Minute
	defaultRefreshDebounce      = 250 * time.Millisecond
)

// ErrAlreadyStarted is returned by [Board.Start] when called a second time.
var ErrAlreadyStarted = errors.New("board already started")

// Board polls MES stats sources and serves a live dashboard.
//
// Board is created with [New] and run with [Board.Start]:
//
//	board, err := mesboard.New(mesboard.WithSource(src))
//	if err != nil {
//	    slog.Error("failed to create board", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until ctx is cancelled
//
// Notifications are shown one at a time, in order, for their duration.
// [Board.Notify] may be called at any time; notifications queued while
// the board is not serving wait and are shown once Start has bound its port.
type Board struct {
	title            string
	sources          []Source
	pollingInterval  time.Duration
	port             int
	maxConcurrency   int
	logger           *slog.Logger
	refreshCallbacks []func(RefreshResult)
	clock            clock.Clock
	alertWindow      time.Duration
	refreshDebounce  time.Duration

	store   *store.MemoryStore
	queue   *notify.Queue
	started atomic.Bool
}

// New creates a [Board] with the given options.
//
// At least one source is required and source names must be unique.
// Defaults: polling every 30s, port 8080, 10 concurrent requests,
// notifications shown for 3s, one failure alert per source per minute, and
// a 250ms quiet period before a "refreshed" event.
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		sources:              []Source{},
		pollingInterval:      defaultPollingInterval,
		port:                 defaultPort,
		maxConcurrency:       defaultMaxConcurrency,
		notificationDuration: defaultNotificationDuration,
		alertWindow:          defaultAlertWindow,
		refreshDebounce:      defaultRefreshDebounce,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.sources) == 0 {
		return nil, errors.New("at least one source is required")
	}

	// names key the poller's interval tracking and the alert throttles
	seen := make(map[string]bool, len(cfg.sources))
	for _, src := range cfg.sources {
		if seen[src.name] {
			return nil, fmt.Errorf("duplicate source name: %q", src.name)
		}
		seen[src.name] = true
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.Real()
	}

	st := store.NewMemoryStore()
	queue := notify.NewQueue(
		notify.NewTimedDisplay(clk, storeRenderer{store: st}),
		notify.WithClock(clk),
		notify.WithLogger(logger),
		notify.WithDefaultDuration(cfg.notificationDuration),
	)
	// nothing is shown until Start has a server for the dashboard to reach
	queue.Pause()

	return &Board{
		title:            cfg.title,
		sources:          cfg.sources,
		pollingInterval:  cfg.pollingInterval,
		port:             cfg.port,
		maxConcurrency:   cfg.maxConcurrency,
		logger:           logger,
		refreshCallbacks: cfg.refreshCallbacks,
		clock:            clk,
		alertWindow:      cfg.alertWindow,
		refreshDebounce:  cfg.refreshDebounce,
		store:            st,
		queue:            queue,
	}, nil
}

// Start polls the sources and serves the dashboard until ctx is cancelled.
//
// Every source is polled immediately, then on its interval. Each result
// updates the store, runs the refresh callbacks and is logged. A failed
// refresh raises a danger notification, at most once per alert window per
// source, and the first good refresh after a failure raises a success
// notification. A burst of results is summarised by one "refreshed" event.
//
// Returns nil on graceful shutdown, [ErrAlreadyStarted] on a second call,
// or an error if the HTTP server cannot bind its port.
func (b *Board) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	b.logger.Info("mesboard starting", "source_count", len(b.sources))
	b.logger.Info("polling configured", "interval", b.pollingInterval.String())
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	if ctx.Err() != nil {
		return nil
	}

	alerts := newAlerter(b.queue, b.clock, b.alertWindow, b.logger)
	refreshed := ratelimit.Debounce(b.clock, b.refreshDebounce, func(at time.Time) {
		b.store.Publish(store.Event{
			Type: store.EventRefreshed,
			Data: store.Refresh{At: at, Sources: len(b.store.GetAll())},
		})
	})

	scheduler := poller.NewScheduler(b.toPollerSources(), b.pollingInterval, b.maxConcurrency, b.logger)
	scheduler.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range scheduler.Results() {
			// store first so callbacks observe persisted state
			b.store.Update(pollerResultToSnapshot(result))

			if len(b.refreshCallbacks) > 0 {
				public := pollerResultToPublicResult(result)
				for _, cb := range b.refreshCallbacks {
					invokeCallbackSafe(cb, public, b.logger)
				}
			}

			alerts.observe(result)
			refreshed.Call(result.CheckedAt)

			logAttrs := []any{
				"status", result.Status,
				"source", result.SourceName,
				"url", result.URL,
				"values", len(result.Values),
				"latency_ms", result.Latency.Milliseconds(),
			}
			if result.Error != nil {
				b.logger.Warn("refresh completed with error", append(logAttrs, "error", result.Error.Error())...)
			} else {
				b.logger.Debug("refresh completed", logAttrs...)
			}
		}
	}()

	cleanup := func() {
		b.queue.Pause()
		scheduler.Stop()
		wg.Wait()
		refreshed.Cancel()
	}

	httpServer := server.NewServer(b.store, b, b.port, dashboard.Assets, b.title, b.logger)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	b.queue.Resume()

	<-ctx.Done()
	cleanup()
	b.logger.Info("mesboard stopped")
	return nil
}

// Notify queues a notification for the dashboard. An empty severity means
// info and a zero duration means the board's notification duration.
// Notifications never interrupt one another; each waits its turn, and
// none is shown while the board is not serving.
func (b *Board) Notify(message string, severity notify.Severity, duration time.Duration) notify.Notification {
	return b.queue.Enqueue(message, severity, duration)
}

// PendingNotifications returns how many notifications wait behind the one
// on screen.
func (b *Board) PendingNotifications() int {
	return b.queue.Pending()
}

// Sources returns a copy of the configured sources.
func (b *Board) Sources() []Source {
	cp := make([]Source, len(b.sources))
	copy(cp, b.sources)
	return cp
}

// Port returns the configured HTTP port.
func (b *Board) Port() int {
	return b.port
}

// PollingInterval returns the global polling interval.
func (b *Board) PollingInterval() time.Duration {
	return b.pollingInterval
}

func (b *Board) toPollerSources() []poller.SourceInfo {
	result := make([]poller.SourceInfo, len(b.sources))
	for i, src := range b.sources {
		result[i] = poller.SourceInfo{
			Name:      src.name,
			URL:       src.url,
			Labels:    copyMap(src.labels),
			Headers:   copyMap(src.headers),
			Timeout:   src.timeout,
			Extractor: buildExtractor(src.fields),
			Method:    src.method,
			Interval:  src.interval,
		}
	}
	return result
}

func pollerResultToSnapshot(pr poller.RefreshResult) store.Snapshot {
	var errStr *string
	if pr.Error != nil {
		s := pr.Error.Error()
		errStr = &s
	}

	return store.Snapshot{
		Source:         pr.SourceName,
		URL:            pr.URL,
		Status:         pr.Status,
		Values:         copyMap(pr.Values),
		Labels:         pr.Labels,
		ResponseTimeMs: pr.Latency.Milliseconds(),
		CheckedAt:      pr.CheckedAt,
		Error:          errStr,
	}
}

// pollerResultToPublicResult copies mutable fields so callbacks cannot race
// with the store.
func pollerResultToPublicResult(pr poller.RefreshResult) RefreshResult {
	return RefreshResult{
		SourceName:  pr.SourceName,
		URL:         pr.URL,
		Status:      Status(pr.Status),
		Values:      copyMap(pr.Values),
		Labels:      copyMap(pr.Labels),
		Latency:     pr.Latency,
		CheckedAt:   pr.CheckedAt,
		Error:       pr.Error,
		RawResponse: copyBytes(pr.RawResponse),
		StatusCode:  pr.StatusCode,
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// invokeCallbackSafe calls cb, logging a panic with a correlation ID
// instead of letting it stop the result loop.
func invokeCallbackSafe(cb func(RefreshResult), result RefreshResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("refresh callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"source", result.SourceName,
			)
		}
	}()
	cb(result)
}
