package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Refresh statuses.
const (
	StatusFresh   = "fresh"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// minTick bounds how often the scheduler wakes up.
const minTick = time.Second

// RefreshResult holds the outcome of polling a single source.
type RefreshResult struct {
	// SourceName is the name of the polled source.
	SourceName string

	// URL is the URL that was polled.
	URL string

	// Status is StatusFresh, StatusPartial or StatusFailed.
	Status string

	// Values maps dashboard element IDs to formatted text.
	Values map[string]string

	// Labels contains the key-value metadata associated with the source.
	Labels map[string]string

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the timestamp when the poll was performed.
	CheckedAt time.Time

	// Error describes why the refresh failed or was partial.
	Error error

	// RawResponse contains the response body for debugging.
	RawResponse []byte

	// StatusCode is the HTTP status code returned by the source.
	StatusCode int
}

// Extractor turns a response body into dashboard values and a status.
// A nil error with StatusPartial may still carry a descriptive error.
type Extractor func(body []byte) (values map[string]string, status string, err error)

// SourceInfo contains what the scheduler needs to poll one source.
type SourceInfo struct {
	Name    string
	URL     string
	Labels  map[string]string
	Headers map[string]string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Extractor builds the values; nil means a 2xx response is fresh with
	// no values.
	Extractor Extractor

	// Method is GET, HEAD or POST. Empty defaults to GET.
	Method string

	// Interval overrides the scheduler's global interval when non-zero.
	Interval time.Duration
}

// Scheduler polls sources at their intervals on a worker pool and emits
// results on a channel.
//
// All sources are polled once on start. After that the scheduler ticks at
// the GCD of all source intervals and polls only the sources that are due.
//
// Start and Stop are safe for concurrent use.
type Scheduler struct {
	sources        []SourceInfo
	interval       time.Duration
	maxConcurrency int
	client         *Client
	results        chan RefreshResult
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	lastPolledAt map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a [Scheduler] for sources with a global interval and
// a cap on concurrent requests. It does nothing until [Scheduler.Start].
func NewScheduler(sources []SourceInfo, interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Scheduler{
		sources:        sources,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		client:         NewClient(),
		results:        make(chan RefreshResult, len(sources)),
		logger:         logger,
	}
}

// Results returns the channel of poll results. It is closed when the
// scheduler stops.
func (s *Scheduler) Results() <-chan RefreshResult {
	return s.results
}

// calculateBaseInterval returns the GCD of all effective source intervals,
// floored at one second.
func (s *Scheduler) calculateBaseInterval() time.Duration {
	if len(s.sources) == 0 {
		return s.interval
	}

	result := s.intervalFor(s.sources[0])
	for _, src := range s.sources[1:] {
		result = gcdDuration(result, s.intervalFor(src))
	}

	if result < minTick {
		result = minTick
	}
	return result
}

func (s *Scheduler) intervalFor(src SourceInfo) time.Duration {
	if src.Interval > 0 {
		return src.Interval
	}
	return s.interval
}

func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the polling loop in a background goroutine and returns.
//
// A nil ctx means context.Background(). Start is idempotent, and a no-op
// after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastPolledAt = make(map[string]time.Time, len(s.sources))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.pollDue(pollCtx, true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				s.pollDue(pollCtx, false)
			}
		}
	}()
}

// Stop cancels polling, waits for in-flight requests and closes the
// results channel. Stop is idempotent and safe before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.client.Close()
	s.closeOnce.Do(func() { close(s.results) })
}

// pollDue polls the sources whose interval has elapsed, or all of them
// when immediate is set.
//
// lastPolledAt is stamped when a poll starts, so a slow source's effective
// interval is its configured interval plus its latency.
func (s *Scheduler) pollDue(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]SourceInfo, 0, len(s.sources))

	s.mu.Lock()
	for _, src := range s.sources {
		last, seen := s.lastPolledAt[src.Name]
		if immediate || !seen || now.Sub(last) >= s.intervalFor(src) {
			due = append(due, src)
			s.lastPolledAt[src.Name] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}
	s.pollSources(ctx, due)
}

// pollSources polls sources concurrently, at most maxConcurrency at once.
func (s *Scheduler) pollSources(ctx context.Context, sources []SourceInfo) {
	jobs := make(chan SourceInfo, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < s.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				result := s.pollSource(ctx, src)
				select {
				case s.results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, src := range sources {
		select {
		case jobs <- src:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)

	wg.Wait()
}

// pollSource fetches one source and builds its result.
func (s *Scheduler) pollSource(ctx context.Context, src SourceInfo) RefreshResult {
	resp := s.client.Fetch(ctx, src)

	result := RefreshResult{
		SourceName:  src.Name,
		URL:         src.URL,
		Labels:      src.Labels,
		Latency:     resp.Latency,
		CheckedAt:   time.Now(),
		RawResponse: resp.Body,
		StatusCode:  resp.StatusCode,
		Error:       resp.Error,
	}

	switch {
	case resp.Error != nil:
		result.Status = StatusFailed
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		result.Status = StatusFailed
		result.Error = fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	case src.Extractor == nil:
		result.Status = StatusFresh
	default:
		result.Values, result.Status, result.Error = s.safeExtract(src.Extractor, resp.Body)
	}

	return result
}

// safeExtract runs the extractor with panic recovery. A panic is logged
// with a correlation ID and reported as a failed refresh carrying that ID.
func (s *Scheduler) safeExtract(extract Extractor, body []byte) (values map[string]string, status string, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			s.logger.Error("extractor panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			values = nil
			status = StatusFailed
			err = fmt.Errorf("extractor panic (correlation_id: %s)", correlationID)
		}
	}()
	return extract(body)
}
