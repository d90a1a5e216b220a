package mesboard

import "time"

// Status describes how complete the last refresh of a [Source] was.
type Status string

const (
	// StatusFresh means every field of the source was found and formatted.
	StatusFresh Status = "fresh"

	// StatusPartial means the document was read but some fields were missing.
	// The missing elements keep their previous text on the dashboard.
	StatusPartial Status = "partial"

	// StatusFailed means no values could be read: the request failed, the
	// source answered with an error status, the body was not JSON, or the
	// extractor panicked.
	StatusFailed Status = "failed"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// RefreshResult holds the outcome of polling a single [Source].
//
// RefreshResult is handed to refresh callbacks by value; its maps and
// RawResponse are copies owned by the callee.
type RefreshResult struct {
	// SourceName is the name of the polled source.
	SourceName string

	// URL is the URL that was polled.
	URL string

	// Status is the refresh outcome.
	Status Status

	// Values maps dashboard element IDs to the formatted text they show.
	Values map[string]string

	// Labels contains the key-value metadata associated with the source.
	Labels map[string]string

	// Latency is the time taken to complete the HTTP request.
	Latency time.Duration

	// CheckedAt is the timestamp when the poll was performed.
	CheckedAt time.Time

	// Error describes a failed or partial refresh. nil when fresh.
	Error error

	// RawResponse contains the HTTP response body, limited to 1MB.
	RawResponse []byte

	// StatusCode is the HTTP status code returned by the source.
	// Zero if the request failed before receiving a response.
	StatusCode int
}
