package mesboard

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const defaultSourceTimeout = 10 * time.Second

// Source is a JSON stats endpoint whose values feed dashboard elements.
//
// Source is immutable after creation via [NewSource]. Getters return copies
// of mutable data.
type Source struct {
	name     string
	url      string
	labels   map[string]string
	headers  map[string]string
	timeout  time.Duration
	method   string
	interval time.Duration
	fields   []Field
}

// Name returns the source's name. Names identify sources in logs, alerts
// and the snapshot API, and must be unique within a [Board].
func (s Source) Name() string {
	return s.name
}

// URL returns the URL that is polled.
func (s Source) URL() string {
	return s.url
}

// Labels returns a copy of the source's labels, or nil.
func (s Source) Labels() map[string]string {
	return copyMap(s.labels)
}

// Headers returns a copy of the custom request headers, or nil.
func (s Source) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the request timeout. Defaults to 10 seconds.
func (s Source) Timeout() time.Duration {
	return s.timeout
}

// Method returns the HTTP method, or "" for GET.
func (s Source) Method() string {
	return s.method
}

// Interval returns the per-source polling interval, or 0 when the board's
// global interval applies.
func (s Source) Interval() time.Duration {
	return s.interval
}

// Fields returns a copy of the source's fields.
func (s Source) Fields() []Field {
	if s.fields == nil {
		return nil
	}
	cp := make([]Field, len(s.fields))
	copy(cp, s.fields)
	return cp
}

// NewSource creates a [Source] polling rawURL, which must be http or https.
//
// Example:
//
//	src, err := mesboard.NewSource("production", "http://mes.local/api/production-stats",
//	    mesboard.WithFields(
//	        mesboard.Field{Element: "total-tasks", Path: "total"},
//	        mesboard.Field{Element: "completion-rate", Path: "completion_rate", Format: mesboard.FormatPercent},
//	    ),
//	    mesboard.WithInterval(10*time.Second),
//	)
func NewSource(name, rawURL string, opts ...SourceOption) (Source, error) {
	if name == "" {
		return Source{}, errors.New("source name cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Source{}, errors.New("URL must have an http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return Source{}, errors.New("URL must have a host")
	}

	cfg := &sourceConfig{
		labels:  make(map[string]string),
		headers: make(map[string]string),
		timeout: defaultSourceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Source{}, err
		}
	}

	seen := make(map[string]bool, len(cfg.fields))
	for _, f := range cfg.fields {
		if seen[f.Element] {
			return Source{}, fmt.Errorf("duplicate field element: %q", f.Element)
		}
		seen[f.Element] = true
	}

	return Source{
		name:     name,
		url:      rawURL,
		labels:   cfg.labels,
		headers:  cfg.headers,
		timeout:  cfg.timeout,
		method:   cfg.method,
		interval: cfg.interval,
		fields:   cfg.fields,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
