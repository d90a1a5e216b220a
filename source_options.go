package mesboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// sourceConfig holds mutable state during source construction.
type sourceConfig struct {
	labels   map[string]string
	headers  map[string]string
	timeout  time.Duration
	method   string
	interval time.Duration
	fields   []Field
}

// SourceOption configures a [Source] during [NewSource].
type SourceOption func(*sourceConfig) error

// WithLabels adds metadata labels as key-value pairs.
//
// Returns an error if an odd number of arguments is provided.
func WithLabels(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithLabels requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.labels[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithHeaders adds request headers as key-value pairs, for example an
// Authorization header for a protected MES API.
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the request timeout. A request that times out fails the
// refresh. Defaults to 10 seconds.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}

// WithMethod sets the HTTP method: GET (default), HEAD or POST.
func WithMethod(method string) SourceOption {
	return func(cfg *sourceConfig) error {
		switch method {
		case http.MethodGet, http.MethodHead, http.MethodPost:
			cfg.method = method
			return nil
		default:
			return errors.New("method must be GET, HEAD, or POST")
		}
	}
}

// WithInterval polls this source at d instead of the board's global
// interval. d must be between 1 second and 1 hour.
//
// The interval is measured from when a poll starts, so a slow source is
// effectively polled every d plus its latency.
func WithInterval(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d < time.Second {
			return errors.New("interval must be at least 1 second")
		}
		if d > time.Hour {
			return errors.New("interval must not exceed 1 hour")
		}
		cfg.interval = d
		return nil
	}
}

// WithField maps one JSON value to one dashboard element.
func WithField(element, path string, format Format) SourceOption {
	return WithFields(Field{Element: element, Path: path, Format: format})
}

// WithFields maps JSON values to dashboard elements. Every field needs an
// element ID and a path; a nil Format means [FormatPlain].
func WithFields(fields ...Field) SourceOption {
	return func(cfg *sourceConfig) error {
		for _, f := range fields {
			if f.Element == "" {
				return errors.New("field element cannot be empty")
			}
			if f.Path == "" {
				return fmt.Errorf("field %q: path cannot be empty", f.Element)
			}
			cfg.fields = append(cfg.fields, f)
		}
		return nil
	}
}
