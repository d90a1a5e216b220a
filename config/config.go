// Package config provides YAML configuration parsing for MESBoard.
//
// It lets the dashboard run as a standalone binary with a configuration
// file instead of being assembled in Go code.
//
// Example configuration:
//
//	title: Line 3 Overview
//	port: 8080
//	poll_interval: 30s
//	alert_window: 1m
//
//	sources:
//	  - name: production
//	    url: ${MES_URL:-http://localhost:5000}/api/production-stats
//	    fields:
//	      - element: completion-rate
//	        path: completion_rate
//	        format: percent
//	      - in-progress: in_progress
//	      - total-tasks: total|number
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jpalmerr/mesboard"
	"gopkg.in/yaml.v3"
)

// minPollInterval keeps a misconfigured board from hammering the backend.
const minPollInterval = 1 * time.Second

const (
	defaultPort         = 8080
	defaultPollInterval = 30 * time.Second
)

// Config is the root configuration structure for MESBoard.
//
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "MESBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between refresh cycles. Defaults to 30s.
	PollInterval Duration `yaml:"poll_interval"`

	// NotificationDuration is how long each notification stays on screen.
	// Zero keeps the board default.
	NotificationDuration Duration `yaml:"notification_duration"`

	// AlertWindow is the minimum gap between failure alerts for one source.
	// Unset keeps the board default; 0s alerts on every failure.
	AlertWindow *Duration `yaml:"alert_window"`

	// RefreshDebounce is the quiet period before a "refreshed" event is
	// published. Zero keeps the board default.
	RefreshDebounce Duration `yaml:"refresh_debounce"`

	// Sources are the JSON endpoints the dashboard polls.
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines one polled JSON endpoint.
type SourceConfig struct {
	// Name identifies the source in logs, alerts and the snapshot API.
	Name string `yaml:"name"`

	// URL of the endpoint. Supports ${VAR} and ${VAR:-default}.
	URL string `yaml:"url"`

	// Method is the HTTP method (GET, HEAD, POST). Defaults to GET.
	Method string `yaml:"method"`

	// Timeout is the request timeout. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Headers are sent with each request. Values support env substitution.
	Headers map[string]string `yaml:"headers"`

	// Labels are metadata key-value pairs.
	Labels map[string]string `yaml:"labels"`

	// Interval overrides poll_interval for this source. Must be 1s..1h.
	Interval Duration `yaml:"interval"`

	// Fields map JSON values onto dashboard elements.
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig maps one JSON value onto one dashboard element.
//
// It supports two formats in YAML:
//
// Shorthand, a single "element: path" pair with an optional "|format":
//
//	- completion-rate: completion_rate|percent
//
// Structured object:
//
//	- element: completion-rate
//	  path: completion_rate
//	  format: percent
type FieldConfig struct {
	Element string
	Path    string
	Format  string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for FieldConfig.
func (f *FieldConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("field must be an object, got %v", node.Kind)
	}

	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	_, hasElement := raw["element"]
	_, hasPath := raw["path"]
	if hasElement || hasPath {
		for k := range raw {
			if k != "element" && k != "path" && k != "format" {
				return fmt.Errorf("unknown field key %q", k)
			}
		}
		f.Element = raw["element"]
		f.Path = raw["path"]
		f.Format = raw["format"]
		return nil
	}

	if len(raw) != 1 {
		return fmt.Errorf("field shorthand must be a single 'element: path' pair, got %d keys", len(raw))
	}
	for element, value := range raw {
		f.Element = element
		f.Path, f.Format, _ = strings.Cut(value, "|")
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
// Group 1: variable name
// Group 2: the ":-default" part, present when a default was given
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL and header values. Defaults
// are applied for Port (8080) and PollInterval (30s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FieldCount returns the number of mapped elements across all sources.
func (c *Config) FieldCount() int {
	n := 0
	for _, s := range c.Sources {
		n += len(s.Fields)
	}
	return n
}

func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.NotificationDuration < 0 {
		return fmt.Errorf("notification_duration cannot be negative, got %s", c.NotificationDuration.Duration())
	}
	if c.AlertWindow != nil && *c.AlertWindow < 0 {
		return fmt.Errorf("alert_window cannot be negative, got %s", c.AlertWindow.Duration())
	}
	if c.RefreshDebounce < 0 {
		return fmt.Errorf("refresh_debounce cannot be negative, got %s", c.RefreshDebounce.Duration())
	}

	if len(c.Sources) == 0 {
		return errors.New("at least one source must be defined")
	}

	names := make(map[string]struct{}, len(c.Sources))
	elements := make(map[string]string)
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := src.expandAndValidate(i); err != nil {
			return err
		}

		if _, dup := names[src.Name]; dup {
			return fmt.Errorf("sources[%d] (%s): duplicate source name", i, src.Name)
		}
		names[src.Name] = struct{}{}

		for _, f := range src.Fields {
			if owner, dup := elements[f.Element]; dup {
				if owner == src.Name {
					return fmt.Errorf("sources[%d] (%s): duplicate field element %q", i, src.Name, f.Element)
				}
				return fmt.Errorf("sources[%d] (%s): element %q is already fed by source %q", i, src.Name, f.Element, owner)
			}
			elements[f.Element] = src.Name
		}
	}

	return nil
}

func (s *SourceConfig) expandAndValidate(i int) error {
	if s.Name == "" {
		return fmt.Errorf("sources[%d]: name is required", i)
	}

	if s.URL == "" {
		return fmt.Errorf("sources[%d] (%s): url is required", i, s.Name)
	}
	expanded, err := expandEnvVars(s.URL)
	if err != nil {
		return fmt.Errorf("sources[%d] (%s): url: %w", i, s.Name, err)
	}
	s.URL = expanded

	parsedURL, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("sources[%d] (%s): invalid url: %w", i, s.Name, err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("sources[%d] (%s): url must have a scheme (http:// or https://)", i, s.Name)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("sources[%d] (%s): url scheme must be http or https, got %q", i, s.Name, parsedURL.Scheme)
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("sources[%d] (%s): headers[%s]: %w", i, s.Name, k, err)
		}
		s.Headers[k] = expanded
	}

	if s.Method != "" && s.Method != "GET" && s.Method != "HEAD" && s.Method != "POST" {
		return fmt.Errorf("sources[%d] (%s): method must be GET, HEAD, or POST", i, s.Name)
	}

	if s.Timeout != 0 && s.Timeout.Duration() < time.Second {
		return fmt.Errorf("sources[%d] (%s): timeout must be at least 1s if specified, got %s",
			i, s.Name, s.Timeout.Duration())
	}

	if s.Interval != 0 {
		if s.Interval.Duration() < time.Second {
			return fmt.Errorf("sources[%d] (%s): interval must be at least 1s, got %s",
				i, s.Name, s.Interval.Duration())
		}
		if s.Interval.Duration() > time.Hour {
			return fmt.Errorf("sources[%d] (%s): interval must not exceed 1h, got %s",
				i, s.Name, s.Interval.Duration())
		}
	}

	for j, f := range s.Fields {
		if f.Element == "" {
			return fmt.Errorf("sources[%d] (%s): fields[%d]: element is required", i, s.Name, j)
		}
		if f.Path == "" {
			return fmt.Errorf("sources[%d] (%s): fields[%d] (%s): path is required", i, s.Name, j, f.Element)
		}
		if _, err := mesboard.FormatByName(f.Format); err != nil {
			return fmt.Errorf("sources[%d] (%s): fields[%d] (%s): %w", i, s.Name, j, f.Element, err)
		}
	}

	return nil
}
