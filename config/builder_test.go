package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/mesboard"
)

func TestBuildSources_SingleSource(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{Name: "production", URL: "http://localhost:5000/api/production-stats"},
		},
	}

	sources, err := BuildSources(cfg)
	if err != nil {
		t.Fatalf("BuildSources() error = %v", err)
	}

	if len(sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(sources))
	}
	if sources[0].Name() != "production" {
		t.Errorf("Name() = %q, want production", sources[0].Name())
	}
	if sources[0].URL() != "http://localhost:5000/api/production-stats" {
		t.Errorf("URL() = %q", sources[0].URL())
	}
	if sources[0].Method() != "" {
		t.Errorf("Method() = %q, want empty (GET)", sources[0].Method())
	}
}

func TestBuildSources_AllOptions(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name:     "quality",
				URL:      "https://mes.example.com/api/quality-stats",
				Method:   "POST",
				Timeout:  Duration(5 * time.Second),
				Interval: Duration(time.Minute),
				Headers:  map[string]string{"Authorization": "Bearer token", "X-Line": "3"},
				Labels:   map[string]string{"area": "qa"},
				Fields: []FieldConfig{
					{Element: "qualification-rate", Path: "qualification_rate", Format: "percent"},
					{Element: "inspected", Path: "total"},
				},
			},
		},
	}

	sources, err := BuildSources(cfg)
	if err != nil {
		t.Fatalf("BuildSources() error = %v", err)
	}
	src := sources[0]

	if src.Method() != "POST" {
		t.Errorf("Method() = %q, want POST", src.Method())
	}
	if src.Timeout() != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", src.Timeout())
	}
	if src.Interval() != time.Minute {
		t.Errorf("Interval() = %v, want 1m", src.Interval())
	}
	wantHeaders := map[string]string{"Authorization": "Bearer token", "X-Line": "3"}
	if !reflect.DeepEqual(src.Headers(), wantHeaders) {
		t.Errorf("Headers() = %v, want %v", src.Headers(), wantHeaders)
	}
	if src.Labels()["area"] != "qa" {
		t.Errorf("Labels() = %v", src.Labels())
	}

	fields := src.Fields()
	if len(fields) != 2 {
		t.Fatalf("len(Fields()) = %d, want 2", len(fields))
	}
	if fields[0].Element != "qualification-rate" || fields[0].Path != "qualification_rate" {
		t.Errorf("Fields()[0] = %+v", fields[0])
	}
	got, err := fields[0].Format(96.5)
	if err != nil || got != "96.5%" {
		t.Errorf("percent format(96.5) = %q, %v", got, err)
	}
	got, err = fields[1].Format("12")
	if err != nil || got != "12" {
		t.Errorf("plain format(\"12\") = %q, %v", got, err)
	}
}

func TestBuildSources_UnknownFormat(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{
			{
				Name:   "production",
				URL:    "http://localhost:5000",
				Fields: []FieldConfig{{Element: "rate", Path: "completion_rate", Format: "currency"}},
			},
		},
	}

	_, err := BuildSources(cfg)
	if err == nil || !strings.Contains(err.Error(), "currency") {
		t.Errorf("BuildSources() error = %v, want unknown format", err)
	}
}

func TestBuildSources_InvalidSource(t *testing.T) {
	cfg := &Config{
		Sources: []SourceConfig{{Name: "production", URL: "not a url"}},
	}

	if _, err := BuildSources(cfg); err == nil {
		t.Error("BuildSources() expected error for invalid URL, got nil")
	}
}

func TestBuildOptions(t *testing.T) {
	yaml := `
title: Line 3
port: 19401
poll_interval: 15s
notification_duration: 4s
alert_window: 0s
refresh_debounce: 100ms
sources:
  - name: production
    url: http://localhost:5000/api/production-stats
    fields:
      - completion-rate: completion_rate|percent
  - name: equipment
    url: http://localhost:5000/api/equipment-stats
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts, err := BuildOptions(cfg, nil)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	board, err := mesboard.New(opts...)
	if err != nil {
		t.Fatalf("mesboard.New() error = %v", err)
	}

	if board.Port() != 19401 {
		t.Errorf("Port() = %d, want 19401", board.Port())
	}
	if board.PollingInterval() != 15*time.Second {
		t.Errorf("PollingInterval() = %v, want 15s", board.PollingInterval())
	}
	if len(board.Sources()) != 2 {
		t.Errorf("len(Sources()) = %d, want 2", len(board.Sources()))
	}
}

func TestBuildOptions_DefaultsOmitted(t *testing.T) {
	cfg := &Config{
		Port:         8080,
		PollInterval: Duration(30 * time.Second),
		Sources:      []SourceConfig{{Name: "production", URL: "http://localhost:5000"}},
	}

	opts, err := BuildOptions(cfg, nil)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}

	// sources, port and poll interval only
	if len(opts) != 3 {
		t.Errorf("len(opts) = %d, want 3", len(opts))
	}
}

func TestMapToKeyValuePairs(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1", "c": "3"})
	want := []string{"a", "1", "b", "2", "c", "3"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("mapToKeyValuePairs() = %v, want %v", got, want)
	}
}
