package mesboard

import (
	"math"
	"strings"
	"testing"

	"github.com/jpalmerr/mesboard/internal/poller"
)

func TestFormats(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		in      any
		want    string
		wantErr bool
	}{
		{"plain string", FormatPlain, "running", "running", false},
		{"plain integer", FormatPlain, float64(42), "42", false},
		{"plain float", FormatPlain, 62.5, "62.5", false},
		{"plain bool", FormatPlain, true, "true", false},
		{"plain null", FormatPlain, nil, "", true},
		{"plain array", FormatPlain, []any{"A", "B"}, `["A","B"]`, false},
		{"percent", FormatPercent, 62.5, "62.5%", false},
		{"percent zero", FormatPercent, float64(0), "0%", false},
		{"percent numeric string", FormatPercent, "80", "80%", false},
		{"percent not a number", FormatPercent, "n/a", "", true},
		{"ratio", FormatRatio, 0.625, "62.5%", false},
		{"ratio rounds", FormatRatio, 0.33333, "33.3%", false},
		{"ratio one", FormatRatio, float64(1), "100.0%", false},
		{"number small", FormatNumber, float64(999), "999", false},
		{"number thousands", FormatNumber, float64(12345), "12,345", false},
		{"number millions", FormatNumber, float64(1234567), "1,234,567", false},
		{"number fraction", FormatNumber, 1234.5, "1,234.5", false},
		{"number negative", FormatNumber, float64(-1234), "-1,234", false},
		{"number bool", FormatNumber, true, "", true},
		{"number infinity string", FormatNumber, "Inf", "", true},
		{"number negative infinity string", FormatNumber, "-Infinity", "", true},
		{"number NaN string", FormatNumber, "NaN", "", true},
		{"number infinity", FormatNumber, math.Inf(1), "", true},
		{"percent NaN string", FormatPercent, "nan", "", true},
		{"ratio infinity string", FormatRatio, "+Inf", "", true},
		{"timestamp naive", FormatTimestamp, "2024-01-15T08:30:00", "2024-01-15 08:30:00", false},
		{"timestamp micros", FormatTimestamp, "2024-01-15T08:30:00.123456", "2024-01-15 08:30:00", false},
		{"timestamp zoned", FormatTimestamp, "2024-01-15T08:30:00+08:00", "2024-01-15 08:30:00", false},
		{"timestamp spaced", FormatTimestamp, "2024-01-15 08:30:00", "2024-01-15 08:30:00", false},
		{"timestamp garbage", FormatTimestamp, "yesterday", "", true},
		{"timestamp number", FormatTimestamp, float64(1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.format(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatByName(t *testing.T) {
	for _, name := range []string{"", "plain", "percent", "Ratio", "number", "timestamp"} {
		if _, err := FormatByName(name); err != nil {
			t.Errorf("FormatByName(%q) error = %v", name, err)
		}
	}
	if _, err := FormatByName("currency"); err == nil {
		t.Error("FormatByName(currency) expected error, got nil")
	}
}

func TestLookupPath(t *testing.T) {
	doc := map[string]any{
		"production": map[string]any{"total": float64(4)},
		"equipment":  []any{map[string]any{"name": "CNC-01"}},
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"production.total", float64(4), true},
		{"equipment.0.name", "CNC-01", true},
		{"equipment.1.name", nil, false},
		{"equipment.x", nil, false},
		{"production.missing", nil, false},
		{"production.total.deeper", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := lookupPath(doc, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildExtractor_Fresh(t *testing.T) {
	extract := buildExtractor([]Field{
		{Element: "total-tasks", Path: "production.total"},
		{Element: "completion-rate", Path: "production.completion_rate", Format: FormatPercent},
	})

	values, status, err := extract([]byte(`{"production": {"total": 4, "completion_rate": 25.0}}`))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if status != poller.StatusFresh {
		t.Errorf("status = %q, want %q", status, poller.StatusFresh)
	}
	if values["total-tasks"] != "4" || values["completion-rate"] != "25%" {
		t.Errorf("values = %v", values)
	}
}

func TestBuildExtractor_Partial(t *testing.T) {
	extract := buildExtractor([]Field{
		{Element: "total-tasks", Path: "total"},
		{Element: "paused-tasks", Path: "paused"},
		{Element: "last-check", Path: "total", Format: FormatTimestamp},
	})

	values, status, err := extract([]byte(`{"total": 4}`))
	if status != poller.StatusPartial {
		t.Errorf("status = %q, want %q", status, poller.StatusPartial)
	}
	if err == nil || !strings.Contains(err.Error(), "paused-tasks") || !strings.Contains(err.Error(), "last-check") {
		t.Errorf("error = %v, want both missing elements named", err)
	}
	if values["total-tasks"] != "4" {
		t.Errorf("values = %v, want total-tasks kept", values)
	}
}

func TestBuildExtractor_InvalidJSON(t *testing.T) {
	extract := buildExtractor([]Field{{Element: "total-tasks", Path: "total"}})

	values, status, err := extract([]byte(`<html>`))
	if status != poller.StatusFailed {
		t.Errorf("status = %q, want %q", status, poller.StatusFailed)
	}
	if err == nil {
		t.Error("error = nil for invalid JSON")
	}
	if values != nil {
		t.Errorf("values = %v, want nil", values)
	}
}

func TestBuildExtractor_NoFields(t *testing.T) {
	if buildExtractor(nil) != nil {
		t.Error("buildExtractor(nil) should return nil")
	}
}
