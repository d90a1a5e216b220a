package mesboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jpalmerr/mesboard/internal/poller"
)

// Field maps one value in a stats document to one dashboard element.
//
// Path uses dot notation to walk nested objects; a numeric segment indexes
// into an array. For {"production": {"completion_rate": 62.5}} the path
// "production.completion_rate" selects 62.5.
type Field struct {
	// Element is the ID of the dashboard element whose text is replaced.
	Element string

	// Path locates the value in the JSON document.
	Path string

	// Format turns the JSON value into display text. nil means [FormatPlain].
	Format Format
}

// Format turns a decoded JSON value (string, float64, bool, nil, slice or
// map) into display text. A returned error marks the field as missing for
// this refresh.
type Format func(v any) (string, error)

// TimestampLayout is the layout [FormatTimestamp] renders.
const TimestampLayout = "2006-01-02 15:04:05"

// timestamp layouts accepted by FormatTimestamp, most specific first.
var timestampInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// FormatPlain renders strings as-is, numbers in their shortest form and
// booleans as true/false. Objects and arrays are rendered as JSON.
func FormatPlain(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", errors.New("value is null")
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// FormatPercent renders a number that is already a percentage, such as
// 62.5, as "62.5%".
func FormatPercent(v any) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "%", nil
}

// FormatRatio renders a 0..1 ratio as a percentage with one decimal, so
// 0.625 becomes "62.5%".
func FormatRatio(v any) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f*100, 'f', 1, 64) + "%", nil
}

// FormatNumber renders a number with thousands separators: 12345 becomes
// "12,345" and 1234.5 becomes "1,234.5".
func FormatNumber(v any) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String(), nil
}

// FormatTimestamp renders an ISO-8601 timestamp string as
// "2006-01-02 15:04:05". Zoned timestamps keep their own offset.
func FormatTimestamp(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("timestamp must be a string, got %T", v)
	}
	for _, layout := range timestampInputs {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimestampLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatByName returns the built-in format called name: "plain" (or ""),
// "percent", "ratio", "number" or "timestamp".
func FormatByName(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "plain":
		return FormatPlain, nil
	case "percent":
		return FormatPercent, nil
	case "ratio":
		return FormatRatio, nil
	case "number":
		return FormatNumber, nil
	case "timestamp":
		return FormatTimestamp, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, fmt.Errorf("not a number: %v", val)
		}
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("not a number: %q", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

// lookupPath walks data along a dot-notation path.
func lookupPath(data any, path string) (any, bool) {
	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// buildExtractor returns the poller extractor for a set of fields. A
// source without fields gets none, so any 2xx response is fresh.
func buildExtractor(fields []Field) poller.Extractor {
	if len(fields) == 0 {
		return nil
	}
	return func(body []byte) (map[string]string, string, error) {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, poller.StatusFailed, fmt.Errorf("invalid JSON: %w", err)
		}

		values := make(map[string]string, len(fields))
		var missing []string
		for _, f := range fields {
			raw, ok := lookupPath(doc, f.Path)
			if !ok {
				missing = append(missing, f.Element)
				continue
			}
			format := f.Format
			if format == nil {
				format = FormatPlain
			}
			text, err := format(raw)
			if err != nil {
				missing = append(missing, f.Element)
				continue
			}
			values[f.Element] = text
		}

		if len(missing) > 0 {
			return values, poller.StatusPartial, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
		}
		return values, poller.StatusFresh, nil
	}
}
