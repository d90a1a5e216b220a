package config

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/jpalmerr/mesboard"
)

// BuildSources converts parsed configuration into board Sources.
func BuildSources(cfg *Config) ([]mesboard.Source, error) {
	sources := make([]mesboard.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		src, err := buildSource(sc)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// BuildOptions converts parsed configuration into board options, including
// every configured source. Settings left at zero keep the board defaults.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]mesboard.Option, error) {
	sources, err := BuildSources(cfg)
	if err != nil {
		return nil, err
	}

	opts := []mesboard.Option{
		mesboard.WithSources(sources...),
		mesboard.WithPort(cfg.Port),
		mesboard.WithPollingInterval(cfg.PollInterval.Duration()),
	}
	if logger != nil {
		opts = append(opts, mesboard.WithLogger(logger))
	}
	if cfg.Title != "" {
		opts = append(opts, mesboard.WithTitle(cfg.Title))
	}
	if cfg.NotificationDuration != 0 {
		opts = append(opts, mesboard.WithNotificationDuration(cfg.NotificationDuration.Duration()))
	}
	if cfg.AlertWindow != nil {
		opts = append(opts, mesboard.WithAlertWindow(cfg.AlertWindow.Duration()))
	}
	if cfg.RefreshDebounce != 0 {
		opts = append(opts, mesboard.WithRefreshDebounce(cfg.RefreshDebounce.Duration()))
	}
	return opts, nil
}

func buildSource(sc SourceConfig) (mesboard.Source, error) {
	var opts []mesboard.SourceOption

	if sc.Method != "" {
		opts = append(opts, mesboard.WithMethod(sc.Method))
	}

	if sc.Timeout != 0 {
		opts = append(opts, mesboard.WithTimeout(sc.Timeout.Duration()))
	}

	if len(sc.Headers) > 0 {
		opts = append(opts, mesboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
	}

	if len(sc.Labels) > 0 {
		opts = append(opts, mesboard.WithLabels(mapToKeyValuePairs(sc.Labels)...))
	}

	if sc.Interval != 0 {
		opts = append(opts, mesboard.WithInterval(sc.Interval.Duration()))
	}

	if len(sc.Fields) > 0 {
		fields := make([]mesboard.Field, 0, len(sc.Fields))
		for _, fc := range sc.Fields {
			format, err := mesboard.FormatByName(fc.Format)
			if err != nil {
				return mesboard.Source{}, fmt.Errorf("source %q field %q: %w", sc.Name, fc.Element, err)
			}
			fields = append(fields, mesboard.Field{Element: fc.Element, Path: fc.Path, Format: format})
		}
		opts = append(opts, mesboard.WithFields(fields...))
	}

	return mesboard.NewSource(sc.Name, sc.URL, opts...)
}

// mapToKeyValuePairs flattens m into key, value pairs sorted by key.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
