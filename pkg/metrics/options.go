package metrics

import (
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var validName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Option configures a Manager. Values that would make registration panic
// (invalid names, unordered buckets) are ignored and the default is kept.
type Option func(*Manager)

// WithNamespace sets the first name segment, "socgpa" by default.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if validName.MatchString(namespace) {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the second name segment, "api" by default.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if validName.MatchString(subsystem) {
			m.subsystem = subsystem
		}
	}
}

// WithPrefix prepends prefix to every metric base name. A trailing
// underscore is added when missing.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		prefix = strings.TrimSuffix(prefix, "_")
		if validName.MatchString(prefix) {
			m.metricPrefix = prefix + "_"
		}
	}
}

// WithLatencyBuckets sets the buckets of the HTTP and repository latency
// histograms, in milliseconds. They must be strictly increasing.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 {
			return
		}
		for i := 1; i < len(buckets); i++ {
			if buckets[i] <= buckets[i-1] {
				return
			}
		}
		m.histogramBuckets = slices.Clone(buckets)
	}
}

// WithEnabled turns recording on or off. Disabled managers still register
// their collectors so the exposition endpoint stays stable.
func WithEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithRefreshInterval sets how often the users, achievements and system
// gauges are refreshed.
func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.refreshInterval = interval
		}
	}
}

// WithConstLabels attaches constant labels, e.g. deployment region, to
// every metric. Invalid or reserved label names are dropped.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		out := make(map[string]string, len(m.customLabels)+len(labels))
		maps.Copy(out, m.customLabels)
		for name, value := range labels {
			if validName.MatchString(name) && !strings.HasPrefix(name, "__") {
				out[name] = value
			}
		}
		m.customLabels = out
	}
}

// WithRegistry registers the collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
