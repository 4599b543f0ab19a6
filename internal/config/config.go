// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Classifier providers.
const (
	ProviderLocal      = "local"
	ProviderOpenRouter = "openrouter"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// AIProvider selects the classifier: local or openrouter.
	AIProvider string `koanf:"ai_provider"`

	OpenRouterAPIKey string `koanf:"openrouter_api_key"`
	OpenRouterURL    string `koanf:"openrouter_url"`
	OpenRouterModel  string `koanf:"openrouter_model"`

	// OpenRouterTimeoutSeconds bounds a single remote classification call.
	OpenRouterTimeoutSeconds int `koanf:"openrouter_timeout_seconds"`

	// UploadDir is the only directory proof attachments are read from.
	// An empty value disables proof forwarding.
	UploadDir string `koanf:"upload_dir"`

	// MaxProofBytes caps a proof attachment sent to the remote classifier.
	MaxProofBytes int64 `koanf:"max_proof_bytes"`

	// Prometheus metrics, exposed under /healthz.
	MetricsEnabled                bool              `koanf:"metrics_enabled"`
	MetricsNamespace              string            `koanf:"metrics_namespace"`
	MetricsSubsystem              string            `koanf:"metrics_subsystem"`
	MetricsPrefix                 string            `koanf:"metrics_prefix"`
	MetricsRefreshIntervalSeconds int               `koanf:"metrics_refresh_interval_seconds"`
	MetricsLabels                 map[string]string `koanf:"metrics_labels"`
	MetricsLatencyBuckets         []float64         `koanf:"metrics_latency_buckets"`
}

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":8000",
		DBPath:                   "data/socgpa.db",
		AIProvider:               ProviderLocal,
		OpenRouterURL:            "https://openrouter.ai/api/v1/chat/completions",
		OpenRouterModel:          "z-ai/glm-4.5-air:free",
		OpenRouterTimeoutSeconds: 40,

		UploadDir:     "data/uploads",
		MaxProofBytes: 5 << 20,

		MetricsEnabled:                true,
		MetricsNamespace:              "socgpa",
		MetricsSubsystem:              "api",
		MetricsRefreshIntervalSeconds: 10,
	}
}

// OpenRouterTimeout returns the remote call timeout as a duration.
func (c *Config) OpenRouterTimeout() time.Duration {
	return time.Duration(c.OpenRouterTimeoutSeconds) * time.Second
}

// MetricsRefreshInterval returns the gauge refresh period as a duration.
func (c *Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshIntervalSeconds) * time.Second
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DBPath) == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.OpenRouterTimeoutSeconds <= 0:
		return fmt.Errorf("%w: openrouter_timeout_seconds must be positive", ErrInvalidConfig)
	case c.MaxProofBytes <= 0:
		return fmt.Errorf("%w: max_proof_bytes must be positive", ErrInvalidConfig)
	}

	if err := c.validateMetrics(); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.AIProvider)) {
	case ProviderLocal, ProviderOpenRouter:
	default:
		return fmt.Errorf("%w: unknown ai_provider %q", ErrInvalidConfig, c.AIProvider)
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.MetricsRefreshIntervalSeconds <= 0 {
		return fmt.Errorf("%w: metrics_refresh_interval_seconds must be positive", ErrInvalidConfig)
	}
	names := map[string]string{
		"metrics_namespace": c.MetricsNamespace,
		"metrics_subsystem": c.MetricsSubsystem,
		"metrics_prefix":    strings.TrimSuffix(c.MetricsPrefix, "_"),
	}
	for key, v := range names {
		if v != "" && !metricNameRE.MatchString(v) {
			return fmt.Errorf("%w: %s %q is not a valid metric name", ErrInvalidConfig, key, v)
		}
	}
	for name := range c.MetricsLabels {
		if !metricNameRE.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q is not a valid label name", ErrInvalidConfig, name)
		}
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}
