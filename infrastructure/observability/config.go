// Package observability wires OpenTelemetry tracing and metrics.
package observability

import (
	"io"
	"time"

	"github.com/felixgeelhaar/pathfinder/domain/config"
)

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterOTLP exports to an OTLP gRPC endpoint (Jaeger, Tempo, a collector).
	ExporterOTLP ExporterType = "otlp"
	// ExporterStdout writes spans to stdout, for development.
	ExporterStdout ExporterType = "stdout"
	// ExporterNone disables export.
	ExporterNone ExporterType = "none"
)

// Config configures the provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Exporter ExporterType
	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string
	// Insecure disables TLS for OTLP.
	Insecure bool
	// SampleRate is the sampling ratio in [0, 1].
	SampleRate float64
	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration
	// Writer replaces stdout for the stdout exporter.
	Writer io.Writer
}

// DefaultConfig returns a configuration with export disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "pathfinder",
		ServiceVersion: "dev",
		Environment:    "development",
		Exporter:       ExporterNone,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithStdout exports spans as pretty JSON to w (nil = stdout).
func WithStdout(w io.Writer) Option {
	return func(c *Config) {
		c.Exporter = ExporterStdout
		c.Writer = w
	}
}

// WithOTLP exports spans to an OTLP gRPC endpoint.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Exporter = ExporterOTLP
		c.Endpoint = endpoint
		c.Insecure = insecure
	}
}

// WithSampleRate sets the trace sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// FromConfig maps the service telemetry settings onto options.
func FromConfig(tc config.TelemetryConfig) []Option {
	opts := []Option{WithSampleRate(tc.SampleRate)}
	switch ExporterType(tc.Exporter) {
	case ExporterStdout:
		opts = append(opts, WithStdout(nil))
	case ExporterOTLP:
		opts = append(opts, WithOTLP(tc.Endpoint, tc.Insecure))
	}
	return opts
}
