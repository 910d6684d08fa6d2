// Package postgres provides a PostgreSQL state backend.
package postgres

import "time"

// Config holds PostgreSQL connection configuration.
type Config struct {
	// DSN is the pgx connection string (URL or key=value form).
	DSN string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	// Schema holds the agent_state table.
	Schema string

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		Schema:          "public",
	}
}

// ConfigOption configures the connection.
type ConfigOption func(*Config)

// WithDSN sets the connection string.
func WithDSN(dsn string) ConfigOption {
	return func(c *Config) {
		c.DSN = dsn
	}
}

// WithPoolSize sets the maximum pool connections, lowering the minimum to
// match when needed.
func WithPoolSize(max int32) ConfigOption {
	return func(c *Config) {
		if max <= 0 {
			return
		}
		c.MaxConns = max
		if c.MinConns > max {
			c.MinConns = max
		}
	}
}

// WithConnectTimeout bounds connection setup. Zero keeps the default.
func WithConnectTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.ConnectTimeout = d
		}
	}
}

// WithSchema sets the schema holding the state table. Empty keeps the default.
func WithSchema(schema string) ConfigOption {
	return func(c *Config) {
		if schema != "" {
			c.Schema = schema
		}
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}
