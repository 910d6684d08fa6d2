// Package config provides domain models for service configuration.
package config

import "time"

// Storage backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Field policies applied when a field is set for an identity that already has state.
const (
	// PolicyReset replaces grid and position and clears move_count and move_log.
	PolicyReset = "reset"
	// PolicyPreserve leaves an existing state untouched.
	PolicyPreserve = "preserve"
)

// Config is the complete service configuration. It is loaded once at startup
// and handed to constructors; nothing reads it ambiently.
type Config struct {
	// Server contains the RPC listener settings.
	Server ServerConfig `json:"server" yaml:"server"`
	// Search contains the search algorithm and worker pool settings.
	Search SearchConfig `json:"search" yaml:"search"`
	// Storage selects and configures the state backend.
	Storage StorageConfig `json:"storage" yaml:"storage"`
	// Lock configures per-identity mutual exclusion.
	Lock LockConfig `json:"lock,omitempty" yaml:"lock,omitempty"`
	// Field configures set-field behavior.
	Field FieldConfig `json:"field,omitempty" yaml:"field,omitempty"`
	// Resilience configures store call protection.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry configures tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	// Host is the interface to bind (empty = all).
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Port is the TCP port (default: 50051).
	Port int `json:"port" yaml:"port"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
	// RateLimit bounds requests per client.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// HealthInterval is how often backend health is checked (0 = never).
	HealthInterval Duration `json:"health_interval,omitempty" yaml:"health_interval,omitempty"`
}

// RateLimitConfig configures the per-peer token bucket.
type RateLimitConfig struct {
	// RequestsPerMinute is the refill rate (0 = unlimited).
	RequestsPerMinute int `json:"requests_per_minute,omitempty" yaml:"requests_per_minute,omitempty"`
	// Burst is the bucket size.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// SearchConfig contains search settings.
type SearchConfig struct {
	// Algorithm is the selector, e.g. "astar[manhattan]".
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	// PoolSize is the number of search workers (minimum 1).
	PoolSize int `json:"pool_size" yaml:"pool_size"`
	// QueueSize is the number of searches that may wait for a worker.
	QueueSize int `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	// MaxExpansions bounds a single search (0 = unbounded).
	MaxExpansions int `json:"max_expansions,omitempty" yaml:"max_expansions,omitempty"`
}

// StorageConfig selects the backend.
type StorageConfig struct {
	// Backend is one of memory, redis, badger, sqlite, postgres.
	Backend string `json:"backend" yaml:"backend"`
	// Key is the identity of the single agent (default: robot_id).
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	// KeyPrefix is prepended to every stored key.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`

	Redis    RedisConfig    `json:"redis,omitempty" yaml:"redis,omitempty"`
	Badger   BadgerConfig   `json:"badger,omitempty" yaml:"badger,omitempty"`
	SQLite   SQLiteConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	PoolSize int    `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
	// DialTimeout bounds connection setup (default: 10s).
	DialTimeout Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
}

// BadgerConfig configures the embedded badger backend.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// InMemory keeps all data in memory.
	InMemory bool `json:"in_memory,omitempty" yaml:"in_memory,omitempty"`
	// SyncWrites fsyncs every write.
	SyncWrites bool `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty"`
	// GCInterval is the value log GC period (0 = off).
	GCInterval Duration `json:"gc_interval,omitempty" yaml:"gc_interval,omitempty"`
}

// SQLiteConfig configures the sqlite backend.
type SQLiteConfig struct {
	// Path is the database file (":memory:" for in-memory).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// JournalMode is the journal_mode pragma (default: WAL).
	JournalMode string `json:"journal_mode,omitempty" yaml:"journal_mode,omitempty"`
	// BusyTimeout bounds waits on a locked database (default: 5s).
	BusyTimeout Duration `json:"busy_timeout,omitempty" yaml:"busy_timeout,omitempty"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	// DSN is the connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// MaxConns bounds the connection pool.
	MaxConns int32 `json:"max_conns,omitempty" yaml:"max_conns,omitempty"`
	// Schema holds the agent_state table (default: public).
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// ConnectTimeout bounds connection setup (default: 10s).
	ConnectTimeout Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
}

// LockConfig configures per-identity locks.
type LockConfig struct {
	// TTL is how long a lock is held before it expires.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval Duration `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty"`
	// WaitTimeout bounds how long a request waits for the lock.
	WaitTimeout Duration `json:"wait_timeout,omitempty" yaml:"wait_timeout,omitempty"`
}

// FieldConfig configures set-field behavior.
type FieldConfig struct {
	// Policy is reset or preserve (default: reset).
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
}

// ResilienceConfig configures protection around backend calls.
type ResilienceConfig struct {
	// Timeout bounds a single backend call (0 = none).
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// MaxConcurrent bounds in-flight backend calls (0 = unbounded).
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// Retry configures retries of failed backend calls.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures the breaker.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (1 = no retries).
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the delay before the first retry.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is the number of consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	// Exporter is none, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for OTLP.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            50051,
			ShutdownTimeout: Duration(10 * time.Second),
			HealthInterval:  Duration(5 * time.Second),
		},
		Search: SearchConfig{
			Algorithm: "astar[manhattan]",
			PoolSize:  4,
			QueueSize: 64,
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Key:     "robot_id",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				DialTimeout: Duration(10 * time.Second),
			},
			Badger: BadgerConfig{Path: "data/badger", GCInterval: Duration(5 * time.Minute)},
			SQLite: SQLiteConfig{Path: "pathfinder.db"},
		},
		Lock: LockConfig{
			TTL:           Duration(30 * time.Second),
			RetryInterval: Duration(10 * time.Millisecond),
			WaitTimeout:   Duration(5 * time.Second),
		},
		Field: FieldConfig{Policy: PolicyReset},
		Resilience: ResilienceConfig{
			Timeout: Duration(5 * time.Second),
			Retry: RetryConfig{
				MaxAttempts:  1,
				InitialDelay: Duration(50 * time.Millisecond),
				Multiplier:   2,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:   true,
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Exporter:   "none",
			SampleRate: 1.0,
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
