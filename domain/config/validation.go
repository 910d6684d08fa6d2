package config

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/pathfinder/domain/search"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the YAML path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e ValidationErrors) Unwrap() error {
	if len(e) == 0 {
		return nil
	}
	return ErrValidationFailed
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(cfg *Config) ValidationErrors {
	v.errors = nil

	v.validateServer(cfg)
	v.validateSearch(cfg)
	v.validateStorage(cfg)
	v.validateLock(cfg)
	v.validateField(cfg)
	v.validateResilience(cfg)
	v.validateLogging(cfg)
	v.validateTelemetry(cfg)

	return v.errors
}

// Validate is a convenience wrapper returning nil when cfg is valid.
func (c *Config) Validate() error {
	if errs := NewValidator().Validate(c); errs.HasErrors() {
		return errs
	}
	return nil
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateServer(cfg *Config) {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port out of range: %d", cfg.Server.Port))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		v.addError("server.shutdown_timeout", "shutdown_timeout must be non-negative")
	}
	if cfg.Server.HealthInterval < 0 {
		v.addError("server.health_interval", "health_interval must be non-negative")
	}
	if cfg.Server.RateLimit.RequestsPerMinute < 0 {
		v.addError("server.rate_limit.requests_per_minute", "requests_per_minute must be non-negative")
	}
	if cfg.Server.RateLimit.Burst < 0 {
		v.addError("server.rate_limit.burst", "burst must be non-negative")
	}
}

func (v *Validator) validateSearch(cfg *Config) {
	if _, err := search.ParseAlgorithm(cfg.Search.Algorithm); err != nil {
		v.addError("search.algorithm", err.Error())
	}
	if cfg.Search.PoolSize < 1 {
		v.addError("search.pool_size", "pool_size must be at least 1")
	}
	if cfg.Search.QueueSize < 0 {
		v.addError("search.queue_size", "queue_size must be non-negative")
	}
	if cfg.Search.MaxExpansions < 0 {
		v.addError("search.max_expansions", "max_expansions must be non-negative")
	}
}

var validJournalModes = map[string]bool{
	"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true,
}

func (v *Validator) validateStorage(cfg *Config) {
	s := cfg.Storage
	if s.Key == "" {
		v.addError("storage.key", "key is required")
	}

	switch s.Backend {
	case BackendMemory:
	case BackendRedis:
		if s.Redis.Addr == "" {
			v.addError("storage.redis.addr", "addr is required for the redis backend")
		}
		if s.Redis.PoolSize < 0 {
			v.addError("storage.redis.pool_size", "pool_size must be non-negative")
		}
	case BackendBadger:
		if !s.Badger.InMemory && s.Badger.Path == "" {
			v.addError("storage.badger.path", "path is required unless in_memory is set")
		}
		if s.Badger.GCInterval < 0 {
			v.addError("storage.badger.gc_interval", "gc_interval must be non-negative")
		}
	case BackendSQLite:
		if s.SQLite.Path == "" {
			v.addError("storage.sqlite.path", "path is required for the sqlite backend")
		}
		if s.SQLite.JournalMode != "" && !validJournalModes[strings.ToUpper(s.SQLite.JournalMode)] {
			v.addError("storage.sqlite.journal_mode", fmt.Sprintf("unknown journal_mode: %s", s.SQLite.JournalMode))
		}
		if s.SQLite.BusyTimeout < 0 {
			v.addError("storage.sqlite.busy_timeout", "busy_timeout must be non-negative")
		}
	case BackendPostgres:
		if s.Postgres.DSN == "" {
			v.addError("storage.postgres.dsn", "dsn is required for the postgres backend")
		}
		if s.Postgres.ConnectTimeout < 0 {
			v.addError("storage.postgres.connect_timeout", "connect_timeout must be non-negative")
		}
	case "":
		v.addError("storage.backend", "backend is required")
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend: %s", s.Backend))
	}
}

func (v *Validator) validateLock(cfg *Config) {
	if cfg.Lock.TTL <= 0 {
		v.addError("lock.ttl", "ttl must be positive")
	}
	if cfg.Lock.RetryInterval <= 0 {
		v.addError("lock.retry_interval", "retry_interval must be positive")
	}
	if cfg.Lock.WaitTimeout < 0 {
		v.addError("lock.wait_timeout", "wait_timeout must be non-negative")
	}
}

func (v *Validator) validateField(cfg *Config) {
	switch cfg.Field.Policy {
	case PolicyReset, PolicyPreserve, "":
	default:
		v.addError("field.policy", fmt.Sprintf("invalid policy: %s", cfg.Field.Policy))
	}
}

func (v *Validator) validateResilience(cfg *Config) {
	r := cfg.Resilience
	if r.Timeout < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}
	if r.MaxConcurrent < 0 {
		v.addError("resilience.max_concurrent", "max_concurrent must be non-negative")
	}
	if r.Retry.MaxAttempts < 0 {
		v.addError("resilience.retry.max_attempts", "max_attempts must be non-negative")
	}
	if r.Retry.MaxAttempts > 1 && r.Retry.Multiplier < 1 {
		v.addError("resilience.retry.multiplier", "multiplier must be >= 1")
	}
	if r.CircuitBreaker.Enabled && r.CircuitBreaker.Threshold <= 0 {
		v.addError("resilience.circuit_breaker.threshold", "threshold must be positive when enabled")
	}
}

func (v *Validator) validateLogging(cfg *Config) {
	switch strings.ToLower(cfg.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", cfg.Logging.Format))
	}
}

func (v *Validator) validateTelemetry(cfg *Config) {
	switch cfg.Telemetry.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if cfg.Telemetry.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for the otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", cfg.Telemetry.Exporter))
	}
	if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
		v.addError("telemetry.sample_rate", "sample_rate must be between 0 and 1")
	}
}
