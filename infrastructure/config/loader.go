// Package config provides configuration loading for the pathfinder service.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pathfinder/domain/config"
)

// EnvPrefix is the prefix of environment variables that override file settings.
const EnvPrefix = "PATHFINDER_"

// Loader loads service configuration from files.
type Loader struct {
	// ExpandEnv enables ${VAR} expansion inside the file.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
	// Overrides applies PATHFINDER_* variables after parsing.
	Overrides bool
	// Validate enables configuration validation.
	Validate bool

	lookup func(string) (string, bool)
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) { l.ExpandEnv = enabled }
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) { l.StrictEnv = enabled }
}

// WithOverrides enables or disables PATHFINDER_* overrides.
func WithOverrides(enabled bool) LoaderOption {
	return func(l *Loader) { l.Overrides = enabled }
}

// WithValidation enables or disables configuration validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) { l.Validate = enabled }
}

// WithLookup replaces os.LookupEnv. Intended for tests.
func WithLookup(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookup = lookup }
}

// NewLoader creates a loader with expansion, overrides and validation enabled.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		ExpandEnv: true,
		Overrides: true,
		Validate:  true,
		lookup:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// LoadFile loads configuration from a file path.
func (l *Loader) LoadFile(path string) (*config.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}

	var format Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return l.Load(f, format)
}

// LoadDefault returns the defaults with environment overrides applied.
func (l *Loader) LoadDefault() (*config.Config, error) {
	return l.LoadBytes(nil, FormatYAML)
}

// LoadBytes loads configuration from bytes.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.Config, error) {
	return l.Load(strings.NewReader(string(data)), format)
}

// Load parses configuration from r on top of config.Default().
func (l *Loader) Load(r io.Reader, format Format) (*config.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if l.ExpandEnv {
		expander := &envExpander{strict: l.StrictEnv, lookup: l.lookup}
		expanded, err := expander.Expand(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	cfg := config.Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		switch format {
		case FormatYAML:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
			}
		case FormatJSON:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
			}
		default:
			return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
		}
	}

	if l.Overrides {
		if err := l.applyOverrides(&cfg); err != nil {
			return nil, err
		}
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(&cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
		}
	}

	return &cfg, nil
}

// applyOverrides copies PATHFINDER_* variables into cfg.
func (l *Loader) applyOverrides(cfg *config.Config) error {
	str := func(name string, dst *string) {
		if v, ok := l.lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := l.lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", config.ErrInvalidFormat, EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}

	str("HOST", &cfg.Server.Host)
	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	str("ALGO", &cfg.Search.Algorithm)
	if err := num("POOL_SIZE", &cfg.Search.PoolSize); err != nil {
		return err
	}
	str("STORAGE", &cfg.Storage.Backend)
	str("STATE_KEY", &cfg.Storage.Key)
	str("REDIS_ADDR", &cfg.Storage.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	str("POSTGRES_DSN", &cfg.Storage.Postgres.DSN)
	str("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	str("BADGER_PATH", &cfg.Storage.Badger.Path)
	str("FIELD_POLICY", &cfg.Field.Policy)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
	str("TELEMETRY_EXPORTER", &cfg.Telemetry.Exporter)
	str("OTLP_ENDPOINT", &cfg.Telemetry.Endpoint)
	return nil
}
