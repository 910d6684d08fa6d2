package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configloader "github.com/felixgeelhaar/pathfinder/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a pathfinder configuration file.

This command checks:
  - File format (YAML or JSON)
  - Algorithm selector and heuristic mode
  - Storage backend and its settings
  - Pool, lock and resilience limits
  - Environment variable references (in strict mode)

Examples:
  pathfinder validate -c pathfinder.yaml
  pathfinder validate -c pathfinder.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loader := configloader.NewLoader(
		configloader.WithValidation(true),
		configloader.WithStrictEnv(opts.strict),
	)
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Listen: %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintf(a.stdout, "  Algorithm: %s\n", cfg.Search.Algorithm)
	fmt.Fprintf(a.stdout, "  Search pool: %d workers, queue %d\n", cfg.Search.PoolSize, cfg.Search.QueueSize)
	fmt.Fprintf(a.stdout, "  Storage: %s (key %q)\n", cfg.Storage.Backend, cfg.Storage.KeyPrefix+cfg.Storage.Key)
	fmt.Fprintf(a.stdout, "  Field policy: %s\n", cfg.Field.Policy)
	if cfg.Resilience.CircuitBreaker.Enabled {
		fmt.Fprintf(a.stdout, "  Circuit breaker: enabled (threshold=%d)\n", cfg.Resilience.CircuitBreaker.Threshold)
	}
	if cfg.Telemetry.Exporter != "" && cfg.Telemetry.Exporter != "none" {
		fmt.Fprintf(a.stdout, "  Telemetry: %s\n", cfg.Telemetry.Exporter)
	}

	return nil
}
