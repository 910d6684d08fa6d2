package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pathfinder/domain/config"
	configloader "github.com/felixgeelhaar/pathfinder/infrastructure/config"
	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
	"github.com/felixgeelhaar/pathfinder/interfaces/rpc"
)

// serveOptions holds options for the serve command.
type serveOptions struct {
	configPath string
	port       int
	algorithm  string
	poolSize   int
	storage    string
	logLevel   string
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC server",
		Long: `Run the PathFinder gRPC service.

Settings come from the configuration file (if any), then PATHFINDER_*
environment variables, then flags.

Examples:
  # Serve with defaults (memory storage, port 50051)
  pathfinder serve

  # Serve from a file with a larger search pool
  pathfinder serve -c pathfinder.yaml --pool-size 8

  # Share state through redis
  pathfinder serve --storage redis`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = opts.port
			}
			if flags.Changed("algo") {
				cfg.Search.Algorithm = opts.algorithm
			}
			if flags.Changed("pool-size") {
				cfg.Search.PoolSize = opts.poolSize
			}
			if flags.Changed("storage") {
				cfg.Storage.Backend = opts.storage
			}
			if flags.Changed("log-level") {
				cfg.Logging.Level = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: a.stderr,
			})
			return rpc.Run(cmd.Context(), *cfg, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVar(&opts.port, "port", 50051, "TCP port to listen on")
	cmd.Flags().StringVar(&opts.algorithm, "algo", "astar[manhattan]", "Search algorithm, e.g. astar[euclidean]")
	cmd.Flags().IntVar(&opts.poolSize, "pool-size", 4, "Number of search workers")
	cmd.Flags().StringVar(&opts.storage, "storage", config.BackendMemory, "State backend: memory, redis, badger, sqlite or postgres")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: trace, debug, info, warn or error")

	return cmd
}

// loadConfig reads path, or the defaults when path is empty. Validation is
// left to the caller so flags can still change the result.
func loadConfig(path string) (*config.Config, error) {
	loader := configloader.NewLoader(configloader.WithValidation(false))
	if path == "" {
		return loader.LoadDefault()
	}
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
