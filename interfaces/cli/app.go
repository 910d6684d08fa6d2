// Package cli provides the command-line interface of the pathfinder service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pathfinder"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Version information set at build time.
var (
	Version   = pathfinder.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "pathfinder",
		Short: "Grid navigation service",
		Long: `pathfinder guides an agent across a 2D occupancy grid.

Each move request runs an A* search from the agent's cell to the nearest
target and answers with a single step: RIGHT, DOWN, LEFT or UP. FINISH means
no targets were given and ERROR means no step applies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newValidateCmd(),
		app.newServeCmd(),
		app.newSolveCmd(),
		app.newClientCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "pathfinder version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}

// parseCell parses "row,col".
func parseCell(s string) (grid.Position, error) {
	r, c, ok := strings.Cut(s, ",")
	if !ok {
		return grid.Position{}, fmt.Errorf("cell %q: want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return grid.Position{}, fmt.Errorf("cell %q: row: %w", s, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return grid.Position{}, fmt.Errorf("cell %q: col: %w", s, err)
	}
	return grid.Pos(row, col), nil
}

func parseCells(values []string) ([]grid.Position, error) {
	out := make([]grid.Position, 0, len(values))
	for _, v := range values {
		p, err := parseCell(v)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
