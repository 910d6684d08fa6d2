package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
	"github.com/felixgeelhaar/pathfinder/domain/search"
	"github.com/felixgeelhaar/pathfinder/infrastructure/statemachine"
)

// solveOptions holds options for the solve command.
type solveOptions struct {
	rows      int
	cols      int
	cells     string
	source    string
	targets   []string
	algorithm string
	walk      bool
	maxSteps  int
}

// newSolveCmd creates the solve command.
func (a *App) newSolveCmd() *cobra.Command {
	opts := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Resolve a direction offline",
		Long: `Resolve the next direction for a grid without a server.

With --walk the agent keeps stepping until the resolver stops returning a
step, printing every direction on the way.

Examples:
  # 3x3 grid with a wall in the middle column
  pathfinder solve --rows 3 --cols 3 --grid 010010000 --source 0,0 --target 0,2

  # Walk the whole route
  pathfinder solve --rows 3 --cols 3 --grid 010010000 --source 0,0 --target 0,2 --walk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(opts)
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", 0, "Number of grid rows")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "Number of grid columns")
	cmd.Flags().StringVar(&opts.cells, "grid", "", "Row-major cells, '0' free and '1' obstacle")
	cmd.Flags().StringVar(&opts.source, "source", "0,0", "Start cell as row,col")
	cmd.Flags().StringArrayVar(&opts.targets, "target", nil, "Target cell as row,col (repeatable)")
	cmd.Flags().StringVar(&opts.algorithm, "algo", search.DefaultAlgorithm.String(), "Search algorithm")
	cmd.Flags().BoolVar(&opts.walk, "walk", false, "Keep stepping until no step applies")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 1000, "Step limit for --walk")

	return cmd
}

func (a *App) solve(opts *solveOptions) error {
	g, err := grid.Parse(opts.rows, opts.cols, opts.cells)
	if err != nil {
		return err
	}
	source, err := parseCell(opts.source)
	if err != nil {
		return err
	}
	targets, err := parseCells(opts.targets)
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := g.Check(t); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	algorithm, err := search.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return err
	}
	resolver, err := statemachine.NewResolver(algorithm)
	if err != nil {
		return err
	}
	st, err := agent.NewState(g, source)
	if err != nil {
		return err
	}

	out := resolver.Resolve(statemachine.Task{Grid: g, Current: st.Current, Goals: targets})
	fmt.Fprintf(a.stdout, "algorithm: %s\n", algorithm)
	fmt.Fprintf(a.stdout, "path: %s\n", formatPath(st.Current, out.Path))
	fmt.Fprintf(a.stdout, "expanded: %d\n", out.Expanded)
	fmt.Fprintf(a.stdout, "direction: %s (%d)\n", out.Direction, int(out.Direction))
	if out.Reason != "" {
		fmt.Fprintf(a.stdout, "reason: %s\n", out.Reason)
	}
	if !opts.walk {
		return nil
	}

	steps := []string{}
	for i := 0; i < opts.maxSteps && out.Direction.IsStep(); i++ {
		if err := st.Apply(out.Direction, time.Now()); err != nil {
			return err
		}
		steps = append(steps, out.Direction.String())
		out = resolver.Resolve(statemachine.Task{Grid: g, Current: st.Current, Goals: targets})
	}
	fmt.Fprintf(a.stdout, "walk: %s\n", strings.Join(steps, " "))
	fmt.Fprintf(a.stdout, "final: %s after %d steps (%s)\n", st.Current, st.MoveCount, out.Direction)
	return nil
}

func formatPath(start grid.Position, path []grid.Position) string {
	if len(path) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, start.String())
	for _, p := range path {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " -> ")
}
