package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pathfinder/interfaces/rpc"
)

// clientOptions holds options shared by the client subcommands.
type clientOptions struct {
	addr    string
	timeout time.Duration
}

// newClientCmd creates the client command and its subcommands.
func (a *App) newClientCmd() *cobra.Command {
	opts := &clientOptions{}

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Call a running pathfinder server",
	}
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "localhost:50051", "Server address")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-call timeout")

	cmd.AddCommand(
		a.newClientFieldCmd(opts),
		a.newClientMoveCmd(opts),
		a.newClientStateCmd(opts),
		a.newClientHealthCmd(opts),
	)
	return cmd
}

// withClient dials the server and runs fn with a call deadline.
func withClient(ctx context.Context, opts *clientOptions, fn func(ctx context.Context, c *rpc.Client) error) error {
	c, err := rpc.NewClient(opts.addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", opts.addr, err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return fn(ctx, c)
}

func (a *App) newClientFieldCmd(opts *clientOptions) *cobra.Command {
	var (
		rows, cols int
		cells      string
		source     string
	)

	cmd := &cobra.Command{
		Use:   "field",
		Short: "Set the grid and start cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := parseCell(source)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *rpc.Client) error {
				err := c.SetFieldRaw(ctx, &rpc.Field{N: rows, M: cols, Grid: cells, Source: rpc.CellOf(src)})
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, "field set")
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "Number of grid rows")
	cmd.Flags().IntVar(&cols, "cols", 0, "Number of grid columns")
	cmd.Flags().StringVar(&cells, "grid", "", "Row-major cells, '0' free and '1' obstacle")
	cmd.Flags().StringVar(&source, "source", "0,0", "Start cell as row,col")
	return cmd
}

func (a *App) newClientMoveCmd(opts *clientOptions) *cobra.Command {
	var targets []string

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Request the next direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := parseCells(targets)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *rpc.Client) error {
				d, err := c.Move(ctx, goals)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s (%d)\n", d, int(d))
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&targets, "target", nil, "Target cell as row,col (repeatable)")
	return cmd
}

func (a *App) newClientStateCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the stored agent state as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *rpc.Client) error {
				st, err := c.State(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			})
		},
	}
}

func (a *App) newClientHealthCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the server's health status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *rpc.Client) error {
				st, err := c.Health(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, st.String())
				return nil
			})
		},
	}
}
