package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/proto"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/grid"
)

// Client calls the PathFinder service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client for addr. The connection is plaintext unless
// opts say otherwise.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// SetField stores a new field.
func (c *Client) SetField(ctx context.Context, g grid.Grid, source grid.Position) error {
	in := &Field{N: g.Rows(), M: g.Cols(), Grid: g.String(), Source: CellOf(source)}
	return c.conn.Invoke(ctx, MethodSetField, in, &Empty{})
}

// SetFieldRaw sends a field message as given, without local validation.
func (c *Client) SetFieldRaw(ctx context.Context, in *Field) error {
	return c.conn.Invoke(ctx, MethodSetField, in, &Empty{})
}

// Move requests the next direction toward the nearest target.
func (c *Client) Move(ctx context.Context, targets []grid.Position) (agent.Direction, error) {
	in := &MoveRequest{Targets: make([]Cell, 0, len(targets))}
	for _, t := range targets {
		in.Targets = append(in.Targets, CellOf(t))
	}

	out := &MoveResponse{}
	if err := c.conn.Invoke(ctx, MethodMoving, in, out); err != nil {
		return agent.Error, err
	}
	return out.Direction, nil
}

// State fetches the stored agent state.
func (c *Client) State(ctx context.Context) (*StateResponse, error) {
	out := &StateResponse{}
	if err := c.conn.Invoke(ctx, MethodGetState, &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports the serving status of the PathFinder service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx,
		&healthpb.HealthCheckRequest{Service: ServiceName},
		grpc.CallContentSubtype(proto.Name),
	)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
