package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/felixgeelhaar/pathfinder/application"
	"github.com/felixgeelhaar/pathfinder/domain/agent"
	"github.com/felixgeelhaar/pathfinder/domain/store"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/lock"
	"github.com/felixgeelhaar/pathfinder/infrastructure/distributed/pool"
)

// toStatus maps an application error onto a gRPC status.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, agent.ErrNoState):
		code = codes.FailedPrecondition
	case errors.Is(err, lock.ErrTimeout),
		errors.Is(err, lock.ErrLockLost),
		errors.Is(err, store.ErrUnavailable),
		errors.Is(err, store.ErrConnectionFailed),
		errors.Is(err, pool.ErrPoolClosed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, store.ErrOperationTimeout):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
