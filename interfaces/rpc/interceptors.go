package rpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/felixgeelhaar/pathfinder/infrastructure/logging"
)

// RequestIDHeader carries the request ID in metadata.
const RequestIDHeader = "x-request-id"

// RecoveryInterceptor turns a handler panic into an Internal error.
func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error().
					Add(logging.Method(info.FullMethod)).
					Add(logging.Str("panic", fmt.Sprint(r))).
					Add(logging.Str("stack", string(debug.Stack()))).
					Msg("handler panicked")
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every call with its method, status code and
// duration. The request ID is taken from metadata or generated and echoed
// back in the response header.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		resp, err := handler(ctx, req)

		code := status.Code(err)
		event := logging.Info()
		switch code {
		case codes.OK, codes.InvalidArgument, codes.FailedPrecondition:
		case codes.Internal, codes.Unknown:
			event = logging.Error()
		default:
			event = logging.Warn()
		}
		event.
			Add(logging.Method(info.FullMethod)).
			Add(logging.RequestID(requestID)).
			Add(logging.Code(code.String())).
			Add(logging.Duration(time.Since(start))).
			Add(logging.ErrorField(err)).
			Msg("rpc")
		return resp, err
	}
}
