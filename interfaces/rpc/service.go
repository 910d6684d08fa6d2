package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Fully qualified method names.
const (
	ServiceName    = "pathfinder.PathFinder"
	MethodSetField = "/pathfinder.PathFinder/SetField"
	MethodMoving   = "/pathfinder.PathFinder/Moving"
	MethodGetState = "/pathfinder.PathFinder/GetState"
)

// PathFinderServer is the server API of the PathFinder service.
type PathFinderServer interface {
	SetField(context.Context, *Field) (*Empty, error)
	Moving(context.Context, *MoveRequest) (*MoveResponse, error)
	GetState(context.Context, *Empty) (*StateResponse, error)
}

// RegisterPathFinderServer registers srv on s.
func RegisterPathFinderServer(s grpc.ServiceRegistrar, srv PathFinderServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the PathFinder service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PathFinderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetField", Handler: setFieldHandler},
		{MethodName: "Moving", Handler: movingHandler},
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pathfinder.proto",
}

func setFieldHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Field)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathFinderServer).SetField(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSetField}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PathFinderServer).SetField(ctx, req.(*Field))
	}
	return interceptor(ctx, in, info, handler)
}

func movingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(MoveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathFinderServer).Moving(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodMoving}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PathFinderServer).Moving(ctx, req.(*MoveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathFinderServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetState}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PathFinderServer).GetState(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}
