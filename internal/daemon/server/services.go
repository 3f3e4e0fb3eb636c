package server

import (
	"context"
	"errors"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/watchfire-io/nearby/internal/engine"
)

// ============================================================================
// gRPC Service Definition (inline, messages are protobuf well-known types)
// ============================================================================

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "nearby.v1.PresenceService"

// PresenceServiceServer is the server interface for PresenceService. Command
// payloads are the same objects the other channels carry, as Structs.
type PresenceServiceServer interface {
	StartNotification(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	UpdateNotification(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	StartOrUpdateNotification(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	StopNotification(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	CheckOverlayPermission(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	RequestOverlayPermission(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	ShowOverlay(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	UpdateOverlay(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	HideOverlay(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ApplyPresence(context.Context, *structpb.Struct) (*emptypb.Empty, error)

	// Call dispatches {method, arguments} by name.
	Call(context.Context, *structpb.Struct) (*structpb.Value, error)
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// PresenceServiceDesc describes PresenceService for grpc.Server.
var PresenceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PresenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartNotification", PresenceServiceServer.StartNotification),
		unary("UpdateNotification", PresenceServiceServer.UpdateNotification),
		unary("StartOrUpdateNotification", PresenceServiceServer.StartOrUpdateNotification),
		unary("StopNotification", PresenceServiceServer.StopNotification),
		unary("CheckOverlayPermission", PresenceServiceServer.CheckOverlayPermission),
		unary("RequestOverlayPermission", PresenceServiceServer.RequestOverlayPermission),
		unary("ShowOverlay", PresenceServiceServer.ShowOverlay),
		unary("UpdateOverlay", PresenceServiceServer.UpdateOverlay),
		unary("HideOverlay", PresenceServiceServer.HideOverlay),
		unary("ApplyPresence", PresenceServiceServer.ApplyPresence),
		unary("Call", PresenceServiceServer.Call),
		unary("GetStatus", PresenceServiceServer.GetStatus),
		unary("Shutdown", PresenceServiceServer.Shutdown),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nearby/v1/presence.proto",
}

// RegisterPresenceServiceServer registers srv with the gRPC server.
func RegisterPresenceServiceServer(s grpc.ServiceRegistrar, srv PresenceServiceServer) {
	s.RegisterService(&PresenceServiceDesc, srv)
}

// unary builds the method handler the generated code would contain.
func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](name string, call func(PresenceServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PresenceServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PresenceServiceServer), ctx, req.(PReq))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ============================================================================
// Service Implementation
// ============================================================================

type presenceService struct {
	server     *Server
	dispatcher *engine.Dispatcher
}

func (s *presenceService) dispatch(ctx context.Context, method string, args map[string]any) (any, error) {
	result, err := s.dispatcher.Handle(ctx, method, args)
	if err != nil {
		return nil, toStatus(err)
	}
	return result, nil
}

func (s *presenceService) void(ctx context.Context, method string, args map[string]any) (*emptypb.Empty, error) {
	if _, err := s.dispatch(ctx, method, args); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}

func (s *presenceService) flag(ctx context.Context, method string, args map[string]any) (*wrapperspb.BoolValue, error) {
	result, err := s.dispatch(ctx, method, args)
	if err != nil {
		return nil, err
	}
	granted, _ := result.(bool)
	return wrapperspb.Bool(granted), nil
}

func (s *presenceService) StartNotification(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodStartNotification, in.AsMap())
}

func (s *presenceService) UpdateNotification(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodUpdateNotification, in.AsMap())
}

func (s *presenceService) StartOrUpdateNotification(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodStartOrUpdateNotification, in.AsMap())
}

func (s *presenceService) StopNotification(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodStopNotification, nil)
}

func (s *presenceService) CheckOverlayPermission(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return s.flag(ctx, engine.MethodCheckOverlayPermission, nil)
}

func (s *presenceService) RequestOverlayPermission(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return s.flag(ctx, engine.MethodRequestOverlayPermission, nil)
}

func (s *presenceService) ShowOverlay(ctx context.Context, in *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return s.flag(ctx, engine.MethodShowOverlay, in.AsMap())
}

func (s *presenceService) UpdateOverlay(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodUpdateOverlay, in.AsMap())
}

func (s *presenceService) HideOverlay(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodHideOverlay, nil)
}

func (s *presenceService) ApplyPresence(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	return s.void(ctx, engine.MethodApplyPresence, in.AsMap())
}

func (s *presenceService) Call(ctx context.Context, in *structpb.Struct) (*structpb.Value, error) {
	fields := in.GetFields()
	method := fields["method"].GetStringValue()
	if method == "" {
		return nil, status.Error(codes.InvalidArgument, "method is required")
	}
	var args map[string]any
	if a := fields["arguments"].GetStructValue(); a != nil {
		args = a.AsMap()
	}

	result, err := s.dispatch(ctx, method, args)
	if err != nil {
		return nil, err
	}
	v, err := structpb.NewValue(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return v, nil
}

func (s *presenceService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(s.server.Status())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return st, nil
}

func (s *presenceService) Shutdown(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	// Signal shutdown - this will be caught by the main loop
	go func() {
		time.Sleep(100 * time.Millisecond)
		p, _ := os.FindProcess(os.Getpid())
		_ = p.Signal(os.Interrupt)
	}()
	return &emptypb.Empty{}, nil
}

// toStatus maps dispatcher errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotImplemented):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, engine.ErrUnknownSurface):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
