package compileservice

import (
	"context"

	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
)

// grpcHandler is the RegisterService handler object, the same shape as the
// teacher's FunxyGrpcHandler (internal/evaluator/builtins_grpc.go): a
// struct implementing the unary/stream entry points dispatched by the
// hand-built grpc.ServiceDesc below, since there is no generated
// <service>Server interface to implement against.
type grpcHandler struct {
	svc *Service
}

func (h *grpcHandler) compile(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	req := dynamic.NewMessage(schema.CompileRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	root, overlays := decodeCompileRequest(req)

	res, err := h.svc.Compile(ctx, root, overlays)
	if err != nil {
		return nil, err
	}
	return encodeCompileResult(res), nil
}

func (h *grpcHandler) watch(srv interface{}, stream grpc.ServerStream) error {
	req := dynamic.NewMessage(schema.WatchRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	root, overlays, interval := decodeWatchRequest(req)

	return h.svc.Watch(stream.Context(), root, overlays, interval, func(res *CompileResult) {
		// Watch is long-lived; a send failure is dropped here. When the
		// client goes away the stream's context is cancelled and Watch
		// returns.
		_ = stream.SendMsg(encodeCompileResult(res))
	})
}

// NewGRPCServer builds a *grpc.Server exposing Service over the embedded
// storm.compileservice.CompileService schema, registered the dynamic way
// (grpc.ServiceDesc built by hand against *dynamic.Message, no generated
// .pb.go client/server stubs) exactly as the teacher's grpcRegister does
// for scripted services.
func NewGRPCServer(svc *Service) *grpc.Server {
	h := &grpcHandler{svc: svc}

	desc := &grpc.ServiceDesc{
		ServiceName: "storm.compileservice.CompileService",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Compile",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					return srv.(*grpcHandler).compile(ctx, dec)
				},
			},
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "Watch",
				Handler:       func(srv interface{}, stream grpc.ServerStream) error { return srv.(*grpcHandler).watch(srv, stream) },
				ServerStreams: true,
			},
		},
		Metadata: schema.File.GetName(),
	}

	s := grpc.NewServer()
	s.RegisterService(desc, h)
	return s
}
