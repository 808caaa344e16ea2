package ledgergrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/ledgerkit/types"
)

const serviceName = "ledgerkit.v1.Runtime"

// RuntimeServiceServer is the server-side interface of the runtime
// gRPC service.
type RuntimeServiceServer interface {
	Handshake(context.Context, *types.HandshakeRequest) (*types.HandshakeResponse, error)
	CheckTx(context.Context, *CheckTxRequest) (*types.GateVerdict, error)
	ExecuteBlock(context.Context, *types.FinalizedBlock) (*types.BlockOutcome, error)
	Commit(context.Context, *CommitRequest) (*types.CommitResult, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
	AvailableSnapshots(context.Context, *AvailableSnapshotsRequest) (*AvailableSnapshotsResponse, error)
	ExportSnapshot(*ExportSnapshotRequest, grpc.ServerStream) error
	ImportSnapshot(grpc.ServerStream) error
	Simulate(context.Context, *SimulateRequest) (*types.TxOutcome, error)
}

// RegisterRuntimeServiceServer registers srv on a gRPC server.
func RegisterRuntimeServiceServer(s grpc.ServiceRegistrar, srv RuntimeServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unary builds a method handler that decodes a Req and runs it through
// the interceptor chain.
func unary[Req, Resp any](method string, call func(RuntimeServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(RuntimeServiceServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(RuntimeServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

func handlerExportSnapshot(srv any, stream grpc.ServerStream) error {
	req := new(ExportSnapshotRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(RuntimeServiceServer).ExportSnapshot(req, stream)
}

func handlerImportSnapshot(srv any, stream grpc.ServerStream) error {
	return srv.(RuntimeServiceServer).ImportSnapshot(stream)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RuntimeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Handshake", RuntimeServiceServer.Handshake),
		unary("CheckTx", RuntimeServiceServer.CheckTx),
		unary("ExecuteBlock", RuntimeServiceServer.ExecuteBlock),
		unary("Commit", RuntimeServiceServer.Commit),
		unary("Query", RuntimeServiceServer.Query),
		unary("AvailableSnapshots", RuntimeServiceServer.AvailableSnapshots),
		unary("Simulate", RuntimeServiceServer.Simulate),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ExportSnapshot",
			Handler:       handlerExportSnapshot,
			ServerStreams: true,
		},
		{
			StreamName:    "ImportSnapshot",
			Handler:       handlerImportSnapshot,
			ClientStreams: true,
		},
	},
	Metadata: "ledgerkit/v1/runtime.cram",
}
