package ledgergrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/server"
	"github.com/blockberries/ledgerkit/types"
)

var _ RuntimeServiceServer = (*GRPCServer)(nil)

// Option configures a GRPCServer.
type Option func(*GRPCServer)

// WithLogger sets the logger for RPC logging and the wrapped server.
func WithLogger(l *zap.Logger) Option {
	return func(s *GRPCServer) { s.logger = l }
}

// WithMetrics records RPC counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(s *GRPCServer) { s.metrics = m }
}

// GRPCServer serves an application over gRPC. Domain types are
// serialized directly via cramberry.
type GRPCServer struct {
	srv     *server.Server
	logger  *zap.Logger
	metrics *Metrics
}

// NewGRPCServer creates a gRPC server wrapping app.
func NewGRPCServer(app ledgerkit.Lifecycle, opts ...Option) *GRPCServer {
	s := &GRPCServer{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.srv = server.New(app, server.WithLogger(s.logger))
	return s
}

// ServerOptions returns the options that install the logging and
// metrics interceptors and pin the cramberry codec, so callers that omit
// the content-subtype are still decoded. Pass them to grpc.NewServer
// before Register.
func (s *GRPCServer) ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ForceServerCodec(CramberryCodec{}),
		grpc.ChainUnaryInterceptor(s.unaryInterceptor),
		grpc.ChainStreamInterceptor(s.streamInterceptor),
	}
}

// Register adds the runtime service to a gRPC server.
func (s *GRPCServer) Register(gs grpc.ServiceRegistrar) {
	RegisterRuntimeServiceServer(gs, s)
}

// NewServer returns a grpc.Server with the interceptors installed and the
// runtime service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(append(s.ServerOptions(), opts...)...)
	s.Register(gs)
	return gs
}

// Serve serves on lis until the listener fails or the server stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	return s.NewServer(opts...).Serve(lis)
}

// Server returns the underlying lifecycle server.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

func (s *GRPCServer) Handshake(ctx context.Context, req *types.HandshakeRequest) (*types.HandshakeResponse, error) {
	resp, err := s.srv.Handshake(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCServer) CheckTx(ctx context.Context, req *CheckTxRequest) (*types.GateVerdict, error) {
	verdict, err := s.srv.CheckTx(ctx, req.Tx, req.Context)
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (s *GRPCServer) ExecuteBlock(ctx context.Context, block *types.FinalizedBlock) (*types.BlockOutcome, error) {
	outcome, err := s.srv.ExecuteBlock(ctx, *block)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &outcome, nil
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*types.CommitResult, error) {
	result, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	result, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GRPCServer) AvailableSnapshots(ctx context.Context, _ *AvailableSnapshotsRequest) (*AvailableSnapshotsResponse, error) {
	snaps, err := s.srv.AvailableSnapshots(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &AvailableSnapshotsResponse{Snapshots: snaps}, nil
}

func (s *GRPCServer) ExportSnapshot(req *ExportSnapshotRequest, stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	ch, desc, err := s.srv.ExportSnapshot(ctx, req.Height, req.Format)
	if err != nil {
		return toStatus(ctx, err)
	}
	if err := stream.SendMsg(&SnapshotMessage{Descriptor: desc}); err != nil {
		return err
	}
	for chunk := range ch {
		if err := stream.SendMsg(&SnapshotMessage{Chunk: &chunk}); err != nil {
			return err
		}
	}
	return nil
}

func (s *GRPCServer) ImportSnapshot(stream grpc.ServerStream) error {
	first := new(SnapshotMessage)
	if err := stream.RecvMsg(first); err != nil {
		return err
	}
	if first.Descriptor == nil {
		return fmt.Errorf("ledgergrpc: first ImportSnapshot message must contain a descriptor")
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	chunks := make(chan types.SnapshotChunk)
	go func() {
		defer close(chunks)
		for {
			msg := new(SnapshotMessage)
			if err := stream.RecvMsg(msg); err != nil {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("snapshot import stream failed", zap.Error(err))
				}
				return
			}
			if msg.Chunk == nil {
				continue
			}
			select {
			case chunks <- *msg.Chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	result, err := s.srv.ImportSnapshot(ctx, *first.Descriptor, chunks)
	if err != nil {
		return toStatus(ctx, err)
	}
	return stream.SendMsg(&result)
}

func (s *GRPCServer) Simulate(ctx context.Context, req *SimulateRequest) (*types.TxOutcome, error) {
	outcome, err := s.srv.Simulate(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &outcome, nil
}
