package ledgergrpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/server"
	"github.com/blockberries/ledgerkit/types"
)

var _ ledgerkit.Connection = (*Client)(nil)

// Client implements ledgerkit.Connection for a remote runtime over gRPC
// using cramberry serialization.
type Client struct {
	cc    *grpc.ClientConn
	caps  types.Capabilities
	guard *server.LifecycleGuard
}

// Dial creates a client for the runtime at target. The connection is
// established lazily on the first call.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("ledgergrpc: dial %s: %w", target, err)
	}
	return &Client{
		cc:    cc,
		guard: server.NewLifecycleGuard(),
	}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// invoke runs one unary call and returns the decoded response by value.
func invoke[Req, Resp any](ctx context.Context, cc *grpc.ClientConn, method string, req *Req, opts ...grpc.CallOption) (Resp, error) {
	var resp Resp
	err := cc.Invoke(ctx, fullMethod(method), req, &resp, opts...)
	return resp, err
}

func (c *Client) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	c.guard.AcquireHandshake()
	resp, err := invoke[types.HandshakeRequest, types.HandshakeResponse](ctx, c.cc, "Handshake", &req)
	if err != nil {
		c.guard.FailHandshake()
		return resp, err
	}
	c.caps = resp.Capabilities
	c.guard.CompleteHandshake()
	return resp, nil
}

func (c *Client) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	c.guard.CheckConcurrent()
	return invoke[CheckTxRequest, types.GateVerdict](ctx, c.cc, "CheckTx", &CheckTxRequest{Tx: tx, Context: mctx})
}

// ExecuteBlock returns *ledgerkit.BlockNumberMismatchError and
// *ledgerkit.HaltError as the typed errors the remote runtime raised.
// After a halt the client refuses further blocks, as the server does.
func (c *Client) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	c.guard.AcquireExecute()

	var trailer metadata.MD
	resp, err := invoke[types.FinalizedBlock, types.BlockOutcome](ctx, c.cc, "ExecuteBlock", &block, grpc.Trailer(&trailer))
	if err == nil {
		c.guard.CompleteExecute()
		return resp, nil
	}

	err = fromStatus(err, trailer)
	if _, ok := ledgerkit.IsHalt(err); ok {
		c.guard.Halt()
	} else {
		c.guard.FailExecute()
	}
	return types.BlockOutcome{}, err
}

func (c *Client) Commit(ctx context.Context) (types.CommitResult, error) {
	c.guard.AcquireCommit()
	defer c.guard.CompleteCommit()
	return invoke[CommitRequest, types.CommitResult](ctx, c.cc, "Commit", &CommitRequest{})
}

func (c *Client) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	c.guard.CheckConcurrent()
	return invoke[types.StateQuery, types.StateQueryResult](ctx, c.cc, "Query", &req)
}

func (c *Client) Capabilities() types.Capabilities { return c.caps }

func (c *Client) AsStateSync() ledgerkit.StateSync {
	if c.caps.Has(types.CapStateSync) {
		return &clientStateSync{c}
	}
	return nil
}

func (c *Client) AsSimulator() ledgerkit.Simulator {
	if c.caps.Has(types.CapSimulation) {
		return &clientSimulator{c}
	}
	return nil
}

type clientStateSync struct{ c *Client }

func (w *clientStateSync) AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	resp, err := invoke[AvailableSnapshotsRequest, AvailableSnapshotsResponse](ctx, w.c.cc, "AvailableSnapshots", &AvailableSnapshotsRequest{})
	return resp.Snapshots, err
}

func (w *clientStateSync) ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	stream, err := w.c.cc.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("ExportSnapshot"))
	if err != nil {
		return nil, nil, err
	}
	if err := stream.SendMsg(&ExportSnapshotRequest{Height: height, Format: format}); err != nil {
		return nil, nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, nil, err
	}

	first := new(SnapshotMessage)
	if err := stream.RecvMsg(first); err != nil {
		return nil, nil, err
	}
	if first.Descriptor == nil {
		return nil, nil, fmt.Errorf("ledgergrpc: export stream did not start with a descriptor")
	}

	ch := make(chan types.SnapshotChunk)
	go func() {
		defer close(ch)
		for {
			msg := new(SnapshotMessage)
			if err := stream.RecvMsg(msg); err != nil {
				return
			}
			if msg.Chunk == nil {
				continue
			}
			select {
			case ch <- *msg.Chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, first.Descriptor, nil
}

func (w *clientStateSync) ImportSnapshot(ctx context.Context, desc types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	stream, err := w.c.cc.NewStream(ctx, &serviceDesc.Streams[1], fullMethod("ImportSnapshot"))
	if err != nil {
		return types.ImportResult{}, err
	}

	if err := stream.SendMsg(&SnapshotMessage{Descriptor: &desc}); err != nil {
		return types.ImportResult{}, err
	}
	for chunk := range chunks {
		if err := stream.SendMsg(&SnapshotMessage{Chunk: &chunk}); err != nil {
			if errors.Is(err, io.EOF) {
				// The server ended the stream; its status is returned by RecvMsg.
				break
			}
			return types.ImportResult{}, err
		}
	}
	if err := stream.CloseSend(); err != nil {
		return types.ImportResult{}, err
	}

	result := new(types.ImportResult)
	if err := stream.RecvMsg(result); err != nil {
		return types.ImportResult{}, err
	}
	return *result, nil
}

type clientSimulator struct{ c *Client }

func (w *clientSimulator) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	return invoke[SimulateRequest, types.TxOutcome](ctx, w.c.cc, "Simulate", &SimulateRequest{Tx: tx})
}
