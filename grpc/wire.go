package ledgergrpc

import "github.com/blockberries/ledgerkit/types"

// Wrapper types for RPCs whose interface signatures don't map to a
// single request or response struct.

// CheckTxRequest wraps the parameters of Lifecycle.CheckTx.
type CheckTxRequest struct {
	Tx      types.Tx             `cramberry:"1"`
	Context types.MempoolContext `cramberry:"2"`
}

// CommitRequest is the empty request for Lifecycle.Commit.
type CommitRequest struct{}

// AvailableSnapshotsRequest is the empty request for
// StateSync.AvailableSnapshots.
type AvailableSnapshotsRequest struct{}

// AvailableSnapshotsResponse wraps the result of
// StateSync.AvailableSnapshots.
type AvailableSnapshotsResponse struct {
	Snapshots []types.SnapshotDescriptor `cramberry:"1"`
}

// ExportSnapshotRequest wraps the parameters of StateSync.ExportSnapshot.
type ExportSnapshotRequest struct {
	Height uint64 `cramberry:"1"`
	Format uint32 `cramberry:"2"`
}

// SnapshotMessage carries either a descriptor or a chunk. Both snapshot
// streams send the descriptor first and chunks after it.
type SnapshotMessage struct {
	Descriptor *types.SnapshotDescriptor `cramberry:"1"`
	Chunk      *types.SnapshotChunk      `cramberry:"2"`
}

// SimulateRequest wraps the parameter of Simulator.Simulate.
type SimulateRequest struct {
	Tx types.Tx `cramberry:"1"`
}
