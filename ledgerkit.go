// Package ledgerkit defines the boundary between a block-producing engine
// and the ledger runtime.
//
// The core [Lifecycle] interface is required. [StateSync] and [Simulator]
// are optional capabilities discovered via Go type assertion at
// handshake time.
package ledgerkit

import (
	"context"

	"github.com/blockberries/ledgerkit/types"
)

// Lifecycle is the core interface every runtime application implements.
// It covers the happy path from boot to steady-state block execution.
//
// The engine guarantees the following call order:
//  1. Handshake is called exactly once, before anything else.
//  2. ExecuteBlock(h) is called for each height h until it succeeds.
//  3. Commit is called exactly once after each successful ExecuteBlock.
//  4. CheckTx, Query may be called concurrently at any time after Handshake.
type Lifecycle interface {
	// Handshake is called once on every startup.
	//
	// The engine communicates the last block it committed. If LastCommitted
	// is nil, this is a fresh genesis and Genesis will be populated.
	Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error)

	// CheckTx gate-checks a transaction before it is handed to a block
	// producer. It decodes and size-checks; it does not execute.
	//
	// This method MUST be safe for concurrent use.
	CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error)

	// ExecuteBlock applies a block's extrinsics in order and returns one
	// outcome per transaction.
	//
	// A structural failure (block number mismatch) is returned as an error
	// and leaves state untouched, so the engine may retry with a corrected
	// block. A *HaltError means execution cannot continue at all.
	ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error)

	// Commit makes the state produced by the last ExecuteBlock visible to
	// queries and to the next block.
	Commit(ctx context.Context) (types.CommitResult, error)

	// Query reads committed state.
	//
	// This method MUST be safe for concurrent use, including concurrent
	// with ExecuteBlock.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// StateSync enables snapshot-based state synchronization.
//
// Declared via: types.CapStateSync in HandshakeResponse.Capabilities
type StateSync interface {
	// AvailableSnapshots lists snapshots the application can export.
	AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error)

	// ExportSnapshot exports a snapshot as a pull-based stream of chunks.
	// The channel is closed after the last chunk.
	ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error)

	// ImportSnapshot rebuilds state from a push-based stream of chunks and
	// returns the resulting AppHash.
	ImportSnapshot(ctx context.Context, descriptor types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error)
}

// Simulator dry-runs a single transaction.
//
// Declared via: types.CapSimulation in HandshakeResponse.Capabilities
type Simulator interface {
	// Simulate applies tx against a copy of committed state and discards
	// the copy. The caller's nonce advance is part of the simulated effect.
	//
	// This method MUST be safe for concurrent use.
	Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error)
}

// Application embeds every interface in this package.
type Application interface {
	Lifecycle
	StateSync
	Simulator
}

// Connection is a transport-agnostic connection to an application. Both
// gRPC clients and in-process adapters implement it.
type Connection interface {
	Lifecycle

	// Capabilities returns the capabilities discovered at handshake.
	// Must only be called after Handshake completes.
	Capabilities() types.Capabilities

	// AsStateSync returns the StateSync interface if available.
	AsStateSync() StateSync

	// AsSimulator returns the Simulator interface if available.
	AsSimulator() Simulator

	// Close terminates the connection.
	Close() error
}
