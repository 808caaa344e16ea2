// Package ledgertest provides test utilities for applications served
// through ledgerkit: a configurable mock, a harness that drives the
// lifecycle through a server.Server, and a compliance suite.
package ledgertest

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/types"
)

var _ ledgerkit.Application = (*MockApp)(nil)

// MockApp is an Application whose every method can be replaced through a
// function field. The defaults keep just enough state to follow the
// block-numbering rule: a block must carry committed height + 1, and a
// restart handshake reports the last committed block.
//
// DeclaredCapabilities is returned by the default handshake, so the mock
// can stand in for runtimes with any mix of optional features.
type MockApp struct {
	DeclaredCapabilities types.Capabilities

	HandshakeFn          func(context.Context, types.HandshakeRequest) (types.HandshakeResponse, error)
	CheckTxFn            func(context.Context, types.Tx, types.MempoolContext) (types.GateVerdict, error)
	ExecuteBlockFn       func(context.Context, types.FinalizedBlock) (types.BlockOutcome, error)
	CommitFn             func(context.Context) (types.CommitResult, error)
	QueryFn              func(context.Context, types.StateQuery) (types.StateQueryResult, error)
	AvailableSnapshotsFn func(context.Context) ([]types.SnapshotDescriptor, error)
	ExportSnapshotFn     func(context.Context, uint64, uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error)
	ImportSnapshotFn     func(context.Context, types.SnapshotDescriptor, <-chan types.SnapshotChunk) (types.ImportResult, error)
	SimulateFn           func(context.Context, types.Tx) (types.TxOutcome, error)

	HandshakeCalls    atomic.Int64
	CheckTxCalls      atomic.Int64
	ExecuteBlockCalls atomic.Int64
	CommitCalls       atomic.Int64
	QueryCalls        atomic.Int64

	mu        sync.Mutex
	committed types.BlockID
	staged    *types.BlockID
}

// mockHash derives a stand-in app hash from a height so that two mocks
// fed the same blocks agree.
func mockHash(height uint64) types.AppHash {
	var h types.AppHash
	h[0] = 0x01
	binary.BigEndian.PutUint64(h[24:], height)
	return h
}

// Height returns the height of the last block committed through the
// default handlers.
func (m *MockApp) Height() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed.Height
}

func (m *MockApp) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	m.HandshakeCalls.Add(1)
	if m.HandshakeFn != nil {
		return m.HandshakeFn(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	resp := types.HandshakeResponse{Capabilities: m.DeclaredCapabilities}
	if m.committed.Height > 0 {
		last := m.committed
		resp.LastBlock = &last
	}
	ah := mockHash(m.committed.Height)
	resp.AppHash = &ah
	return resp, nil
}

func (m *MockApp) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	m.CheckTxCalls.Add(1)
	if m.CheckTxFn != nil {
		return m.CheckTxFn(ctx, tx, mctx)
	}
	return types.GateVerdict{}, nil
}

func (m *MockApp) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	m.ExecuteBlockCalls.Add(1)
	if m.ExecuteBlockFn != nil {
		return m.ExecuteBlockFn(ctx, block)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if want := m.committed.Height + 1; block.Height != want {
		return types.BlockOutcome{}, &ledgerkit.BlockNumberMismatchError{Expected: want, Got: block.Height}
	}
	m.staged = &types.BlockID{Height: block.Height, Hash: types.Hash(mockHash(block.Height))}

	outcome := types.BlockOutcome{
		TxOutcomes: make([]types.TxOutcome, len(block.Txs)),
		AppHash:    mockHash(block.Height),
	}
	for i := range outcome.TxOutcomes {
		outcome.TxOutcomes[i].Index = uint32(i)
	}
	return outcome, nil
}

func (m *MockApp) Commit(ctx context.Context) (types.CommitResult, error) {
	m.CommitCalls.Add(1)
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staged != nil {
		m.committed, m.staged = *m.staged, nil
	}
	return types.CommitResult{}, nil
}

func (m *MockApp) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, req)
	}
	return types.StateQueryResult{Height: m.Height()}, nil
}

func (m *MockApp) AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	if m.AvailableSnapshotsFn != nil {
		return m.AvailableSnapshotsFn(ctx)
	}
	return nil, nil
}

// ExportSnapshot defaults to an empty snapshot of the requested height.
func (m *MockApp) ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	if m.ExportSnapshotFn != nil {
		return m.ExportSnapshotFn(ctx, height, format)
	}
	ch := make(chan types.SnapshotChunk)
	close(ch)
	return ch, &types.SnapshotDescriptor{Height: height, Format: format}, nil
}

// ImportSnapshot defaults to accepting whatever it is sent.
func (m *MockApp) ImportSnapshot(ctx context.Context, desc types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	if m.ImportSnapshotFn != nil {
		return m.ImportSnapshotFn(ctx, desc, chunks)
	}
	for range chunks {
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = types.BlockID{Height: desc.Height, Hash: types.Hash(mockHash(desc.Height))}
	ah := mockHash(desc.Height)
	return types.ImportResult{Status: types.ImportOK, AppHash: &ah}, nil
}

func (m *MockApp) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	if m.SimulateFn != nil {
		return m.SimulateFn(ctx, tx)
	}
	return types.TxOutcome{}, nil
}
