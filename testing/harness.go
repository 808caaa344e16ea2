package ledgertest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/server"
	"github.com/blockberries/ledgerkit/types"
)

// Harness drives an application through the lifecycle state machine and
// fails the test on any unexpected error. It remembers the last committed
// height so tests can ask for the next block.
type Harness struct {
	t      *testing.T
	ctx    context.Context
	srv    *server.Server
	height uint64
	// height of the last successfully executed block
	executed uint64
}

// NewHarness wraps app in a server whose logs go to the test log.
func NewHarness(t *testing.T, app ledgerkit.Lifecycle) *Harness {
	t.Helper()
	return &Harness{
		t:   t,
		ctx: t.Context(),
		srv: server.New(app, server.WithLogger(zaptest.NewLogger(t))),
	}
}

// must fails the test if err is set and returns v otherwise.
func must[T any](h *Harness, op string, v T, err error) T {
	h.t.Helper()
	if err != nil {
		h.t.Fatalf("%s failed: %v", op, err)
	}
	return v
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Height returns the last height committed through the harness, or the
// height reported by the last handshake.
func (h *Harness) Height() uint64 {
	return h.height
}

// Genesis performs a genesis handshake.
func (h *Harness) Genesis(genesis types.GenesisDoc) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(h.ctx, types.HandshakeRequest{Genesis: &genesis})
	resp = must(h, "Handshake (genesis)", resp, err)
	if genesis.InitialHeight > 1 {
		h.height = genesis.InitialHeight - 1
	}
	return resp
}

// GenesisDefault performs a genesis handshake with DefaultGenesis.
func (h *Harness) GenesisDefault() types.HandshakeResponse {
	h.t.Helper()
	return h.Genesis(DefaultGenesis())
}

// Restart performs a restart handshake at block.
func (h *Harness) Restart(block types.BlockID) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(h.ctx, types.HandshakeRequest{LastCommitted: &block})
	resp = must(h, "Handshake (restart)", resp, err)
	if resp.LastBlock != nil {
		h.height = resp.LastBlock.Height
	}
	return resp
}

// ExecuteBlock executes a block without committing.
func (h *Harness) ExecuteBlock(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome, err := h.srv.ExecuteBlock(h.ctx, block)
	if err != nil {
		h.t.Fatalf("ExecuteBlock (height=%d) failed: %v", block.Height, err)
	}
	if got := len(outcome.TxOutcomes); got != len(block.Txs) {
		h.t.Fatalf("ExecuteBlock (height=%d): %d outcomes for %d txs", block.Height, got, len(block.Txs))
	}
	h.executed = block.Height
	return outcome
}

// Commit commits the last executed block.
func (h *Harness) Commit() types.CommitResult {
	h.t.Helper()
	result, err := h.srv.Commit(h.ctx)
	result = must(h, "Commit", result, err)
	h.height = h.executed
	return result
}

// ExecuteAndCommit executes block, commits it and returns its outcome.
func (h *Harness) ExecuteAndCommit(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome := h.ExecuteBlock(block)
	h.Commit()
	return outcome
}

// NextBlock executes and commits txs at the height after the last one.
func (h *Harness) NextBlock(txs ...types.Tx) types.BlockOutcome {
	h.t.Helper()
	return h.ExecuteAndCommit(MakeBlock(h.height+1, txs...))
}

// RejectBlock executes a block that must fail and returns the error.
func (h *Harness) RejectBlock(block types.FinalizedBlock) error {
	h.t.Helper()
	if _, err := h.srv.ExecuteBlock(h.ctx, block); err != nil {
		return err
	}
	h.t.Fatalf("ExecuteBlock (height=%d) succeeded, expected rejection", block.Height)
	return nil
}

// Simulate dry-runs a transaction.
func (h *Harness) Simulate(tx types.Tx) types.TxOutcome {
	h.t.Helper()
	outcome, err := h.srv.Simulate(h.ctx, tx)
	return must(h, "Simulate", outcome, err)
}

// CheckTx gate-checks a transaction seen for the first time.
func (h *Harness) CheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(h.ctx, tx, types.MempoolFirstSeen)
	return must(h, "CheckTx", verdict, err)
}

// RecheckTx re-validates a previously admitted transaction.
func (h *Harness) RecheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(h.ctx, tx, types.MempoolRevalidation)
	return must(h, "RecheckTx", verdict, err)
}

// Query reads committed state.
func (h *Harness) Query(path types.QueryPath, data []byte) types.StateQueryResult {
	h.t.Helper()
	result, err := h.srv.Query(h.ctx, types.StateQuery{Path: path, Data: data})
	return must(h, "Query", result, err)
}

// MustAcceptTx fails the test unless CheckTx admits tx.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	if v := h.CheckTx(tx); !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d info=%q", v.Code, v.Info)
	}
}

// MustRejectTx fails the test if CheckTx admits tx.
func (h *Harness) MustRejectTx(tx types.Tx) {
	h.t.Helper()
	if h.CheckTx(tx).Accepted() {
		h.t.Fatal("expected tx rejected, got accepted")
	}
}

// RequireCodes fails the test unless the outcome codes match want in order.
func (h *Harness) RequireCodes(outcome types.BlockOutcome, want ...uint32) {
	h.t.Helper()
	if len(outcome.TxOutcomes) != len(want) {
		h.t.Fatalf("expected %d outcomes, got %d", len(want), len(outcome.TxOutcomes))
	}
	for i, o := range outcome.TxOutcomes {
		if o.Code != want[i] {
			h.t.Fatalf("tx %d: expected code %d, got %d (%s)", i, want[i], o.Code, o.Info)
		}
	}
}

var genesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultGenesis returns a minimal genesis document starting at height 1.
func DefaultGenesis() types.GenesisDoc {
	return types.GenesisDoc{
		ChainID:       "test-chain",
		GenesisTime:   types.TimeToTimestamp(genesisTime),
		InitialHeight: 1,
		ConsensusParams: types.ConsensusParams{
			MaxBlockBytes: 1 << 20,
			MaxTxBytes:    64 << 10,
		},
	}
}

// GenesisWithState returns DefaultGenesis carrying appState.
func GenesisWithState(appState []byte) types.GenesisDoc {
	g := DefaultGenesis()
	g.AppState = appState
	return g
}

// MakeBlock creates a block at height. Block times are five seconds
// apart starting at the genesis time.
func MakeBlock(height uint64, txs ...types.Tx) types.FinalizedBlock {
	return types.FinalizedBlock{
		Height: height,
		Time:   types.TimeToTimestamp(genesisTime.Add(time.Duration(height) * 5 * time.Second)),
		Txs:    txs,
	}
}

// MakeEmptyBlock creates a block at height with no transactions.
func MakeEmptyBlock(height uint64) types.FinalizedBlock {
	return MakeBlock(height)
}
