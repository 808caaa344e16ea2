// Package app exposes the ledger runtime through the engine-facing
// Lifecycle boundary, with the StateSync and Simulation capabilities.
//
// Transactions are cramberry-encoded TxEnvelope values. Blocks are
// applied to a staged copy of the committed runtime and swapped in on
// Commit, so a rejected block leaves committed state untouched.
package app

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/balances"
	"github.com/blockberries/ledgerkit/chain"
	"github.com/blockberries/ledgerkit/claims"
	"github.com/blockberries/ledgerkit/executive"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/types"
)

// Query paths.
const (
	PathBalance types.QueryPath = "/balance"
	PathNonce   types.QueryPath = "/nonce"
	PathClaim   types.QueryPath = "/claim"
	PathBlock   types.QueryPath = "/block"
)

// Compile-time interface checks.
var (
	_ ledgerkit.Lifecycle = (*App)(nil)
	_ ledgerkit.StateSync = (*App)(nil)
	_ ledgerkit.Simulator = (*App)(nil)
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger passed to every executor.
func WithLogger(l *zap.Logger) Option {
	return func(app *App) { app.logger = l }
}

// WithMetrics records executed blocks on m. Simulations are not recorded.
func WithMetrics(m *executive.Metrics) Option {
	return func(app *App) { app.metrics = m }
}

// WithMaxTxBytes sets the CheckTx size gate used until a genesis
// handshake supplies ConsensusParams.MaxTxBytes.
func WithMaxTxBytes(n uint64) Option {
	return func(app *App) { app.maxTxBytes = n }
}

// App runs the ledger runtime behind the Lifecycle interface.
type App struct {
	logger  *zap.Logger
	metrics *executive.Metrics

	mu         sync.RWMutex
	current    *chain.Runtime
	appHash    types.AppHash
	maxTxBytes uint64
	halt       *ledgerkit.HaltError

	// Staging area (between ExecuteBlock and Commit).
	staged     *chain.Runtime
	stagedHash types.AppHash
}

// New creates an application with empty state.
func New(opts ...Option) *App {
	app := &App{current: chain.New()}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = zap.NewNop()
	}
	h, err := appHash(app.current)
	if err != nil {
		panic(err) // an empty runtime always encodes
	}
	app.appHash = h
	return app
}

func (app *App) capabilities() types.Capabilities {
	return types.CapStateSync | types.CapSimulation
}

// height is the committed block number. Callers hold app.mu.
func (app *App) height() uint64 {
	return app.current.System.CurrentBlock().Uint64()
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (app *App) Handshake(_ context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if req.IsGenesis() {
		if req.Genesis != nil {
			rt, err := genesisRuntime(req.Genesis.AppState, req.Genesis.InitialHeight)
			if err != nil {
				return types.HandshakeResponse{}, err
			}
			h, err := appHash(rt)
			if err != nil {
				return types.HandshakeResponse{}, err
			}
			app.current, app.appHash = rt, h
			if req.Genesis.ConsensusParams.MaxTxBytes > 0 {
				app.maxTxBytes = req.Genesis.ConsensusParams.MaxTxBytes
			}
			app.logger.Info("genesis applied",
				zap.String("chain_id", req.Genesis.ChainID),
				zap.Int("accounts", len(rt.Balances.Accounts())),
			)
		}
		h := app.appHash
		return types.HandshakeResponse{
			AppHash:      &h,
			Capabilities: app.capabilities(),
		}, nil
	}

	// Restart: report in-memory state.
	h := app.appHash
	return types.HandshakeResponse{
		LastBlock:    &types.BlockID{Height: app.height()},
		AppHash:      &h,
		Capabilities: app.capabilities(),
	}, nil
}

func (app *App) CheckTx(_ context.Context, tx types.Tx, _ types.MempoolContext) (types.GateVerdict, error) {
	app.mu.RLock()
	limit := app.maxTxBytes
	app.mu.RUnlock()

	if limit > 0 && uint64(len(tx)) > limit {
		return types.GateVerdict{
			Code: uint32(chain.CodeMalformed),
			Info: fmt.Sprintf("tx size %d exceeds limit %d", len(tx), limit),
		}, nil
	}
	xt, err := DecodeTx(tx)
	if err != nil {
		return types.GateVerdict{Code: uint32(chain.CodeMalformed), Info: err.Error()}, nil
	}
	return types.GateVerdict{Code: 0, Sender: xt.Caller}, nil
}

func (app *App) ExecuteBlock(_ context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	app.mu.RLock()
	halt := app.halt
	rt := app.current.Clone()
	app.mu.RUnlock()

	if halt != nil {
		return types.BlockOutcome{}, halt
	}

	bn, fits := num.U32FromUint64(block.Height)
	if !fits {
		// No u32 header can match; report it the way the executor would.
		if next, err := rt.System.NextBlock(); err == nil {
			return types.BlockOutcome{}, &ledgerkit.BlockNumberMismatchError{
				Expected: next.Uint64(),
				Got:      block.Height,
			}
		}
	}

	outcomes := make([]types.TxOutcome, len(block.Txs))
	xts := make([]chain.Extrinsic, 0, len(block.Txs))
	positions := make([]uint32, 0, len(block.Txs))
	for i, tx := range block.Txs {
		xt, err := DecodeTx(tx)
		if err != nil {
			outcomes[i] = types.TxOutcome{
				Index: uint32(i),
				Code:  uint32(chain.CodeMalformed),
				Info:  err.Error(),
			}
			continue
		}
		xts = append(xts, xt)
		positions = append(positions, uint32(i))
	}

	exec := chain.NewExecutor(rt,
		executive.WithLogger(app.logger),
		executive.WithMetrics(app.metrics),
	)
	res, err := exec.ExecuteBlock(chain.NewBlock(uint32(bn), xts...))
	if err != nil {
		if h, ok := ledgerkit.IsHalt(err); ok {
			app.mu.Lock()
			app.halt = h
			app.mu.Unlock()
		}
		return types.BlockOutcome{}, err
	}

	for _, o := range res.Outcomes {
		i := positions[o.Index]
		outcomes[i] = txOutcome(rt, i, xts[o.Index], o.Err)
	}

	h, err := appHash(rt)
	if err != nil {
		return types.BlockOutcome{}, err
	}

	app.mu.Lock()
	app.staged = rt
	app.stagedHash = h
	app.mu.Unlock()

	return types.BlockOutcome{
		TxOutcomes: outcomes,
		BlockEvents: []types.Event{types.NewEvent("block",
			types.IndexedAttr("number", bn.String()),
			types.Attr("failed", strconv.Itoa(len(res.Failed()))),
		)},
		AppHash: h,
	}, nil
}

func (app *App) Commit(_ context.Context) (types.CommitResult, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.staged == nil {
		return types.CommitResult{}, errors.New("commit: no executed block")
	}
	app.current = app.staged
	app.appHash = app.stagedHash
	app.staged = nil

	return types.CommitResult{RetainHeight: app.height()}, nil
}

func (app *App) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	rt := app.current
	height := app.height()
	if req.Height != nil && *req.Height != height {
		return types.StateQueryResult{
			Code:   1,
			Info:   fmt.Sprintf("historical queries not supported (current: %d)", height),
			Height: height,
		}, nil
	}

	switch req.Path {
	case PathBalance:
		v := rt.Balances.BalanceOf(string(req.Data)).Bytes32()
		return types.StateQueryResult{Key: req.Data, Value: v[:], Height: height}, nil

	case PathNonce:
		n := rt.System.Nonce(string(req.Data))
		return types.StateQueryResult{Key: req.Data, Value: encodeUint64(n.Uint64()), Height: height}, nil

	case PathClaim:
		owner, ok := rt.Claims.ClaimOwner(string(req.Data))
		if !ok {
			return types.StateQueryResult{
				Code:   uint32(chain.CodeClaimNotFound),
				Key:    req.Data,
				Info:   claims.ErrClaimNotFound.Error(),
				Height: height,
			}, nil
		}
		return types.StateQueryResult{Key: req.Data, Value: []byte(owner), Height: height}, nil

	case PathBlock:
		return types.StateQueryResult{Value: encodeUint64(height), Height: height}, nil

	default:
		return types.StateQueryResult{Code: 1, Info: "unknown query path", Height: height}, nil
	}
}

// ---------------------------------------------------------------------------
// Simulator
// ---------------------------------------------------------------------------

// Simulate applies tx to a copy of committed state. The block counter is
// not advanced.
func (app *App) Simulate(_ context.Context, tx types.Tx) (types.TxOutcome, error) {
	xt, err := DecodeTx(tx)
	if err != nil {
		return types.TxOutcome{Code: uint32(chain.CodeMalformed), Info: err.Error()}, nil
	}

	app.mu.RLock()
	rt := app.current.Clone()
	app.mu.RUnlock()

	o := chain.NewExecutor(rt, executive.WithLogger(app.logger)).ApplyExtrinsic(0, xt)
	return txOutcome(rt, 0, xt, o.Err), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// txOutcome reports one applied extrinsic. Data is the caller's nonce
// after the extrinsic.
func txOutcome(rt *chain.Runtime, index uint32, xt chain.Extrinsic, err error) types.TxOutcome {
	out := types.TxOutcome{
		Index: index,
		Code:  uint32(chain.CodeOf(err)),
		Data:  encodeUint64(rt.System.Nonce(xt.Caller).Uint64()),
	}
	if err != nil {
		out.Info = err.Error()
		return out
	}
	out.Events = events(xt)
	return out
}

func events(xt chain.Extrinsic) []types.Event {
	switch c := xt.Call.(type) {
	case chain.BalancesCall:
		if t, ok := c.Call.(balances.Transfer[chain.AccountID, chain.Balance]); ok {
			return []types.Event{types.NewEvent("transfer",
				types.IndexedAttr("from", xt.Caller),
				types.IndexedAttr("to", t.To),
				types.Attr("amount", t.Amount.String()),
			)}
		}
	case chain.ClaimsCall:
		switch cc := c.Call.(type) {
		case claims.CreateClaim[chain.Content]:
			return []types.Event{claimEvent("claim_created", xt.Caller, cc.Claim)}
		case claims.RevokeClaim[chain.Content]:
			return []types.Event{claimEvent("claim_revoked", xt.Caller, cc.Claim)}
		}
	}
	return nil
}

func claimEvent(kind, owner, claim string) types.Event {
	return types.NewEvent(kind,
		types.IndexedAttr("owner", owner),
		types.IndexedAttr("claim", claim),
	)
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
