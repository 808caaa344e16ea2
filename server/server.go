package server

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/types"
)

// Server wraps an application with lifecycle enforcement and
// capability routing. The engine interacts with the application
// exclusively through this server.
type Server struct {
	app    ledgerkit.Lifecycle
	guard  *LifecycleGuard
	caps   types.Capabilities
	logger *zap.Logger

	// Optional interfaces (nil if not supported).
	stateSync ledgerkit.StateSync
	simulator ledgerkit.Simulator

	// outcome of the executed, not yet committed block
	mu          sync.Mutex
	lastOutcome *types.BlockOutcome
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for capability warnings and
// rejected blocks. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new Server wrapping the given application.
func New(app ledgerkit.Lifecycle, opts ...Option) *Server {
	s := &Server{
		app:   app,
		guard: NewLifecycleGuard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	// Pre-discover optional interfaces (validated after handshake).
	s.stateSync, _ = app.(ledgerkit.StateSync)
	s.simulator, _ = app.(ledgerkit.Simulator)
	return s
}

// Handshake performs the startup handshake, validates capability
// declarations, and transitions the state machine to Ready.
func (s *Server) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	s.guard.AcquireHandshake()

	resp, err := s.app.Handshake(ctx, req)
	if err != nil {
		s.guard.FailHandshake()
		return resp, err
	}

	if err := discoverCapabilities(s.logger, s.app, resp.Capabilities); err != nil {
		s.guard.FailHandshake()
		return resp, err
	}

	s.caps = resp.Capabilities
	s.guard.CompleteHandshake()
	return resp, nil
}

// CheckTx gate-checks a transaction. Safe for concurrent use.
func (s *Server) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	s.guard.CheckConcurrent()
	return s.app.CheckTx(ctx, tx, mctx)
}

// ExecuteBlock executes a block. On a rejection the guard returns to
// Ready so the same height can be retried; a halt is final.
func (s *Server) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	s.guard.AcquireExecute()

	outcome, err := s.app.ExecuteBlock(ctx, block)
	if err != nil {
		if h, ok := ledgerkit.IsHalt(err); ok {
			s.guard.Halt()
			s.logger.Error("application halted",
				zap.Uint64("height", h.Height),
				zap.String("reason", h.Reason),
			)
		} else {
			s.guard.FailExecute()
			s.logger.Warn("block rejected",
				zap.Uint64("height", block.Height),
				zap.Error(err),
			)
		}
		return outcome, err
	}

	s.mu.Lock()
	s.lastOutcome = &outcome
	s.mu.Unlock()

	s.guard.CompleteExecute()
	return outcome, nil
}

// Commit makes the last executed block's state current.
func (s *Server) Commit(ctx context.Context) (types.CommitResult, error) {
	s.guard.AcquireCommit()

	result, err := s.app.Commit(ctx)

	s.mu.Lock()
	s.lastOutcome = nil
	s.mu.Unlock()

	s.guard.CompleteCommit()
	return result, err
}

// Query reads application state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	s.guard.CheckConcurrent()
	return s.app.Query(ctx, req)
}

// Capabilities returns the application's declared capabilities.
// Only valid after Handshake completes.
func (s *Server) Capabilities() types.Capabilities {
	return s.caps
}

func unavailable(c types.Capabilities) error {
	return fmt.Errorf("%w: %s", ledgerkit.ErrCapabilityUnavailable, c)
}

// AvailableSnapshots lists the application's snapshots. Like every
// StateSync method it fails with ledgerkit.ErrCapabilityUnavailable
// unless CapStateSync was declared.
func (s *Server) AvailableSnapshots(ctx context.Context) ([]types.SnapshotDescriptor, error) {
	ss := s.AsStateSync()
	if ss == nil {
		return nil, unavailable(types.CapStateSync)
	}
	return ss.AvailableSnapshots(ctx)
}

func (s *Server) ExportSnapshot(ctx context.Context, height uint64, format uint32) (<-chan types.SnapshotChunk, *types.SnapshotDescriptor, error) {
	ss := s.AsStateSync()
	if ss == nil {
		return nil, nil, unavailable(types.CapStateSync)
	}
	return ss.ExportSnapshot(ctx, height, format)
}

func (s *Server) ImportSnapshot(ctx context.Context, desc types.SnapshotDescriptor, chunks <-chan types.SnapshotChunk) (types.ImportResult, error) {
	ss := s.AsStateSync()
	if ss == nil {
		return types.ImportResult{}, unavailable(types.CapStateSync)
	}
	return ss.ImportSnapshot(ctx, desc, chunks)
}

// Simulate dry-runs tx. Safe for concurrent use after handshake.
func (s *Server) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	sim := s.AsSimulator()
	if sim == nil {
		return types.TxOutcome{}, unavailable(types.CapSimulation)
	}
	s.guard.CheckConcurrent()
	return sim.Simulate(ctx, tx)
}

// AsStateSync returns the StateSync interface or nil.
func (s *Server) AsStateSync() ledgerkit.StateSync {
	if s.caps.Has(types.CapStateSync) {
		return s.stateSync
	}
	return nil
}

// AsSimulator returns the Simulator interface or nil.
func (s *Server) AsSimulator() ledgerkit.Simulator {
	if s.caps.Has(types.CapSimulation) {
		return s.simulator
	}
	return nil
}

// LastOutcome returns the most recent BlockOutcome (between
// ExecuteBlock and Commit). Returns nil if no outcome is pending.
func (s *Server) LastOutcome() *types.BlockOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }

// discoverCapabilities checks which optional interfaces the app
// implements and verifies consistency with declared capabilities.
func discoverCapabilities(logger *zap.Logger, app ledgerkit.Lifecycle, declared types.Capabilities) error {
	if u := declared.Unknown(); u != 0 {
		return fmt.Errorf("ledgerkit: app declared unknown capabilities %s", u)
	}

	_, hasStateSync := app.(ledgerkit.StateSync)
	_, hasSimulator := app.(ledgerkit.Simulator)

	if declared.Has(types.CapStateSync) && !hasStateSync {
		return fmt.Errorf("ledgerkit: app declared CapStateSync but does not implement StateSync")
	}
	if declared.Has(types.CapSimulation) && !hasSimulator {
		return fmt.Errorf("ledgerkit: app declared CapSimulation but does not implement Simulator")
	}

	// Warn (but don't error) if the app implements an interface but didn't declare it.
	if !declared.Has(types.CapStateSync) && hasStateSync {
		logger.Warn("app implements StateSync but did not declare it; capability will not be used")
	}
	if !declared.Has(types.CapSimulation) && hasSimulator {
		logger.Warn("app implements Simulator but did not declare it; capability will not be used")
	}

	return nil
}
