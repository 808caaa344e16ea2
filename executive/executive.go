// Package executive applies blocks to a runtime.
//
// A block runs in two phases. The structural phase checks that the header
// declares the next block number and advances the counter; a mismatch
// rejects the whole block before anything is written. The extrinsic phase
// then applies every extrinsic in order, advancing the caller's nonce
// before dispatch and recording the dispatch result. A failed dispatch
// never stops the block.
package executive

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/support"
)

// System is the part of the counter module the executor drives.
type System[A any, BN support.Counter[BN]] interface {
	CurrentBlock() BN
	NextBlock() (BN, error)
	AdvanceBlock() (BN, error)
	AdvanceNonce(who A)
}

// Outcome is the result of one extrinsic.
type Outcome[A any] struct {
	Index  int
	Caller A
	// Err is the dispatch error, nil on success.
	Err error
}

// OK reports whether the extrinsic dispatched successfully.
func (o Outcome[A]) OK() bool { return o.Err == nil }

// Result describes an executed block.
type Result[A any, BN any] struct {
	BlockNumber BN
	Outcomes    []Outcome[A]
}

// Failed returns the outcomes whose dispatch failed.
func (r Result[A, BN]) Failed() []Outcome[A] {
	var out []Outcome[A]
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Option configures an Executor.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *Metrics
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records block and extrinsic counts on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Executor applies blocks to one runtime. It is not safe for concurrent
// use; the owner serializes calls.
type Executor[A any, BN support.Counter[BN], Call any] struct {
	system  System[A, BN]
	runtime support.Dispatcher[A, Call]
	logger  *zap.Logger
	metrics *Metrics
	halt    *ledgerkit.HaltError
}

// New returns an executor over sys and rt, which normally share the same
// underlying runtime.
func New[A any, BN support.Counter[BN], Call any](sys System[A, BN], rt support.Dispatcher[A, Call], opts ...Option) *Executor[A, BN, Call] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Executor[A, BN, Call]{
		system:  sys,
		runtime: rt,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Halted returns the error that stopped the executor, or nil.
func (e *Executor[A, BN, Call]) Halted() *ledgerkit.HaltError {
	return e.halt
}

// ExecuteBlock applies block.
//
// It returns a *ledgerkit.BlockNumberMismatchError without mutating
// anything when the header does not declare the next block number, and a
// *ledgerkit.HaltError when the block counter cannot advance. Once halted
// the executor rejects every later block with the same error.
func (e *Executor[A, BN, Call]) ExecuteBlock(block support.Block[A, BN, Call]) (Result[A, BN], error) {
	if e.halt != nil {
		e.metrics.blockRejected("halt")
		return Result[A, BN]{}, e.halt
	}

	declared := block.Header.BlockNumber
	next, err := e.system.NextBlock()
	if err != nil {
		current := e.system.CurrentBlock().Uint64()
		e.halt = ledgerkit.NewHaltError(current, err.Error())
		e.logger.Error("executor halted",
			zap.Uint64("block", current),
			zap.Error(err),
		)
		e.metrics.blockRejected("halt")
		return Result[A, BN]{}, e.halt
	}
	if next != declared {
		mismatch := &ledgerkit.BlockNumberMismatchError{
			Expected: next.Uint64(),
			Got:      declared.Uint64(),
		}
		e.logger.Warn("block rejected",
			zap.Uint64("expected", mismatch.Expected),
			zap.Uint64("got", mismatch.Got),
		)
		e.metrics.blockRejected("mismatch")
		return Result[A, BN]{}, mismatch
	}
	if _, err := e.system.AdvanceBlock(); err != nil {
		// NextBlock just succeeded on the same state.
		return Result[A, BN]{}, fmt.Errorf("advance block: %w", err)
	}

	res := Result[A, BN]{
		BlockNumber: declared,
		Outcomes:    make([]Outcome[A], len(block.Extrinsics)),
	}
	for i, xt := range block.Extrinsics {
		res.Outcomes[i] = e.ApplyExtrinsic(i, xt)
	}
	e.metrics.blockExecuted()
	e.logger.Debug("block executed",
		zap.Uint64("block", declared.Uint64()),
		zap.Int("extrinsics", len(block.Extrinsics)),
		zap.Int("failed", len(res.Failed())),
	)
	return res, nil
}

// ApplyExtrinsic advances the caller's nonce and dispatches the call. It
// does not touch the block counter, so it can be used on its own to
// simulate a single extrinsic.
func (e *Executor[A, BN, Call]) ApplyExtrinsic(index int, xt support.Extrinsic[A, Call]) Outcome[A] {
	e.system.AdvanceNonce(xt.Caller)
	err := e.runtime.Dispatch(xt.Caller, xt.Call)
	if err != nil {
		e.logger.Debug("extrinsic failed",
			zap.Int("index", index),
			zap.Any("caller", xt.Caller),
			zap.Error(err),
		)
	}
	e.metrics.extrinsicApplied(err)
	return Outcome[A]{Index: index, Caller: xt.Caller, Err: err}
}
