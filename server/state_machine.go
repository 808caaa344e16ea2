// Package server wraps an application with the lifecycle state machine
// and routes capability-gated calls.
package server

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type lifecycleState uint32

const (
	// Waiting for Handshake. Nothing else is allowed.
	stateInit lifecycleState = iota
	// Waiting for the next block. CheckTx, Query and Simulate may run.
	stateReady
	// Inside ExecuteBlock.
	stateExecuting
	// ExecuteBlock succeeded; only Commit may follow.
	stateExecuted
	// Inside Commit.
	stateCommitting
	// ExecuteBlock returned a halt. Reads still work; blocks do not.
	stateHalted
)

var stateNames = [...]string{
	stateInit:       "Init",
	stateReady:      "Ready",
	stateExecuting:  "Executing",
	stateExecuted:   "Executed",
	stateCommitting: "Committing",
	stateHalted:     "Halted",
}

func (s lifecycleState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", s)
}

// LifecycleGuard enforces the call order of the Lifecycle interface.
// Out-of-order calls are engine bugs and panic.
//
// ExecuteBlock and Commit are serialized by seqMu, which is held from
// Acquire* until the matching Complete* or Fail*.
type LifecycleGuard struct {
	state         atomic.Uint32
	seqMu         sync.Mutex
	handshakeDone atomic.Bool
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	return &LifecycleGuard{}
}

func (g *LifecycleGuard) load() lifecycleState {
	return lifecycleState(g.state.Load())
}

// State returns the name of the current state.
func (g *LifecycleGuard) State() string {
	return g.load().String()
}

// acquire takes seqMu and moves from -> to. It panics, naming op, if the
// guard is not in from.
func (g *LifecycleGuard) acquire(op string, from, to lifecycleState) {
	g.seqMu.Lock()
	if cur := g.load(); cur != from {
		g.seqMu.Unlock()
		panic(fmt.Sprintf("ledgerkit: %s called in state %s (expected %s)", op, cur, from))
	}
	g.state.Store(uint32(to))
}

// release moves to the given state and drops seqMu.
func (g *LifecycleGuard) release(to lifecycleState) {
	g.state.Store(uint32(to))
	g.seqMu.Unlock()
}

// AcquireHandshake moves Init -> Ready.
func (g *LifecycleGuard) AcquireHandshake() {
	if !g.state.CompareAndSwap(uint32(stateInit), uint32(stateReady)) {
		panic(fmt.Sprintf("ledgerkit: Handshake called in state %s (expected Init)", g.load()))
	}
}

// CompleteHandshake enables concurrent calls.
func (g *LifecycleGuard) CompleteHandshake() {
	g.handshakeDone.Store(true)
}

// FailHandshake returns to Init so the handshake can be retried.
func (g *LifecycleGuard) FailHandshake() {
	g.state.Store(uint32(stateInit))
}

// AcquireExecute moves Ready -> Executing, waiting for any sequential
// call in progress.
func (g *LifecycleGuard) AcquireExecute() {
	g.acquire("ExecuteBlock", stateReady, stateExecuting)
}

// CompleteExecute moves Executing -> Executed.
func (g *LifecycleGuard) CompleteExecute() {
	g.release(stateExecuted)
}

// FailExecute moves Executing -> Ready. The same height may be retried.
func (g *LifecycleGuard) FailExecute() {
	g.release(stateReady)
}

// Halt moves Executing -> Halted. No further block may be executed.
func (g *LifecycleGuard) Halt() {
	g.release(stateHalted)
}

// AcquireCommit moves Executed -> Committing.
func (g *LifecycleGuard) AcquireCommit() {
	g.acquire("Commit", stateExecuted, stateCommitting)
}

// CompleteCommit moves Committing -> Ready.
func (g *LifecycleGuard) CompleteCommit() {
	g.release(stateReady)
}

// CheckConcurrent panics if Handshake has not completed.
func (g *LifecycleGuard) CheckConcurrent() {
	if !g.handshakeDone.Load() {
		panic("ledgerkit: concurrent call before Handshake completed")
	}
}

// IsReady reports whether the guard is in the Ready state.
func (g *LifecycleGuard) IsReady() bool {
	return g.load() == stateReady
}

// IsHalted reports whether a halt has been recorded.
func (g *LifecycleGuard) IsHalted() bool {
	return g.load() == stateHalted
}
