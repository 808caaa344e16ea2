// Package system implements the counter module: the global block number
// and a per-account nonce. The nonce is an audit counter; it is not
// checked against replay.
package system

import (
	"cmp"
	"errors"
	"maps"
	"slices"

	"github.com/blockberries/ledgerkit/support"
)

// ErrBlockNumberOverflow is returned when the block counter cannot be
// advanced. The executor treats it as fatal.
var ErrBlockNumberOverflow = errors.New("system: block number overflow")

// Module owns the block counter and the nonce map.
type Module[A cmp.Ordered, BN support.Counter[BN], N support.Counter[N]] struct {
	blockNumber BN
	nonces      map[A]N
}

// New returns a module at block zero with no nonces recorded.
func New[A cmp.Ordered, BN support.Counter[BN], N support.Counter[N]]() *Module[A, BN, N] {
	return &Module[A, BN, N]{
		nonces: make(map[A]N),
	}
}

// Restore rebuilds a module from exported state.
func Restore[A cmp.Ordered, BN support.Counter[BN], N support.Counter[N]](bn BN, nonces map[A]N) *Module[A, BN, N] {
	m := New[A, BN, N]()
	m.blockNumber = bn
	for who, n := range nonces {
		if !n.IsZero() {
			m.nonces[who] = n
		}
	}
	return m
}

// CurrentBlock returns the current block number.
func (m *Module[A, BN, N]) CurrentBlock() BN {
	return m.blockNumber
}

// NextBlock returns the value AdvanceBlock would store, without storing it.
func (m *Module[A, BN, N]) NextBlock() (BN, error) {
	next, ok := m.blockNumber.CheckedAdd(support.One[BN]())
	if !ok {
		return m.blockNumber, ErrBlockNumberOverflow
	}
	return next, nil
}

// AdvanceBlock increments the block number by exactly one.
func (m *Module[A, BN, N]) AdvanceBlock() (BN, error) {
	next, err := m.NextBlock()
	if err != nil {
		return next, err
	}
	m.blockNumber = next
	return next, nil
}

// AdvanceNonce increments who's nonce by one. A nonce already at its
// maximum stays there.
func (m *Module[A, BN, N]) AdvanceNonce(who A) {
	next, ok := m.nonces[who].CheckedAdd(support.One[N]())
	if !ok {
		return
	}
	m.nonces[who] = next
}

// Nonce returns who's nonce, zero if never advanced.
func (m *Module[A, BN, N]) Nonce(who A) N {
	return m.nonces[who]
}

// Nonces returns the accounts with a non-zero nonce in ascending order.
func (m *Module[A, BN, N]) Nonces() []A {
	return slices.Sorted(maps.Keys(m.nonces))
}

// Clone returns an independent copy.
func (m *Module[A, BN, N]) Clone() *Module[A, BN, N] {
	return &Module[A, BN, N]{
		blockNumber: m.blockNumber,
		nonces:      maps.Clone(m.nonces),
	}
}
