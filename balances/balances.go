// Package balances implements the ledger module: a per-account balance map
// mutated only through checked arithmetic.
package balances

import (
	"cmp"
	"errors"
	"maps"
	"slices"

	"github.com/blockberries/ledgerkit/support"
)

var (
	// ErrInsufficientBalance is returned when the caller cannot cover the
	// transferred amount.
	ErrInsufficientBalance = errors.New("balances: insufficient balance")
	// ErrBalanceOverflow is returned when crediting the recipient would
	// overflow the balance type.
	ErrBalanceOverflow = errors.New("balances: balance overflow")
)

// Call is the set of intents the ledger module accepts. The only
// implementation is Transfer.
type Call[A cmp.Ordered, B support.Numeric[B]] interface {
	isBalancesCall()
}

// Transfer moves Amount from the caller to To.
type Transfer[A cmp.Ordered, B support.Numeric[B]] struct {
	To     A
	Amount B
}

func (Transfer[A, B]) isBalancesCall() {}

// Module owns the balance map. Absent entries read as zero and zero
// balances are not stored, so two ledgers holding the same balances have
// identical contents.
type Module[A cmp.Ordered, B support.Numeric[B]] struct {
	balances map[A]B
}

// New returns an empty ledger.
func New[A cmp.Ordered, B support.Numeric[B]]() *Module[A, B] {
	return &Module[A, B]{balances: make(map[A]B)}
}

// SetBalance overwrites who's balance.
func (m *Module[A, B]) SetBalance(who A, amount B) {
	if amount.IsZero() {
		delete(m.balances, who)
		return
	}
	m.balances[who] = amount
}

// BalanceOf returns who's balance, zero if absent.
func (m *Module[A, B]) BalanceOf(who A) B {
	return m.balances[who]
}

// Transfer moves amount from caller to to. Both balances are written or
// neither is.
func (m *Module[A, B]) Transfer(caller, to A, amount B) error {
	callerBalance := m.BalanceOf(caller)
	toBalance := m.BalanceOf(to)

	newCallerBalance, ok := callerBalance.CheckedSub(amount)
	if !ok {
		return ErrInsufficientBalance
	}
	newToBalance, ok := toBalance.CheckedAdd(amount)
	if !ok {
		return ErrBalanceOverflow
	}

	// Both new values were derived from the same pre-read when caller == to;
	// writing them would credit the account with amount out of thin air.
	if caller == to {
		return nil
	}

	m.SetBalance(caller, newCallerBalance)
	m.SetBalance(to, newToBalance)
	return nil
}

// Dispatch implements support.Dispatcher.
func (m *Module[A, B]) Dispatch(caller A, call Call[A, B]) error {
	switch c := call.(type) {
	case Transfer[A, B]:
		return m.Transfer(caller, c.To, c.Amount)
	default:
		return support.UnknownCallError("balances", call)
	}
}

// Accounts returns every account with a non-zero balance in ascending order.
func (m *Module[A, B]) Accounts() []A {
	return slices.Sorted(maps.Keys(m.balances))
}

// TotalIssuance sums every balance. The boolean is false if the sum does
// not fit in B.
func (m *Module[A, B]) TotalIssuance() (B, bool) {
	var total B
	for _, who := range m.Accounts() {
		var ok bool
		total, ok = total.CheckedAdd(m.balances[who])
		if !ok {
			return total, false
		}
	}
	return total, true
}

// Clone returns an independent copy.
func (m *Module[A, B]) Clone() *Module[A, B] {
	return &Module[A, B]{balances: maps.Clone(m.balances)}
}
