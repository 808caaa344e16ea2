package balances

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/support"
)

type ledger = Module[string, num.U256]

func newLedger() *ledger { return New[string, num.U256]() }

func u(v uint64) num.U256 { return num.U256From64(v) }

func TestBalances_Init(t *testing.T) {
	b := newLedger()

	assert.Equal(t, u(0), b.BalanceOf("alice"))
	b.SetBalance("alice", u(100))
	assert.Equal(t, u(100), b.BalanceOf("alice"))
	assert.Equal(t, u(0), b.BalanceOf("bob"))
}

func TestBalances_SetZeroRemovesEntry(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(5))
	b.SetBalance("alice", u(0))

	assert.Equal(t, u(0), b.BalanceOf("alice"))
	assert.Empty(t, b.Accounts())
}

func TestBalances_Transfer(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(100))

	require.NoError(t, b.Transfer("alice", "bob", u(90)))
	assert.Equal(t, u(10), b.BalanceOf("alice"))
	assert.Equal(t, u(90), b.BalanceOf("bob"))
}

func TestBalances_TransferPreservesSum(t *testing.T) {
	cases := []struct {
		name       string
		alice, bob uint64
		amount     uint64
	}{
		{"zero amount", 10, 0, 0},
		{"partial", 100, 7, 33},
		{"entire balance", 50, 50, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newLedger()
			b.SetBalance("alice", u(tc.alice))
			b.SetBalance("bob", u(tc.bob))

			require.NoError(t, b.Transfer("alice", "bob", u(tc.amount)))
			assert.Equal(t, u(tc.alice-tc.amount), b.BalanceOf("alice"))
			assert.Equal(t, u(tc.bob+tc.amount), b.BalanceOf("bob"))

			total, ok := b.TotalIssuance()
			require.True(t, ok)
			assert.Equal(t, u(tc.alice+tc.bob), total)
		})
	}
}

func TestBalances_InsufficientBalance(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(10))
	b.SetBalance("bob", u(3))

	err := b.Transfer("alice", "bob", u(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, u(10), b.BalanceOf("alice"))
	assert.Equal(t, u(3), b.BalanceOf("bob"))
}

func TestBalances_Overflow(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(10))
	b.SetBalance("bob", num.MaxU256())

	err := b.Transfer("alice", "bob", u(1))
	require.ErrorIs(t, err, ErrBalanceOverflow)
	assert.Equal(t, u(10), b.BalanceOf("alice"), "caller must not be debited on overflow")
	assert.Equal(t, num.MaxU256(), b.BalanceOf("bob"))
}

func TestBalances_SelfTransferIsNetZero(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(10))

	require.NoError(t, b.Transfer("alice", "alice", u(4)))
	assert.Equal(t, u(10), b.BalanceOf("alice"))

	err := b.Transfer("alice", "alice", u(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, u(10), b.BalanceOf("alice"))
}

func TestBalances_Dispatch(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(100))

	var d support.Dispatcher[string, Call[string, num.U256]] = b
	require.NoError(t, d.Dispatch("alice", Transfer[string, num.U256]{To: "bob", Amount: u(69)}))
	assert.Equal(t, u(31), b.BalanceOf("alice"))
	assert.Equal(t, u(69), b.BalanceOf("bob"))

	err := d.Dispatch("bob", Transfer[string, num.U256]{To: "alice", Amount: u(70)})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestBalances_DispatchUnknownCall(t *testing.T) {
	b := newLedger()
	err := b.Dispatch("alice", nil)
	assert.ErrorIs(t, err, support.ErrUnknownCall)
}

func TestBalances_CloneIsIndependent(t *testing.T) {
	b := newLedger()
	b.SetBalance("alice", u(100))

	c := b.Clone()
	require.NoError(t, c.Transfer("alice", "bob", u(1)))

	assert.Equal(t, u(100), b.BalanceOf("alice"))
	assert.Equal(t, u(0), b.BalanceOf("bob"))
	assert.Equal(t, []string{"alice", "bob"}, c.Accounts())
}
