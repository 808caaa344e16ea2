package chain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/balances"
	"github.com/blockberries/ledgerkit/claims"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/support"
)

func u(v uint64) Balance { return num.U256From64(v) }

func TestRuntime_EmptyOnConstruction(t *testing.T) {
	rt := New()

	assert.Equal(t, BlockNumber(0), rt.System.CurrentBlock())
	assert.Equal(t, Nonce(0), rt.System.Nonce("alice"))
	assert.Equal(t, u(0), rt.Balances.BalanceOf("alice"))
	_, ok := rt.Claims.ClaimOwner("doc")
	assert.False(t, ok)
}

func TestRuntime_DispatchRoutesByModule(t *testing.T) {
	rt := New()
	rt.Balances.SetBalance("alice", u(10))

	var d support.Dispatcher[AccountID, RuntimeCall] = rt
	require.NoError(t, d.Dispatch("alice", Transfer("bob", u(4))))
	require.NoError(t, d.Dispatch("alice", CreateClaim("doc")))

	assert.Equal(t, u(6), rt.Balances.BalanceOf("alice"))
	owner, ok := rt.Claims.ClaimOwner("doc")
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
}

func TestRuntime_DispatchForwardsErrorsUnchanged(t *testing.T) {
	rt := New()

	assert.Equal(t, balances.ErrInsufficientBalance, rt.Dispatch("alice", Transfer("bob", u(1))))
	assert.Equal(t, claims.ErrClaimNotFound, rt.Dispatch("alice", RevokeClaim("doc")))
	assert.ErrorIs(t, rt.Dispatch("alice", nil), support.ErrUnknownCall)
}

func TestRuntime_CloneIsIndependent(t *testing.T) {
	rt := New()
	rt.Balances.SetBalance("alice", u(10))

	c := rt.Clone()
	_, err := c.System.AdvanceBlock()
	require.NoError(t, err)
	c.System.AdvanceNonce("alice")
	require.NoError(t, c.Dispatch("alice", Transfer("bob", u(10))))
	require.NoError(t, c.Dispatch("alice", CreateClaim("doc")))

	assert.Equal(t, BlockNumber(0), rt.System.CurrentBlock())
	assert.Equal(t, Nonce(0), rt.System.Nonce("alice"))
	assert.Equal(t, u(10), rt.Balances.BalanceOf("alice"))
	_, ok := rt.Claims.ClaimOwner("doc")
	assert.False(t, ok)
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		code Code
	}{
		{nil, CodeOK},
		{balances.ErrInsufficientBalance, CodeInsufficientBalance},
		{balances.ErrBalanceOverflow, CodeBalanceOverflow},
		{claims.ErrClaimExists, CodeClaimExists},
		{fmt.Errorf("wrapped: %w", claims.ErrClaimNotFound), CodeClaimNotFound},
		{claims.ErrNotClaimOwner, CodeNotClaimOwner},
		{support.UnknownCallError("runtime", nil), CodeMalformed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, CodeOf(tc.err), "%v", tc.err)
	}
	assert.Equal(t, "claim_exists", ErrorLabel(claims.ErrClaimExists))
	assert.Equal(t, "unknown", Code(99).String())
}

func TestScenario_TransfersInOneBlock(t *testing.T) {
	rt := New()
	rt.Balances.SetBalance("alice", u(100))
	exec := NewExecutor(rt)

	res, err := exec.ExecuteBlock(NewBlock(1,
		NewExtrinsic("alice", Transfer("bob", u(69))),
		NewExtrinsic("alice", Transfer("charlie", u(15))),
	))
	require.NoError(t, err)
	assert.Empty(t, res.Failed())

	assert.Equal(t, u(16), rt.Balances.BalanceOf("alice"))
	assert.Equal(t, u(69), rt.Balances.BalanceOf("bob"))
	assert.Equal(t, u(15), rt.Balances.BalanceOf("charlie"))
	assert.Equal(t, Nonce(2), rt.System.Nonce("alice"))
	assert.Equal(t, BlockNumber(1), rt.System.CurrentBlock())
}

func TestScenario_DuplicateClaimAcrossBlocks(t *testing.T) {
	rt := New()
	exec := NewExecutor(rt)

	_, err := exec.ExecuteBlock(NewBlock(1, NewExtrinsic("alice", CreateClaim("doc"))))
	require.NoError(t, err)
	owner, _ := rt.Claims.ClaimOwner("doc")
	assert.Equal(t, "alice", owner)

	res, err := exec.ExecuteBlock(NewBlock(2, NewExtrinsic("bob", CreateClaim("doc"))))
	require.NoError(t, err, "a failed extrinsic does not fail the block")
	require.Len(t, res.Outcomes, 1)
	assert.ErrorIs(t, res.Outcomes[0].Err, claims.ErrClaimExists)
	assert.Equal(t, "bob", res.Outcomes[0].Caller)

	owner, _ = rt.Claims.ClaimOwner("doc")
	assert.Equal(t, "alice", owner)
	assert.Equal(t, Nonce(1), rt.System.Nonce("bob"))
}

func TestScenario_MismatchLeavesStateUntouched(t *testing.T) {
	rt := New()
	rt.Balances.SetBalance("alice", u(100))
	exec := NewExecutor(rt)

	_, err := exec.ExecuteBlock(NewBlock(2, NewExtrinsic("alice", Transfer("bob", u(1)))))
	m, ok := ledgerkit.IsBlockNumberMismatch(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, uint64(1), m.Expected)
	assert.Equal(t, uint64(2), m.Got)

	assert.Equal(t, BlockNumber(0), rt.System.CurrentBlock())
	assert.Equal(t, Nonce(0), rt.System.Nonce("alice"))
	assert.Equal(t, u(100), rt.Balances.BalanceOf("alice"))
	assert.Equal(t, u(0), rt.Balances.BalanceOf("bob"))

	// The same height can be retried with a correct header.
	_, err = exec.ExecuteBlock(NewBlock(1, NewExtrinsic("alice", Transfer("bob", u(1)))))
	require.NoError(t, err)
	assert.Equal(t, u(1), rt.Balances.BalanceOf("bob"))
}
