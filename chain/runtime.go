// Package chain fixes the concrete types of the runtime and composes the
// system, balances and claims modules behind one aggregate call.
package chain

import (
	"github.com/blockberries/ledgerkit/balances"
	"github.com/blockberries/ledgerkit/claims"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/support"
	"github.com/blockberries/ledgerkit/system"
)

type (
	AccountID   = string
	BlockNumber = num.U32
	Nonce       = num.U32
	Balance     = num.U256
	Content     = string
)

type (
	SystemModule   = system.Module[AccountID, BlockNumber, Nonce]
	BalancesModule = balances.Module[AccountID, Balance]
	ClaimsModule   = claims.Module[AccountID, Content]
)

type (
	Extrinsic = support.Extrinsic[AccountID, RuntimeCall]
	Block     = support.Block[AccountID, BlockNumber, RuntimeCall]
)

// RuntimeCall is a call tagged with the module that owns it. The
// implementations are BalancesCall and ClaimsCall.
type RuntimeCall interface {
	isRuntimeCall()
}

// BalancesCall carries a call for the balances module.
type BalancesCall struct {
	Call balances.Call[AccountID, Balance]
}

// ClaimsCall carries a call for the claims module.
type ClaimsCall struct {
	Call claims.Call[Content]
}

func (BalancesCall) isRuntimeCall() {}
func (ClaimsCall) isRuntimeCall()   {}

// Transfer builds a balances transfer call.
func Transfer(to AccountID, amount Balance) RuntimeCall {
	return BalancesCall{Call: balances.Transfer[AccountID, Balance]{To: to, Amount: amount}}
}

// CreateClaim builds a claims create call.
func CreateClaim(claim Content) RuntimeCall {
	return ClaimsCall{Call: claims.CreateClaim[Content]{Claim: claim}}
}

// RevokeClaim builds a claims revoke call.
func RevokeClaim(claim Content) RuntimeCall {
	return ClaimsCall{Call: claims.RevokeClaim[Content]{Claim: claim}}
}

// NewExtrinsic pairs a caller with a call.
func NewExtrinsic(caller AccountID, call RuntimeCall) Extrinsic {
	return Extrinsic{Caller: caller, Call: call}
}

// NewBlock builds a block at number bn.
func NewBlock(bn uint32, xts ...Extrinsic) Block {
	return support.NewBlock(BlockNumber(bn), xts...)
}

// Runtime holds the state of every module. Modules never reference each
// other; Dispatch is the only place a call crosses a module boundary.
type Runtime struct {
	System   *SystemModule
	Balances *BalancesModule
	Claims   *ClaimsModule
}

// New returns a runtime with every module empty.
func New() *Runtime {
	return &Runtime{
		System:   system.New[AccountID, BlockNumber, Nonce](),
		Balances: balances.New[AccountID, Balance](),
		Claims:   claims.New[AccountID, Content](),
	}
}

// Dispatch implements support.Dispatcher by routing call to its module.
// Module errors are returned unchanged.
func (r *Runtime) Dispatch(caller AccountID, call RuntimeCall) error {
	switch c := call.(type) {
	case BalancesCall:
		return r.Balances.Dispatch(caller, c.Call)
	case ClaimsCall:
		return r.Claims.Dispatch(caller, c.Call)
	default:
		return support.UnknownCallError("runtime", call)
	}
}

// Clone returns a deep copy. Mutating the copy never affects r.
func (r *Runtime) Clone() *Runtime {
	return &Runtime{
		System:   r.System.Clone(),
		Balances: r.Balances.Clone(),
		Claims:   r.Claims.Clone(),
	}
}
