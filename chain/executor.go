package chain

import "github.com/blockberries/ledgerkit/executive"

type (
	Executor = executive.Executor[AccountID, BlockNumber, RuntimeCall]
	Result   = executive.Result[AccountID, BlockNumber]
	Outcome  = executive.Outcome[AccountID]
)

// NewExecutor returns an executor that applies blocks to rt.
func NewExecutor(rt *Runtime, opts ...executive.Option) *Executor {
	return executive.New[AccountID, BlockNumber, RuntimeCall](rt.System, rt, opts...)
}
