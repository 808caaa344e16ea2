// Package claims implements the claim registry: a unique binding from a
// piece of content to the account that registered it first.
package claims

import (
	"cmp"
	"errors"
	"maps"
	"slices"

	"github.com/blockberries/ledgerkit/support"
)

var (
	ErrClaimExists   = errors.New("claims: claim already exists")
	ErrClaimNotFound = errors.New("claims: claim does not exist")
	ErrNotClaimOwner = errors.New("claims: caller is not the owner of the claim")
)

// Call is the set of intents the claim module accepts.
type Call[C cmp.Ordered] interface {
	isClaimsCall()
}

// CreateClaim registers Claim to the caller.
type CreateClaim[C cmp.Ordered] struct {
	Claim C
}

// RevokeClaim removes Claim. Only the recorded owner may revoke.
type RevokeClaim[C cmp.Ordered] struct {
	Claim C
}

func (CreateClaim[C]) isClaimsCall() {}
func (RevokeClaim[C]) isClaimsCall() {}

// Entry is one exported claim binding.
type Entry[A, C cmp.Ordered] struct {
	Claim C
	Owner A
}

// Module owns the claim map.
type Module[A, C cmp.Ordered] struct {
	claims map[C]A
}

// New returns an empty registry.
func New[A, C cmp.Ordered]() *Module[A, C] {
	return &Module[A, C]{claims: make(map[C]A)}
}

// Restore rebuilds a registry from exported entries. A claim listed twice
// is an error since content keys are unique.
func Restore[A, C cmp.Ordered](entries []Entry[A, C]) (*Module[A, C], error) {
	m := New[A, C]()
	for _, e := range entries {
		if _, ok := m.claims[e.Claim]; ok {
			return nil, ErrClaimExists
		}
		m.claims[e.Claim] = e.Owner
	}
	return m, nil
}

// ClaimOwner returns the owner of claim and whether it is registered.
func (m *Module[A, C]) ClaimOwner(claim C) (A, bool) {
	owner, ok := m.claims[claim]
	return owner, ok
}

// CreateClaim registers claim to caller.
func (m *Module[A, C]) CreateClaim(caller A, claim C) error {
	if _, ok := m.claims[claim]; ok {
		return ErrClaimExists
	}
	m.claims[claim] = caller
	return nil
}

// RevokeClaim removes claim if caller owns it.
func (m *Module[A, C]) RevokeClaim(caller A, claim C) error {
	owner, ok := m.claims[claim]
	if !ok {
		return ErrClaimNotFound
	}
	if owner != caller {
		return ErrNotClaimOwner
	}
	delete(m.claims, claim)
	return nil
}

// Dispatch implements support.Dispatcher.
func (m *Module[A, C]) Dispatch(caller A, call Call[C]) error {
	switch c := call.(type) {
	case CreateClaim[C]:
		return m.CreateClaim(caller, c.Claim)
	case RevokeClaim[C]:
		return m.RevokeClaim(caller, c.Claim)
	default:
		return support.UnknownCallError("claims", call)
	}
}

// Entries returns every claim in ascending content order.
func (m *Module[A, C]) Entries() []Entry[A, C] {
	keys := slices.Sorted(maps.Keys(m.claims))
	out := make([]Entry[A, C], len(keys))
	for i, k := range keys {
		out[i] = Entry[A, C]{Claim: k, Owner: m.claims[k]}
	}
	return out
}

// Clone returns an independent copy.
func (m *Module[A, C]) Clone() *Module[A, C] {
	return &Module[A, C]{claims: maps.Clone(m.claims)}
}
