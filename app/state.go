package app

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/ledgerkit/chain"
	"github.com/blockberries/ledgerkit/claims"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/system"
	"github.com/blockberries/ledgerkit/types"
)

// ErrDuplicateAccount is returned when encoded state lists an account
// twice in the same section.
var ErrDuplicateAccount = errors.New("state: duplicate account")

// stateDump is the canonical encoding of a runtime. Every list is sorted
// by key, so equal runtimes encode to equal bytes.
type stateDump struct {
	BlockNumber uint32         `cramberry:"1"`
	Balances    []balanceEntry `cramberry:"2"`
	Nonces      []nonceEntry   `cramberry:"3"`
	Claims      []claimEntry   `cramberry:"4"`
}

type balanceEntry struct {
	Account string   `cramberry:"1"`
	Amount  [32]byte `cramberry:"2"`
}

type nonceEntry struct {
	Account string `cramberry:"1"`
	Nonce   uint32 `cramberry:"2"`
}

type claimEntry struct {
	Claim string `cramberry:"1"`
	Owner string `cramberry:"2"`
}

func dump(rt *chain.Runtime) stateDump {
	d := stateDump{BlockNumber: uint32(rt.System.CurrentBlock())}
	for _, who := range rt.Balances.Accounts() {
		d.Balances = append(d.Balances, balanceEntry{
			Account: who,
			Amount:  rt.Balances.BalanceOf(who).Bytes32(),
		})
	}
	for _, who := range rt.System.Nonces() {
		d.Nonces = append(d.Nonces, nonceEntry{
			Account: who,
			Nonce:   uint32(rt.System.Nonce(who)),
		})
	}
	for _, e := range rt.Claims.Entries() {
		d.Claims = append(d.Claims, claimEntry{Claim: e.Claim, Owner: e.Owner})
	}
	return d
}

func encodeState(rt *chain.Runtime) ([]byte, error) {
	data, err := cramberry.Marshal(dump(rt))
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// appHash computes a deterministic SHA256 of the encoded state.
func appHash(rt *chain.Runtime) (types.AppHash, error) {
	data, err := encodeState(rt)
	if err != nil {
		return types.AppHash{}, err
	}
	return types.AppHash(sha256.Sum256(data)), nil
}

// decodeState rebuilds a runtime from encoded state.
func decodeState(data []byte) (*chain.Runtime, error) {
	var d stateDump
	if err := cramberry.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	nonces := make(map[chain.AccountID]chain.Nonce, len(d.Nonces))
	for _, e := range d.Nonces {
		if _, dup := nonces[e.Account]; dup {
			return nil, fmt.Errorf("%w: nonce of %q", ErrDuplicateAccount, e.Account)
		}
		nonces[e.Account] = num.U32(e.Nonce)
	}
	entries := make([]claims.Entry[chain.AccountID, chain.Content], len(d.Claims))
	for i, e := range d.Claims {
		entries[i] = claims.Entry[chain.AccountID, chain.Content]{Claim: e.Claim, Owner: e.Owner}
	}
	cl, err := claims.Restore(entries)
	if err != nil {
		return nil, fmt.Errorf("restore claims: %w", err)
	}

	rt := chain.New()
	rt.System = system.Restore(num.U32(d.BlockNumber), nonces)
	rt.Claims = cl
	seen := make(map[chain.AccountID]struct{}, len(d.Balances))
	for _, e := range d.Balances {
		if _, dup := seen[e.Account]; dup {
			return nil, fmt.Errorf("%w: balance of %q", ErrDuplicateAccount, e.Account)
		}
		seen[e.Account] = struct{}{}
		rt.Balances.SetBalance(e.Account, num.U256FromBytes32(e.Amount))
	}
	return rt, nil
}
