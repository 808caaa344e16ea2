package app

import (
	"encoding/json"
	"fmt"

	"github.com/blockberries/ledgerkit/chain"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/system"
)

// GenesisState is the JSON application state carried in
// GenesisDoc.AppState. Balances are decimal strings so amounts above
// 2^53 survive JSON tooling.
//
//	{"balances": {"alice": "100"}}
type GenesisState struct {
	Balances map[string]string `json:"balances"`
}

// genesisRuntime builds the initial runtime. The block counter starts one
// below initialHeight so the first executed block carries initialHeight.
func genesisRuntime(appState []byte, initialHeight uint64) (*chain.Runtime, error) {
	rt := chain.New()
	if initialHeight > 1 {
		bn, ok := num.U32FromUint64(initialHeight - 1)
		if !ok {
			return nil, fmt.Errorf("genesis: initial height %d out of range", initialHeight)
		}
		rt.System = system.Restore[chain.AccountID, chain.BlockNumber, chain.Nonce](bn, nil)
	}
	if len(appState) == 0 {
		return rt, nil
	}

	var gs GenesisState
	if err := json.Unmarshal(appState, &gs); err != nil {
		return nil, fmt.Errorf("genesis: decode app state: %w", err)
	}
	for who, amount := range gs.Balances {
		if who == "" {
			return nil, fmt.Errorf("genesis: empty account id")
		}
		v, err := num.ParseU256(amount)
		if err != nil {
			return nil, fmt.Errorf("genesis: balance of %q: %w", who, err)
		}
		rt.Balances.SetBalance(who, v)
	}
	if _, ok := rt.Balances.TotalIssuance(); !ok {
		return nil, fmt.Errorf("genesis: total issuance overflows")
	}
	return rt, nil
}

// MarshalGenesis encodes balances as GenesisDoc.AppState.
func MarshalGenesis(balances map[string]uint64) []byte {
	gs := GenesisState{Balances: make(map[string]string, len(balances))}
	for who, v := range balances {
		gs.Balances[who] = num.U256From64(v).String()
	}
	data, _ := json.Marshal(gs) // map of strings always encodes
	return data
}
