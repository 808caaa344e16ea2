package types

// GenesisDoc initializes a fresh chain. It also has a JSON form so
// operators can write it by hand.
type GenesisDoc struct {
	ChainID         string          `cramberry:"1" json:"chain_id"`
	GenesisTime     Timestamp       `cramberry:"2" json:"genesis_time"`
	InitialHeight   uint64          `cramberry:"3" json:"initial_height"`
	ConsensusParams ConsensusParams `cramberry:"4" json:"consensus_params"`
	// Runtime genesis state as JSON, e.g. {"balances":{"alice":"100"}}.
	AppState []byte `cramberry:"5" json:"app_state"`
}
