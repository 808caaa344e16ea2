package types

// ConsensusParams limits the size of blocks and transactions.
type ConsensusParams struct {
	MaxBlockBytes uint64 `cramberry:"1" json:"max_block_bytes"`
	// Zero disables the per-transaction size gate.
	MaxTxBytes uint64 `cramberry:"2" json:"max_tx_bytes"`
}
