package types

// HandshakeRequest opens every session. LastCommitted is nil on a fresh
// chain, in which case Genesis is set.
type HandshakeRequest struct {
	LastCommitted *BlockID    `cramberry:"1"`
	Genesis       *GenesisDoc `cramberry:"2"`
}

// IsGenesis reports whether the request starts a new chain.
func (r HandshakeRequest) IsGenesis() bool {
	return r.LastCommitted == nil
}

// HandshakeResponse reports the runtime's committed position and the
// optional capabilities it serves.
type HandshakeResponse struct {
	// Last block the runtime committed; nil before the first block.
	LastBlock *BlockID `cramberry:"1"`
	// State commitment at LastBlock, or of genesis state.
	AppHash      *AppHash     `cramberry:"2"`
	Capabilities Capabilities `cramberry:"3"`
}
