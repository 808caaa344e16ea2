package support

// Header carries the block number the block producer expects the executor
// to reach when it applies the block.
type Header[BN any] struct {
	BlockNumber BN
}

// Extrinsic is one unit of block content: who is calling and what.
type Extrinsic[A, Call any] struct {
	Caller A
	Call   Call
}

// Block is a header plus an ordered sequence of extrinsics. The order is
// significant: extrinsics are applied strictly in slice order.
type Block[A, BN, Call any] struct {
	Header     Header[BN]
	Extrinsics []Extrinsic[A, Call]
}

// NewBlock builds a block at number bn from the given extrinsics.
func NewBlock[A, BN, Call any](bn BN, xts ...Extrinsic[A, Call]) Block[A, BN, Call] {
	return Block[A, BN, Call]{
		Header:     Header[BN]{BlockNumber: bn},
		Extrinsics: xts,
	}
}
