// Package types defines the data exchanged between a block-producing
// engine and the ledger runtime.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// AppHash is a deterministic fingerprint of the runtime state after
// execution.
type AppHash [32]byte

// Tx is an encoded extrinsic. The engine never inspects its contents.
type Tx []byte

// QueryPath selects what a state query reads (e.g. "/balance").
type QueryPath string

// BlockID uniquely identifies a point in the chain.
type BlockID struct {
	Height uint64 `cramberry:"1"`
	Hash   Hash   `cramberry:"2"`
}
