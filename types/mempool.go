package types

// MempoolContext says why CheckTx is being called.
type MempoolContext uint8

const (
	// MempoolFirstSeen: the transaction just arrived.
	MempoolFirstSeen MempoolContext = 1
	// MempoolRevalidation: a block was committed since the last check.
	MempoolRevalidation MempoolContext = 2
)

// GateVerdict is the CheckTx decision. Admission only checks that the
// transaction decodes and fits; whether it succeeds is decided at
// execution.
type GateVerdict struct {
	// Zero accepts; any other value is a rejection code.
	Code uint32 `cramberry:"1"`
	// Human-readable rejection reason. Not part of consensus.
	Info     string `cramberry:"2"`
	Priority int64  `cramberry:"3"`
	// Caller of the decoded extrinsic.
	Sender string `cramberry:"4"`
}

// Accepted reports whether the transaction was admitted.
func (v GateVerdict) Accepted() bool { return v.Code == 0 }
