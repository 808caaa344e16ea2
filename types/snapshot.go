package types

import "fmt"

// SnapshotDescriptor identifies an exportable copy of committed state.
type SnapshotDescriptor struct {
	Height uint64 `cramberry:"1"`
	Format uint32 `cramberry:"2"`
	Chunks uint32 `cramberry:"3"`
	// sha256 of the concatenated chunk data.
	Hash     Hash   `cramberry:"4"`
	Metadata []byte `cramberry:"5"`
}

// SnapshotChunk is one piece of a snapshot, in Index order.
type SnapshotChunk struct {
	Index uint32 `cramberry:"1"`
	Data  []byte `cramberry:"2"`
}

// ImportStatus is the outcome of a snapshot import.
type ImportStatus uint8

const (
	// ImportOK: state was replaced by the snapshot.
	ImportOK ImportStatus = 1
	// ImportReject: the snapshot is unusable; try another one.
	ImportReject ImportStatus = 2
	// ImportRetryChunks: resend the chunks listed in RetryIndices.
	ImportRetryChunks ImportStatus = 3
)

func (s ImportStatus) String() string {
	switch s {
	case ImportOK:
		return "ok"
	case ImportReject:
		return "reject"
	case ImportRetryChunks:
		return "retry_chunks"
	default:
		return fmt.Sprintf("ImportStatus(%d)", uint8(s))
	}
}

// ImportResult is the outcome of importing a snapshot.
type ImportResult struct {
	Status ImportStatus `cramberry:"1"`
	// Set for ImportOK.
	AppHash *AppHash `cramberry:"2"`
	// Set for ImportReject.
	Reason string `cramberry:"3"`
	// Set for ImportRetryChunks.
	RetryIndices []uint32 `cramberry:"4"`
}
