package ledgerkit

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnavailable is returned when an optional method is called
// on a runtime that did not declare the matching capability.
var ErrCapabilityUnavailable = errors.New("ledgerkit: capability not available")

// HaltError signals that the runtime can no longer make progress and
// requests an immediate halt.
//
// When the engine receives a HaltError from ExecuteBlock, it must stop,
// log the error, and not proceed to Commit.
type HaltError struct {
	Reason string
	Height uint64
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("HALT at height %d: %s", e.Height, e.Reason)
}

// NewHaltError creates a new HaltError.
func NewHaltError(height uint64, reason string) *HaltError {
	return &HaltError{Height: height, Reason: reason}
}

// IsHalt checks whether an error is a HaltError and returns it.
func IsHalt(err error) (*HaltError, bool) {
	var h *HaltError
	if errors.As(err, &h) {
		return h, true
	}
	return nil, false
}

// BlockNumberMismatchError rejects a block whose header does not declare
// the next block number. No state is mutated when it is returned.
type BlockNumberMismatchError struct {
	Expected uint64
	Got      uint64
}

func (e *BlockNumberMismatchError) Error() string {
	return fmt.Sprintf("block number mismatch: expected %d, got %d", e.Expected, e.Got)
}

// IsBlockNumberMismatch checks whether an error is a
// BlockNumberMismatchError and returns it.
func IsBlockNumberMismatch(err error) (*BlockNumberMismatchError, bool) {
	var m *BlockNumberMismatchError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}
