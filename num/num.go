// Package num provides the concrete numeric types used to instantiate the
// runtime: fixed-width unsigned counters and a 256-bit balance.
//
// All arithmetic is checked. Overflow and underflow are reported to the
// caller, never wrapped.
package num

import (
	"cmp"
	"math"
	"math/bits"
	"strconv"

	"github.com/blockberries/ledgerkit/support"
)

// Compile-time constraint checks.
var (
	_ = isCounter[U32]
	_ = isCounter[U64]
)

func isCounter[T support.Counter[T]]() {}

// U32 is a 32-bit unsigned counter.
type U32 uint32

func (U32) One() U32 { return 1 }

func (a U32) CheckedAdd(b U32) (U32, bool) {
	sum, carry := bits.Add32(uint32(a), uint32(b), 0)
	return U32(sum), carry == 0
}

func (a U32) CheckedSub(b U32) (U32, bool) {
	diff, borrow := bits.Sub32(uint32(a), uint32(b), 0)
	return U32(diff), borrow == 0
}

func (a U32) Cmp(b U32) int  { return cmp.Compare(a, b) }
func (a U32) IsZero() bool   { return a == 0 }
func (a U32) Uint64() uint64 { return uint64(a) }

func (a U32) String() string { return strconv.FormatUint(uint64(a), 10) }

// U32FromUint64 narrows v to a U32. The boolean is false if v does not fit.
func U32FromUint64(v uint64) (U32, bool) {
	if v > math.MaxUint32 {
		return 0, false
	}
	return U32(v), true
}

// U64 is a 64-bit unsigned counter.
type U64 uint64

func (U64) One() U64 { return 1 }

func (a U64) CheckedAdd(b U64) (U64, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return U64(sum), carry == 0
}

func (a U64) CheckedSub(b U64) (U64, bool) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	return U64(diff), borrow == 0
}

func (a U64) Cmp(b U64) int  { return cmp.Compare(a, b) }
func (a U64) IsZero() bool   { return a == 0 }
func (a U64) Uint64() uint64 { return uint64(a) }

func (a U64) String() string { return strconv.FormatUint(uint64(a), 10) }
