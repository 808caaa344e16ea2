package num

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/blockberries/ledgerkit/support"
)

var _ = support.One[U256]

// U256 is a 256-bit unsigned balance. It is a comparable value type, so it
// can be stored in maps and compared with ==.
type U256 struct {
	v uint256.Int
}

// U256From64 returns v as a U256.
func U256From64(v uint64) U256 {
	var u U256
	u.v.SetUint64(v)
	return u
}

// U256FromBytes32 decodes a 32-byte big-endian value.
func U256FromBytes32(b [32]byte) U256 {
	var u U256
	u.v.SetBytes32(b[:])
	return u
}

// MaxU256 returns 2^256 - 1.
func MaxU256() U256 {
	var u U256
	u.v.SetAllOne()
	return u
}

// ParseU256 parses a base-10 string.
func ParseU256(s string) (U256, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return U256{}, fmt.Errorf("parse u256 %q: %w", s, err)
	}
	return U256{v: *v}, nil
}

func (U256) One() U256 { return U256From64(1) }

func (a U256) CheckedAdd(b U256) (U256, bool) {
	var r U256
	_, overflow := r.v.AddOverflow(&a.v, &b.v)
	return r, !overflow
}

func (a U256) CheckedSub(b U256) (U256, bool) {
	var r U256
	_, underflow := r.v.SubOverflow(&a.v, &b.v)
	return r, !underflow
}

func (a U256) Cmp(b U256) int { return a.v.Cmp(&b.v) }
func (a U256) IsZero() bool   { return a.v.IsZero() }

// Bytes32 returns the 32-byte big-endian encoding.
func (a U256) Bytes32() [32]byte { return a.v.Bytes32() }

func (a U256) String() string { return a.v.Dec() }
