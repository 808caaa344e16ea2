package num

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestU32_CheckedArithmetic(t *testing.T) {
	sum, ok := U32(2).CheckedAdd(3)
	require.True(t, ok)
	assert.Equal(t, U32(5), sum)

	_, ok = U32(math.MaxUint32).CheckedAdd(1)
	assert.False(t, ok, "add must report overflow")

	diff, ok := U32(5).CheckedSub(5)
	require.True(t, ok)
	assert.True(t, diff.IsZero())

	_, ok = U32(0).CheckedSub(1)
	assert.False(t, ok, "sub must report underflow")
}

func TestU32FromUint64(t *testing.T) {
	v, ok := U32FromUint64(42)
	require.True(t, ok)
	assert.Equal(t, U32(42), v)

	_, ok = U32FromUint64(math.MaxUint32 + 1)
	assert.False(t, ok)
}

func TestU64_CheckedArithmetic(t *testing.T) {
	_, ok := U64(math.MaxUint64).CheckedAdd(1)
	assert.False(t, ok)
	_, ok = U64(1).CheckedSub(2)
	assert.False(t, ok)
	assert.Equal(t, -1, U64(1).Cmp(2))
	assert.Equal(t, uint64(7), U64(7).Uint64())
}

func TestU256_CheckedArithmetic(t *testing.T) {
	a := U256From64(100)
	b := U256From64(69)

	diff, ok := a.CheckedSub(b)
	require.True(t, ok)
	assert.Equal(t, U256From64(31), diff)

	_, ok = b.CheckedSub(a)
	assert.False(t, ok)

	_, ok = MaxU256().CheckedAdd(U256{}.One())
	assert.False(t, ok)

	sum, ok := MaxU256().CheckedAdd(U256{})
	require.True(t, ok)
	assert.Equal(t, MaxU256(), sum)
}

func TestU256_Encoding(t *testing.T) {
	v, err := ParseU256("340282366920938463463374607431768211456") // 2^128
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211456", v.String())
	assert.Equal(t, v, U256FromBytes32(v.Bytes32()))

	_, err = ParseU256("-1")
	assert.Error(t, err)
	_, err = ParseU256("ten")
	assert.Error(t, err)
}

func TestU256_Compare(t *testing.T) {
	assert.Equal(t, 0, U256From64(5).Cmp(U256From64(5)))
	assert.Equal(t, 1, MaxU256().Cmp(U256From64(5)))
	assert.True(t, U256{}.IsZero())
	assert.True(t, U256From64(0) == U256{})
}
