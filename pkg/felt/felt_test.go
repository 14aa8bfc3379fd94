package felt_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/stretchr/testify/require"
)

func TestFromHex(t *testing.T) {
	result, err := felt.FromHex("0x1a")
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(26), result)
}

func TestFromDecString(t *testing.T) {
	result, err := felt.FromDecString("435")
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(435), result)
}

func TestFromNegDecString(t *testing.T) {
	result, err := felt.FromDecString("-1")
	require.NoError(t, err)
	expected, err := felt.FromHex("0x800000000000011000000000000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, expected, result)
}

func TestToFromLeBytes(t *testing.T) {
	one := felt.One()
	bytes := one.ToBytesLE()

	expected := [32]byte{1}
	require.Equal(t, expected, bytes)
	require.Equal(t, one, felt.FromBytesLE(bytes))
}

func TestToFromBeBytes(t *testing.T) {
	one := felt.One()
	bytes := one.ToBytesBE()

	expected := [32]byte{}
	expected[31] = 1
	require.Equal(t, expected, bytes)
	require.Equal(t, one, felt.FromBytesBE(bytes))
}

func TestFeltAddSub(t *testing.T) {
	one := felt.One()
	require.Equal(t, felt.Zero(), one.Sub(one))
	require.Equal(t, one, felt.Zero().Add(one))
}

func TestFeltMul(t *testing.T) {
	three := felt.FromUint64(3)
	require.Equal(t, felt.FromUint64(9), three.Mul(three))
	require.Equal(t, felt.Zero(), felt.Zero().Mul(three))
}

func TestFeltDiv(t *testing.T) {
	four := felt.FromUint64(4)
	two := felt.FromUint64(2)
	require.Equal(t, two, four.Div(two))
	require.Equal(t, felt.One(), four.Div(four))
}

func TestFeltInverseDivisionByZero(t *testing.T) {
	_, err := felt.Zero().Inverse()
	require.ErrorIs(t, err, felt.ErrDivisionByZero)
}

func TestFeltBitwise(t *testing.T) {
	x := felt.FromUint64(0xF0)
	y := felt.FromUint64(0x0F)
	require.Equal(t, felt.Zero(), x.And(y))
	require.Equal(t, felt.FromUint64(0xFF), x.Or(y))
	require.Equal(t, felt.FromUint64(0xFF), x.Xor(y))
}

func TestFeltToU64(t *testing.T) {
	v, err := felt.FromUint64(42).ToU64()
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	_, err = felt.Zero().Sub(felt.One()).ToU64()
	require.Error(t, err)
}

func TestFeltNumBits(t *testing.T) {
	require.Equal(t, uint(0), felt.Zero().NumBits())
	require.Equal(t, uint(8), felt.FromUint64(0xFF).NumBits())
}

func TestFeltRoundTripBigInt(t *testing.T) {
	f := felt.FromUint64(123456789)
	require.Equal(t, f, felt.FromBigInt(f.ToBigInt()))
}
