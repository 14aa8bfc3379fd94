package bigint_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/bigint"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/stretchr/testify/require"
)

func TestFromFeltRoundTrip(t *testing.T) {
	f := felt.FromUint64(123456789)
	require.Equal(t, f, bigint.FromFelt(f).ToFelt())
}

func TestAddSubMul(t *testing.T) {
	a := bigint.FromInt64(7)
	b := bigint.FromInt64(3)

	require.Equal(t, bigint.FromInt64(10), bigint.Add(a, b))
	require.Equal(t, bigint.FromInt64(4), bigint.Sub(a, b))
	require.Equal(t, bigint.FromInt64(21), bigint.Mul(a, b))
}

func TestSubNegativeReducesThroughFelt(t *testing.T) {
	a := bigint.FromInt64(3)
	b := bigint.FromInt64(7)

	neg := bigint.Sub(a, b)
	require.Equal(t, -1, neg.Sign())

	expected, err := felt.FromDecString("-4")
	require.NoError(t, err)
	require.Equal(t, expected, neg.ToFelt())
}

func TestMod(t *testing.T) {
	a := bigint.FromInt64(17)
	m := bigint.FromInt64(5)
	require.Equal(t, bigint.FromInt64(2), bigint.Mod(a, m))
}

func TestBytesLERoundTrip(t *testing.T) {
	i := bigint.FromInt64(0x1234)
	b := i.ToBytesLE(4)
	require.Equal(t, []byte{0x34, 0x12, 0x00, 0x00}, b)
	require.Equal(t, i, bigint.FromBytesLE(b))
}

func TestBytesLETruncatesToWidth(t *testing.T) {
	i := bigint.FromInt64(0x1234)
	b := i.ToBytesLE(1)
	require.Equal(t, []byte{0x34}, b)
}
