package starknetcrypto_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsOnCurve(t *testing.T) {
	for i := 0; i < 5; i++ {
		p, err := starknetcrypto.ScalarMul(felt.One(), starknetcrypto.Generator)
		require.NoError(t, err)
		require.True(t, starknetcrypto.IsOnCurve(p))
	}
}

func TestPedersenHashDeterministic(t *testing.T) {
	a := felt.FromUint64(1)
	b := felt.FromUint64(2)
	h1 := starknetcrypto.PedersenHash(a, b)
	h2 := starknetcrypto.PedersenHash(a, b)
	require.True(t, h1.Equal(h2))

	h3 := starknetcrypto.PedersenHash(b, a)
	require.False(t, h1.Equal(h3))
}

func TestPoseidonHashDeterministic(t *testing.T) {
	a := felt.FromUint64(10)
	b := felt.FromUint64(20)
	h1 := starknetcrypto.PoseidonHash(a, b)
	h2 := starknetcrypto.PoseidonHash(a, b)
	require.True(t, h1.Equal(h2))
}

func TestKeccakF1600Deterministic(t *testing.T) {
	var lanes [25]uint64
	for i := range lanes {
		lanes[i] = uint64(i)
	}
	out1 := starknetcrypto.KeccakF1600(lanes)
	out2 := starknetcrypto.KeccakF1600(lanes)
	require.Equal(t, out1, out2)
	require.NotEqual(t, lanes, out1)
}

func TestECAddAndScalarMul(t *testing.T) {
	p, err := starknetcrypto.ScalarMul(felt.FromUint64(3), starknetcrypto.Generator)
	require.NoError(t, err)
	require.True(t, starknetcrypto.IsOnCurve(p))

	doubled, err := starknetcrypto.Add(starknetcrypto.Generator, starknetcrypto.Generator)
	require.NoError(t, err)
	viaDouble, err := starknetcrypto.Double(starknetcrypto.Generator)
	require.NoError(t, err)
	require.True(t, doubled.X.Equal(viaDouble.X))
}

func TestVerifyECDSARejectsBadSignature(t *testing.T) {
	msg := felt.FromUint64(42)
	pub := starknetcrypto.Generator
	sig := starknetcrypto.Signature{R: felt.FromUint64(1), S: felt.FromUint64(1)}
	ok, err := starknetcrypto.VerifyECDSA(msg, pub.X, sig)
	require.NoError(t, err)
	require.False(t, ok)
}
