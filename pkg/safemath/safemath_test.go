package safemath_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/safemath"
	"github.com/stretchr/testify/require"
)

func TestSafeOffsetPositive(t *testing.T) {
	v, overflow := safemath.SafeOffset(10, 5)
	require.False(t, overflow)
	require.Equal(t, uint(15), v)
}

func TestSafeOffsetNegative(t *testing.T) {
	v, overflow := safemath.SafeOffset(10, -5)
	require.False(t, overflow)
	require.Equal(t, uint(5), v)
}

func TestSafeOffsetNegativeUnderflow(t *testing.T) {
	_, overflow := safemath.SafeOffset(3, -5)
	require.True(t, overflow)
}

func TestSafeSub(t *testing.T) {
	v, underflow := safemath.SafeSub(10, 4)
	require.False(t, underflow)
	require.Equal(t, uint(6), v)

	_, underflow = safemath.SafeSub(4, 10)
	require.True(t, underflow)
}
