package layouts_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/layouts"
	"github.com/stretchr/testify/require"
)

func TestGetKnownLayout(t *testing.T) {
	l, ok := layouts.Get("starknet")
	require.True(t, ok)
	require.Equal(t, "starknet", l.Name)
	require.True(t, l.Has(layouts.Pedersen))
	require.False(t, l.Has(layouts.Keccak))
}

func TestGetUnknownLayout(t *testing.T) {
	_, ok := layouts.Get("not_a_layout")
	require.False(t, ok)
}

func TestPlainLayoutOnlyHasOutput(t *testing.T) {
	l, ok := layouts.Get("plain")
	require.True(t, ok)
	require.True(t, l.Has(layouts.Output))
	require.False(t, l.Has(layouts.RangeCheck))
}

func TestAllCairoLayoutHasEveryBuiltin(t *testing.T) {
	l, ok := layouts.Get("all_cairo")
	require.True(t, ok)
	for _, name := range []string{
		layouts.Output, layouts.Pedersen, layouts.RangeCheck, layouts.Bitwise,
		layouts.ECOp, layouts.ECDSA, layouts.Keccak, layouts.Poseidon, layouts.SegmentArena,
	} {
		require.True(t, l.Has(name), "expected all_cairo to include %s", name)
	}
}
