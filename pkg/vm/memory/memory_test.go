package memory_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
	"github.com/stretchr/testify/require"
)

func newManagerWithSegments(n int) memory.MemorySegmentManager {
	mgr := memory.NewMemorySegmentManager()
	for i := 0; i < n; i++ {
		mgr.AddSegment()
	}
	return mgr
}

func TestInsertThenGetRoundTrip(t *testing.T) {
	mgr := newManagerWithSegments(1)
	addr := memory.NewRelocatable(0, 0)
	val := memory.NewMaybeRelocatableFelt(felt.FromUint64(42))

	require.NoError(t, mgr.Memory.Insert(addr, val))

	got, err := mgr.Memory.Get(addr)
	require.NoError(t, err)
	require.True(t, got.IsEqual(val))
}

func TestWriteOnceRejectsConflictingWrite(t *testing.T) {
	mgr := newManagerWithSegments(1)
	addr := memory.NewRelocatable(0, 0)
	require.NoError(t, mgr.Memory.Insert(addr, memory.NewMaybeRelocatableFelt(felt.FromUint64(1))))

	err := mgr.Memory.Insert(addr, memory.NewMaybeRelocatableFelt(felt.FromUint64(2)))
	require.ErrorIs(t, err, vmerrors.ErrInconsistentMemory)
}

func TestWriteOnceAllowsIdenticalRewrite(t *testing.T) {
	mgr := newManagerWithSegments(1)
	addr := memory.NewRelocatable(0, 0)
	val := memory.NewMaybeRelocatableFelt(felt.FromUint64(1))
	require.NoError(t, mgr.Memory.Insert(addr, val))
	require.NoError(t, mgr.Memory.Insert(addr, val))
}

func TestGetUnknownCellFails(t *testing.T) {
	mgr := newManagerWithSegments(1)
	_, err := mgr.Memory.Get(memory.NewRelocatable(0, 5))
	require.ErrorIs(t, err, vmerrors.ErrUnknownMemoryCell)
}

func TestMemoryHoleLeavesGapUnknown(t *testing.T) {
	mgr := newManagerWithSegments(1)
	require.NoError(t, mgr.Memory.Insert(memory.NewRelocatable(0, 0), memory.NewMaybeRelocatableFelt(felt.FromUint64(1))))
	require.NoError(t, mgr.Memory.Insert(memory.NewRelocatable(0, 2), memory.NewMaybeRelocatableFelt(felt.FromUint64(3))))

	sizes := mgr.ComputeEffectiveSizes()
	require.Equal(t, uint(3), sizes[0])

	_, err := mgr.Memory.Get(memory.NewRelocatable(0, 1))
	require.ErrorIs(t, err, vmerrors.ErrUnknownMemoryCell)
}

func TestValidationRuleRunsOnFirstWriteOnly(t *testing.T) {
	mgr := newManagerWithSegments(1)
	calls := 0
	mgr.Memory.AddValidationRule(0, func(m *memory.Memory, addr memory.Relocatable) ([]memory.Relocatable, error) {
		calls++
		return []memory.Relocatable{addr}, nil
	})

	addr := memory.NewRelocatable(0, 0)
	val := memory.NewMaybeRelocatableFelt(felt.FromUint64(7))
	require.NoError(t, mgr.Memory.Insert(addr, val))
	require.NoError(t, mgr.Memory.Insert(addr, val))
	require.Equal(t, 1, calls)
}

func TestAutoDeductionOnMiss(t *testing.T) {
	mgr := newManagerWithSegments(1)
	mgr.Memory.SetDeduceMemoryCell(func(addr memory.Relocatable) (*memory.MaybeRelocatable, error) {
		return memory.NewMaybeRelocatableFelt(felt.FromUint64(99)), nil
	})

	val, err := mgr.Memory.Get(memory.NewRelocatable(0, 3))
	require.NoError(t, err)
	f, ok := val.GetFelt()
	require.True(t, ok)
	require.Equal(t, felt.FromUint64(99), f)

	// Second read returns the now-written value without re-deducing.
	val2, err := mgr.Memory.Get(memory.NewRelocatable(0, 3))
	require.NoError(t, err)
	require.True(t, val.IsEqual(val2))
}

func TestRelocateTempSegment(t *testing.T) {
	mgr := newManagerWithSegments(6)
	temp := mgr.AddTempSegment()
	_, err := mgr.Memory.LoadData(temp, []memory.MaybeRelocatable{
		*memory.NewMaybeRelocatableFelt(felt.FromUint64(10)),
		*memory.NewMaybeRelocatableFelt(felt.FromUint64(20)),
		*memory.NewMaybeRelocatableFelt(felt.FromUint64(30)),
	})
	require.NoError(t, err)

	target := memory.NewRelocatable(1, 5)
	require.NoError(t, mgr.Memory.RelocateSegment(temp, target))

	sizes := mgr.ComputeEffectiveSizes()
	sizes[1] = 8 // pretend segment 1 already used offsets 0..7
	bases, ok := mgr.RelocateSegments()
	require.True(t, ok)

	flat, err := mgr.RelocateMemory(&bases)
	require.NoError(t, err)

	base1 := bases[1]
	require.Equal(t, felt.FromUint64(10), flat[base1+5])
	require.Equal(t, felt.FromUint64(20), flat[base1+6])
	require.Equal(t, felt.FromUint64(30), flat[base1+7])

	for addr := range flat {
		require.NotEqual(t, uint(0), addr)
	}
}

func TestRelocateSegmentTwiceFails(t *testing.T) {
	mgr := newManagerWithSegments(2)
	temp := mgr.AddTempSegment()
	require.NoError(t, mgr.Memory.RelocateSegment(temp, memory.NewRelocatable(0, 0)))
	err := mgr.Memory.RelocateSegment(temp, memory.NewRelocatable(1, 0))
	require.Error(t, err)
}

func TestRelocateNoTempSegmentsIsIdentityShape(t *testing.T) {
	mgr := newManagerWithSegments(2)
	require.NoError(t, mgr.Memory.Insert(memory.NewRelocatable(0, 0), memory.NewMaybeRelocatableFelt(felt.FromUint64(5))))
	sizes := mgr.ComputeEffectiveSizes()
	_ = sizes
	bases, ok := mgr.RelocateSegments()
	require.True(t, ok)
	require.Equal(t, uint(1), bases[0])

	flat, err := mgr.RelocateMemory(&bases)
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(5), flat[bases[0]])
}
