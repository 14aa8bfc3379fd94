package builtins_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/builtins"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/stretchr/testify/require"
)

func TestPedersenDeducesHashOnRead(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	p := builtins.NewPedersenBuiltinRunner(true, nil)
	p.InitializeSegments(&segments)
	base := p.Base()

	require.NoError(t, segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(1))))
	require.NoError(t, segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(2))))

	val, err := p.DeduceMemoryCell(memory.NewRelocatable(base.SegmentIndex, 2), segments.Memory)
	require.NoError(t, err)
	require.NotNil(t, val)
	_, ok := val.GetFelt()
	require.True(t, ok)
}

func TestBitwiseDeducesAndXorOr(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	bw := builtins.NewBitwiseBuiltinRunner(true, nil)
	bw.InitializeSegments(&segments)
	base := bw.Base()

	require.NoError(t, segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(0b1100))))
	require.NoError(t, segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(0b1010))))

	and, err := bw.DeduceMemoryCell(memory.NewRelocatable(base.SegmentIndex, 2), segments.Memory)
	require.NoError(t, err)
	f, _ := and.GetFelt()
	require.Equal(t, felt.FromUint64(0b1000), f)

	xor, err := bw.DeduceMemoryCell(memory.NewRelocatable(base.SegmentIndex, 3), segments.Memory)
	require.NoError(t, err)
	f, _ = xor.GetFelt()
	require.Equal(t, felt.FromUint64(0b0110), f)

	or, err := bw.DeduceMemoryCell(memory.NewRelocatable(base.SegmentIndex, 4), segments.Memory)
	require.NoError(t, err)
	f, _ = or.GetFelt()
	require.Equal(t, felt.FromUint64(0b1110), f)
}

func TestBitwiseRejectsOperandOver251Bits(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	bw := builtins.NewBitwiseBuiltinRunner(true, nil)
	bw.InitializeSegments(&segments)
	base := bw.Base()

	tooBig := felt.One().Shl(251) // 2^251 has 252 bits, one over the limit
	require.NoError(t, segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(tooBig)))
	require.NoError(t, segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(1))))

	_, err := bw.DeduceMemoryCell(memory.NewRelocatable(base.SegmentIndex, 2), segments.Memory)
	require.Error(t, err)
}

func TestECDSAValidatesRegardlessOfWriteOrder(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	e := builtins.NewECDSABuiltinRunner(true, nil)
	e.InitializeSegments(&segments)
	e.AddValidationRule(segments.Memory)
	base := e.Base()

	pubKeyAddr := base
	msgAddr := memory.NewRelocatable(base.SegmentIndex, 1)

	// Public key written first, message second: no signature was ever
	// registered, so the check must still run (and fail) once the
	// message cell completes the pair, instead of silently passing.
	require.NoError(t, segments.Memory.Insert(pubKeyAddr, memory.NewMaybeRelocatableFelt(felt.FromUint64(7))))
	err := segments.Memory.Insert(msgAddr, memory.NewMaybeRelocatableFelt(felt.FromUint64(42)))
	require.Error(t, err)

	// Message written first, public key second, on the next instance:
	// the check waits for the pair and then fails the same way.
	require.NoError(t, segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 3), memory.NewMaybeRelocatableFelt(felt.FromUint64(42))))
	err = segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 2), memory.NewMaybeRelocatableFelt(felt.FromUint64(7)))
	require.Error(t, err)
}

func TestRangeCheckRejectsOutOfBound(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	rc := builtins.NewRangeCheckBuiltinRunner(true, nil)
	rc.InitializeSegments(&segments)
	rc.AddValidationRule(segments.Memory)
	base := rc.Base()

	tooBig, err := felt.FromHex("0x100000000000000000000000000000000")
	require.NoError(t, err)
	err = segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(tooBig))
	require.Error(t, err)
}

func TestOutputAddPageRejectsOffSegmentStart(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	o := builtins.NewOutputBuiltinRunner(true)
	o.InitializeSegments(&segments)
	segments.AddSegment() // unrelated segment

	err := o.AddPage(0, memory.NewRelocatable(o.Base().SegmentIndex+1, 0), 4)
	require.Error(t, err)
}

func TestOutputAddPageRejectsDuplicateID(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	o := builtins.NewOutputBuiltinRunner(true)
	o.InitializeSegments(&segments)
	base := o.Base()

	require.NoError(t, o.AddPage(1, base, 2))
	err := o.AddPage(1, memory.NewRelocatable(base.SegmentIndex, 2), 3)
	require.Error(t, err)

	require.Len(t, o.Pages(), 1)
}

func TestOutputSetStateReplacesSegmentAndPages(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	o := builtins.NewOutputBuiltinRunner(true)
	o.InitializeSegments(&segments)
	require.NoError(t, o.AddPage(0, o.Base(), 1))

	newBase := segments.AddSegment()
	newPages := map[uint]builtins.OutputPage{5: {Start: newBase, Size: 7}}
	o.SetState(newBase, newPages)

	require.Equal(t, newBase, o.Base())
	require.Equal(t, newPages, o.Pages())
}

func TestFinalStackValidatesOffset(t *testing.T) {
	segments := memory.NewMemorySegmentManager()
	segments.AddSegment() // segment 0, unrelated
	p := builtins.NewPedersenBuiltinRunner(true, nil)
	p.InitializeSegments(&segments) // segment 1
	base := p.Base()

	require.NoError(t, segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(1))))
	require.NoError(t, segments.Memory.Insert(memory.NewRelocatable(base.SegmentIndex, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(2))))
	segments.Memory.SetDeduceMemoryCell(func(addr memory.Relocatable) (*memory.MaybeRelocatable, error) {
		return p.DeduceMemoryCell(addr, segments.Memory)
	})
	_, err := segments.Memory.Get(memory.NewRelocatable(base.SegmentIndex, 2))
	require.NoError(t, err)

	stackSegment := segments.AddSegment()
	stopPtr := memory.NewRelocatable(base.SegmentIndex, 3)
	require.NoError(t, segments.Memory.Insert(stackSegment, memory.NewMaybeRelocatableRelocatable(stopPtr)))
	afterStop, err := stackSegment.AddUint(1)
	require.NoError(t, err)

	segments.ComputeEffectiveSizes()
	_, err = p.FinalStack(&segments, afterStop)
	require.NoError(t, err)
}
