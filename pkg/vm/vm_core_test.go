package vm_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/stretchr/testify/require"
)

func newTestVM() (*vm.VirtualMachine, memory.Relocatable) {
	v := vm.NewVirtualMachine()
	base := v.Segments.AddSegment() // program segment, index 0
	v.Segments.AddSegment()         // execution segment, index 1
	v.RunContext.Pc = base
	v.RunContext.Ap = memory.NewRelocatable(1, 0)
	v.RunContext.Fp = memory.NewRelocatable(1, 0)
	return v, base
}

// [fp+1] = [fp+0] + 3: AssertEq, dst=[fp+1], op0=[fp+0], op1=imm 3, res=add.
func TestStepAssertEqResAdd(t *testing.T) {
	v, base := newTestVM()

	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(1, 0), memory.NewMaybeRelocatableFelt(felt.FromUint64(5))))

	inst := vm.Instruction{
		OffDst:      1,
		OffOp0:      0,
		OffOp1:      1,
		DstRegister: vm.Fp,
		Op0Register: vm.Fp,
		Op1Source:   vm.Op1SrcImm,
		ResLogic:    vm.ResAdd,
		PcUpdate:    vm.PcUpdateRegular,
		ApUpdate:    vm.ApUpdateRegular,
		FpUpdate:    vm.FpUpdateRegular,
		Opcode:      vm.AssertEq,
	}
	word := inst.Encode()
	require.NoError(t, v.Segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(word))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(0, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(3))))

	require.NoError(t, v.Step())

	dst, err := v.Segments.Memory.GetFelt(memory.NewRelocatable(1, 1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(8), dst)

	require.Equal(t, uint(1), v.CurrentStep)
	require.Equal(t, memory.NewRelocatable(0, 2), v.RunContext.Pc)
	require.Len(t, v.Trace, 1)
}

// jmp rel: pc_update=jump_rel, res=op1 (an immediate felt offset). dst
// and op0 are unused by a plain jump but still must resolve to an
// existing cell, since NOp deduces neither.
func TestStepJumpRel(t *testing.T) {
	v, base := newTestVM()

	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(1, 0), memory.NewMaybeRelocatableFelt(felt.Zero())))

	inst := vm.Instruction{
		OffDst:      0,
		OffOp0:      0,
		OffOp1:      1,
		DstRegister: vm.Ap,
		Op0Register: vm.Ap,
		Op1Source:   vm.Op1SrcImm,
		ResLogic:    vm.ResOp1,
		PcUpdate:    vm.PcUpdateJumpRel,
		ApUpdate:    vm.ApUpdateRegular,
		FpUpdate:    vm.FpUpdateRegular,
		Opcode:      vm.NOp,
	}
	word := inst.Encode()
	require.NoError(t, v.Segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(word))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(0, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(10))))

	require.NoError(t, v.Step())

	require.Equal(t, memory.NewRelocatable(0, 10), v.RunContext.Pc)
}

// jnz with a zero dst falls through to pc+size; with a nonzero dst it
// jumps by op1.
func TestStepJnz(t *testing.T) {
	v, base := newTestVM()

	inst := vm.Instruction{
		OffDst:      0,
		OffOp0:      0,
		OffOp1:      1,
		DstRegister: vm.Ap,
		Op0Register: vm.Ap,
		Op1Source:   vm.Op1SrcImm,
		ResLogic:    vm.ResUnconstrained,
		PcUpdate:    vm.PcUpdateJnz,
		ApUpdate:    vm.ApUpdateRegular,
		FpUpdate:    vm.FpUpdateRegular,
		Opcode:      vm.NOp,
	}
	word := inst.Encode()
	require.NoError(t, v.Segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(word))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(0, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(7))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(1, 0), memory.NewMaybeRelocatableFelt(felt.Zero()))) // dst = 0

	require.NoError(t, v.Step())

	require.Equal(t, memory.NewRelocatable(0, 2), v.RunContext.Pc)
}

// call pushes (return_fp, return_pc) at [ap+0], [ap+1] and bumps both
// ap and fp by 2.
func TestCallPushesReturnInfoAndBumpsApFp(t *testing.T) {
	v, base := newTestVM()

	call := vm.Instruction{
		OffDst:      0,
		OffOp0:      1,
		OffOp1:      1,
		DstRegister: vm.Ap,
		Op0Register: vm.Ap,
		Op1Source:   vm.Op1SrcImm,
		ResLogic:    vm.ResOp1,
		PcUpdate:    vm.PcUpdateRegular,
		ApUpdate:    vm.ApUpdateRegular,
		FpUpdate:    vm.FpUpdateRegular,
		Opcode:      vm.Call,
	}
	word := call.Encode()
	require.NoError(t, v.Segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(word))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(0, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(99))))

	savedFp := v.RunContext.Fp
	require.NoError(t, v.Step())

	returnFp, err := v.Segments.Memory.GetRelocatable(memory.NewRelocatable(1, 0))
	require.NoError(t, err)
	require.Equal(t, savedFp, returnFp)

	returnPc, err := v.Segments.Memory.GetRelocatable(memory.NewRelocatable(1, 1))
	require.NoError(t, err)
	require.Equal(t, memory.NewRelocatable(0, 2), returnPc)

	require.Equal(t, memory.NewRelocatable(1, 2), v.RunContext.Fp)
	require.Equal(t, memory.NewRelocatable(1, 2), v.RunContext.Ap)
}

func TestRelocateProducesFlatMemoryAndTrace(t *testing.T) {
	v, base := newTestVM()

	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(1, 0), memory.NewMaybeRelocatableFelt(felt.Zero())))

	inst := vm.Instruction{
		OffDst:      0,
		OffOp0:      0,
		OffOp1:      1,
		DstRegister: vm.Ap,
		Op0Register: vm.Ap,
		Op1Source:   vm.Op1SrcImm,
		ResLogic:    vm.ResOp1,
		PcUpdate:    vm.PcUpdateRegular,
		ApUpdate:    vm.ApUpdateRegular,
		FpUpdate:    vm.FpUpdateRegular,
		Opcode:      vm.NOp,
	}
	word := inst.Encode()
	require.NoError(t, v.Segments.Memory.Insert(base, memory.NewMaybeRelocatableFelt(felt.FromUint64(word))))
	require.NoError(t, v.Segments.Memory.Insert(memory.NewRelocatable(0, 1), memory.NewMaybeRelocatableFelt(felt.FromUint64(42))))

	require.NoError(t, v.Step())
	require.NoError(t, v.Relocate())

	trace, err := v.GetRelocatedTrace()
	require.NoError(t, err)
	require.Len(t, trace, 1)
	require.Equal(t, felt.FromUint64(1), trace[0].Pc) // base_0 == 1
}
