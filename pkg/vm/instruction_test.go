package vm_test

import (
	"testing"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	cases := []vm.Instruction{
		{OffDst: 0, OffOp0: 1, OffOp1: 2, DstRegister: vm.Ap, Op0Register: vm.Ap, Op1Source: vm.Op1SrcImm, ResLogic: vm.ResAdd, PcUpdate: vm.PcUpdateRegular, ApUpdate: vm.ApUpdateRegular, FpUpdate: vm.FpUpdateRegular, Opcode: vm.NOp},
		{OffDst: -1, OffOp0: -2, OffOp1: 0, DstRegister: vm.Fp, Op0Register: vm.Fp, Op1Source: vm.Op1SrcOp0, ResLogic: vm.ResMul, PcUpdate: vm.PcUpdateJumpRel, ApUpdate: vm.ApUpdateAdd, FpUpdate: vm.FpUpdateRegular, Opcode: vm.NOp},
		{OffDst: -1, OffOp0: 0, OffOp1: 1, DstRegister: vm.Fp, Op0Register: vm.Fp, Op1Source: vm.Op1SrcOp0, ResLogic: vm.ResOp1, PcUpdate: vm.PcUpdateJump, ApUpdate: vm.ApUpdateRegular, FpUpdate: vm.FpUpdateDst, Opcode: vm.Ret},
		{OffDst: 0, OffOp0: 1, OffOp1: 1, DstRegister: vm.Ap, Op0Register: vm.Fp, Op1Source: vm.Op1SrcImm, ResLogic: vm.ResOp1, PcUpdate: vm.PcUpdateRegular, ApUpdate: vm.ApUpdateAdd2, FpUpdate: vm.FpUpdateAPPlus2, Opcode: vm.Call},
		{OffDst: 0, OffOp0: 0, OffOp1: 0, DstRegister: vm.Ap, Op0Register: vm.Ap, Op1Source: vm.Op1SrcAp, ResLogic: vm.ResUnconstrained, PcUpdate: vm.PcUpdateJnz, ApUpdate: vm.ApUpdateRegular, FpUpdate: vm.FpUpdateRegular, Opcode: vm.AssertEq},
	}

	for _, c := range cases {
		word := c.Encode()
		decoded, err := vm.DecodeInstruction(word)
		require.NoError(t, err)
		require.Equal(t, c, decoded)
	}
}

func TestDecodeRejectsBit63(t *testing.T) {
	_, err := vm.DecodeInstruction(1 << 63)
	require.Error(t, err)
}

func TestDecodeRejectsMultipleOp1SrcBits(t *testing.T) {
	// Set both op1_imm and op1_fp (flag bits 2 and 3).
	word := uint64(1)<<(48+2) | uint64(1)<<(48+3)
	_, err := vm.DecodeInstruction(word)
	require.Error(t, err)
}

func TestDecodeRejectsJnzWithConstrainedRes(t *testing.T) {
	// pc_jnz bit (9) and res_add bit (5) both set.
	word := uint64(1)<<(48+9) | uint64(1)<<(48+5)
	_, err := vm.DecodeInstruction(word)
	require.Error(t, err)
}

func TestInstructionSize(t *testing.T) {
	withImm := vm.Instruction{Op1Source: vm.Op1SrcImm}
	require.Equal(t, uint(2), withImm.Size())

	withoutImm := vm.Instruction{Op1Source: vm.Op1SrcFp}
	require.Equal(t, uint(1), withoutImm.Size())
}
