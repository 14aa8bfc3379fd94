package vm

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

// RunContext holds the VM's three registers: the program counter and the
// allocation and frame pointers into the execution segment.
type RunContext struct {
	Pc memory.Relocatable
	Ap memory.Relocatable
	Fp memory.Relocatable
}

// ComputeDstAddr returns the address dst is read from or written to.
func (r *RunContext) ComputeDstAddr(instruction Instruction) (memory.Relocatable, error) {
	base := r.Ap
	if instruction.DstRegister == Fp {
		base = r.Fp
	}
	return base.AddInt(instruction.OffDst)
}

// ComputeOp0Addr returns the address op0 is read from.
func (r *RunContext) ComputeOp0Addr(instruction Instruction) (memory.Relocatable, error) {
	base := r.Ap
	if instruction.Op0Register == Fp {
		base = r.Fp
	}
	return base.AddInt(instruction.OffOp0)
}

// ComputeOp1Addr returns the address op1 is read from. When op1's source
// is Op0, op0 must already have been read (or deduced) and is passed in.
func (r *RunContext) ComputeOp1Addr(instruction Instruction, op0 *memory.MaybeRelocatable) (memory.Relocatable, error) {
	var base memory.Relocatable
	switch instruction.Op1Source {
	case Op1SrcFp:
		base = r.Fp
	case Op1SrcAp:
		base = r.Ap
	case Op1SrcImm:
		if instruction.OffOp1 != 1 {
			return memory.Relocatable{}, fmt.Errorf("op1 immediate must have offset 1, got %d", instruction.OffOp1)
		}
		base = r.Pc
	case Op1SrcOp0:
		if op0 == nil {
			return memory.Relocatable{}, fmt.Errorf("op1 source op0 requires op0 to already be known")
		}
		rel, err := op0.IntoRelocatable()
		if err != nil {
			return memory.Relocatable{}, err
		}
		base = rel
	}
	return base.AddInt(instruction.OffOp1)
}
