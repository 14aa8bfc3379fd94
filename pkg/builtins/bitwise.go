package builtins

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

const (
	BitwiseName             = "bitwise"
	bitwiseCellsPerInstance = 5
	bitwiseOperandMaxBits   = 251
)

// BitwiseBuiltinRunner deduces the and/xor/or of an instance's first two
// cells into its third, fourth and fifth cells.
type BitwiseBuiltinRunner struct {
	base
}

func NewBitwiseBuiltinRunner(included bool, ratio *uint) *BitwiseBuiltinRunner {
	return &BitwiseBuiltinRunner{base{name: BitwiseName, included: included, ratio: ratio, cellsPerInstance: bitwiseCellsPerInstance}}
}

func (bw *BitwiseBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	bw.initializeSegments(segments)
}

func (bw *BitwiseBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !bw.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(bw.segmentBase)}
}

func (bw *BitwiseBuiltinRunner) DeduceMemoryCell(address memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error) {
	slot := address.Offset % bitwiseCellsPerInstance
	if slot < 2 {
		return nil, nil
	}

	instanceBase := address.Offset - slot
	x, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, instanceBase))
	if err != nil {
		return nil, nil
	}
	y, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, instanceBase+1))
	if err != nil {
		return nil, nil
	}

	if x.NumBits() > bitwiseOperandMaxBits || y.NumBits() > bitwiseOperandMaxBits {
		return nil, fmt.Errorf("bitwise instance at %s: %w", memory.NewRelocatable(address.SegmentIndex, instanceBase), vmerrors.ErrBitwiseOperandTooLarge)
	}

	var result = x.And(y)
	switch slot {
	case 3:
		result = x.Xor(y)
	case 4:
		result = x.Or(y)
	}
	return memory.NewMaybeRelocatableFelt(result), nil
}

func (bw *BitwiseBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (bw *BitwiseBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return bw.getUsedInstances(segments)
}

func (bw *BitwiseBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return bw.finalStack(segments, pointer)
}
