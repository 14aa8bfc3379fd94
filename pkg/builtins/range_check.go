package builtins

import (
	"fmt"
	"math/big"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

const (
	RangeCheckName             = "range_check"
	rangeCheckCellsPerInstance = 1
	rangeCheckNParts           = 8
)

// rangeCheckBound is 2^128, the width a single range-checked cell's
// value must fit under.
var rangeCheckBound = new(big.Int).Lsh(big.NewInt(1), 8*rangeCheckNParts*2)

// RangeCheckBuiltinRunner has no deduction; every write is validated to
// be a felt strictly below 2^128.
type RangeCheckBuiltinRunner struct {
	base
}

func NewRangeCheckBuiltinRunner(included bool, ratio *uint) *RangeCheckBuiltinRunner {
	return &RangeCheckBuiltinRunner{base{name: RangeCheckName, included: included, ratio: ratio, cellsPerInstance: rangeCheckCellsPerInstance}}
}

func (r *RangeCheckBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	r.initializeSegments(segments)
}

func (r *RangeCheckBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !r.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(r.segmentBase)}
}

func (r *RangeCheckBuiltinRunner) DeduceMemoryCell(memory.Relocatable, *memory.Memory) (*memory.MaybeRelocatable, error) {
	return nil, nil
}

func (r *RangeCheckBuiltinRunner) AddValidationRule(mem *memory.Memory) {
	mem.AddValidationRule(uint(r.segmentBase.SegmentIndex), func(m *memory.Memory, addr memory.Relocatable) ([]memory.Relocatable, error) {
		f, err := m.GetFelt(addr)
		if err != nil {
			return nil, fmt.Errorf("range check at %s: %w", addr, vmerrors.ErrRangecheckNonInt)
		}
		if f.ToBigInt().Cmp(rangeCheckBound) >= 0 {
			return nil, fmt.Errorf("range check at %s: %w", addr, vmerrors.ErrRangeCheckNumberOutOfBound)
		}
		return []memory.Relocatable{addr}, nil
	})
}

func (r *RangeCheckBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return r.getUsedInstances(segments)
}

func (r *RangeCheckBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return r.finalStack(segments, pointer)
}
