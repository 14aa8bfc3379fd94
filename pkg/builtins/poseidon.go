package builtins

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

const (
	PoseidonName             = "poseidon"
	poseidonCellsPerInstance = 6
	poseidonStateWidth       = 3
)

// PoseidonBuiltinRunner deduces an instance's 3 output cells by running
// its 3 input cells through the Poseidon permutation.
type PoseidonBuiltinRunner struct {
	base
}

func NewPoseidonBuiltinRunner(included bool, ratio *uint) *PoseidonBuiltinRunner {
	return &PoseidonBuiltinRunner{base{name: PoseidonName, included: included, ratio: ratio, cellsPerInstance: poseidonCellsPerInstance}}
}

func (p *PoseidonBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	p.initializeSegments(segments)
}

func (p *PoseidonBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !p.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(p.segmentBase)}
}

func (p *PoseidonBuiltinRunner) DeduceMemoryCell(address memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error) {
	slot := address.Offset % poseidonCellsPerInstance
	if slot < poseidonStateWidth {
		return nil, nil
	}

	instanceBase := address.Offset - slot
	var state [poseidonStateWidth]felt.Felt
	for i := uint(0); i < poseidonStateWidth; i++ {
		f, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, instanceBase+i))
		if err != nil {
			return nil, nil
		}
		state[i] = f
	}

	starknetcrypto.PoseidonPermutation(&state)
	return memory.NewMaybeRelocatableFelt(state[slot-poseidonStateWidth]), nil
}

func (p *PoseidonBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (p *PoseidonBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return p.getUsedInstances(segments)
}

func (p *PoseidonBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return p.finalStack(segments, pointer)
}
