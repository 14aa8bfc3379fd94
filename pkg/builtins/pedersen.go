package builtins

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

const (
	PedersenName             = "pedersen"
	pedersenCellsPerInstance = 3
)

// PedersenBuiltinRunner computes the Pedersen hash of its first two
// instance cells into the third, on read.
type PedersenBuiltinRunner struct {
	base
}

func NewPedersenBuiltinRunner(included bool, ratio *uint) *PedersenBuiltinRunner {
	return &PedersenBuiltinRunner{base{name: PedersenName, included: included, ratio: ratio, cellsPerInstance: pedersenCellsPerInstance}}
}

func (p *PedersenBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	p.initializeSegments(segments)
}

func (p *PedersenBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !p.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(p.segmentBase)}
}

func (p *PedersenBuiltinRunner) DeduceMemoryCell(address memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error) {
	if address.Offset%pedersenCellsPerInstance != 2 {
		return nil, nil
	}

	a, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, address.Offset-2))
	if err != nil {
		return nil, nil
	}
	b, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, address.Offset-1))
	if err != nil {
		return nil, nil
	}

	return memory.NewMaybeRelocatableFelt(starknetcrypto.PedersenHash(a, b)), nil
}

func (p *PedersenBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (p *PedersenBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return p.getUsedInstances(segments)
}

func (p *PedersenBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return p.finalStack(segments, pointer)
}
