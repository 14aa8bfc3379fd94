package builtins

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

const (
	KeccakName             = "keccak"
	keccakCellsPerInstance = 16
	keccakInputWords       = 8
)

// KeccakBuiltinRunner deduces an instance's 8 output cells from its 8
// input cells by running them through starknetcrypto.KeccakF1600, a
// Keccak-256 sponge over the input lanes.
type KeccakBuiltinRunner struct {
	base
}

func NewKeccakBuiltinRunner(included bool, ratio *uint) *KeccakBuiltinRunner {
	return &KeccakBuiltinRunner{base{name: KeccakName, included: included, ratio: ratio, cellsPerInstance: keccakCellsPerInstance}}
}

func (k *KeccakBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	k.initializeSegments(segments)
}

func (k *KeccakBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !k.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(k.segmentBase)}
}

func (k *KeccakBuiltinRunner) DeduceMemoryCell(address memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error) {
	slot := address.Offset % keccakCellsPerInstance
	if slot < keccakInputWords {
		return nil, nil
	}

	instanceBase := address.Offset - slot
	var lanes [25]uint64
	for i := uint(0); i < keccakInputWords; i++ {
		f, err := mem.GetFelt(memory.NewRelocatable(address.SegmentIndex, instanceBase+i))
		if err != nil {
			return nil, nil
		}
		word, err := f.ToU64()
		if err != nil {
			return nil, nil
		}
		lanes[i] = word
	}

	out := starknetcrypto.KeccakF1600(lanes)
	return memory.NewMaybeRelocatableFelt(felt.FromUint64(out[slot-keccakInputWords])), nil
}

func (k *KeccakBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (k *KeccakBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return k.getUsedInstances(segments)
}

func (k *KeccakBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return k.finalStack(segments, pointer)
}
