package builtins

import "github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"

const (
	SegmentArenaName             = "segment_arena"
	segmentArenaCellsPerInstance = 3
)

// SegmentArenaBuiltinRunner has no deduction rule; it is a marker
// builtin whose segment holds, per call, a 3-cell header: the base of a
// freshly allocated segment, that segment's current end offset, and the
// number of segments finalized so far.
type SegmentArenaBuiltinRunner struct {
	base
}

func NewSegmentArenaBuiltinRunner(included bool) *SegmentArenaBuiltinRunner {
	return &SegmentArenaBuiltinRunner{base{name: SegmentArenaName, included: included, cellsPerInstance: segmentArenaCellsPerInstance}}
}

func (s *SegmentArenaBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	s.initializeSegments(segments)
}

func (s *SegmentArenaBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !s.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(s.segmentBase)}
}

func (s *SegmentArenaBuiltinRunner) DeduceMemoryCell(memory.Relocatable, *memory.Memory) (*memory.MaybeRelocatable, error) {
	return nil, nil
}

func (s *SegmentArenaBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (s *SegmentArenaBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return s.getUsedInstances(segments)
}

func (s *SegmentArenaBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return s.finalStack(segments, pointer)
}
