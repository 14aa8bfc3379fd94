package builtins

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// base holds the bookkeeping every concrete builtin runner shares: its
// segment base, whether it was actually requested by the program, the
// stop pointer recorded at end-of-run, and its layout-assigned ratio.
type base struct {
	name             string
	included         bool
	segmentBase      memory.Relocatable
	stopPtr          *memory.Relocatable
	ratio            *uint
	cellsPerInstance uint
}

func (b *base) Name() string { return b.name }

func (b *base) Base() memory.Relocatable { return b.segmentBase }

func (b *base) Ratio() *uint { return b.ratio }

func (b *base) CellsPerInstance() uint { return b.cellsPerInstance }

func (b *base) initializeSegments(segments *memory.MemorySegmentManager) {
	b.segmentBase = segments.AddSegment()
}

func (b *base) getUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	size, ok := segments.GetSegmentUsedSize(b.segmentBase.SegmentIndex)
	if !ok {
		return 0, nil
	}
	return (size + b.cellsPerInstance - 1) / b.cellsPerInstance, nil
}

// finalStack implements the shared stop-pointer validation every
// builtin's FinalStack performs: the cell at pointer-1 must be a
// relocatable on this builtin's segment whose offset equals the number
// of used instances (used cells rounded up to whole instances) times the
// cells per instance.
func (b *base) finalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	if !b.included {
		return pointer, nil
	}

	stopPtrAddr, err := pointer.SubUint(1)
	if err != nil {
		return memory.Relocatable{}, fmt.Errorf("%w: %s", vmerrors.ErrNoStopPointer, err)
	}

	cell, err := segments.Memory.Get(stopPtrAddr)
	if err != nil {
		return memory.Relocatable{}, fmt.Errorf("%s finalStack: %w", b.name, vmerrors.ErrNoStopPointer)
	}
	stopPtr, ok := cell.GetRelocatable()
	if !ok {
		return memory.Relocatable{}, fmt.Errorf("%s finalStack: %w", b.name, vmerrors.ErrInvalidStopPointer)
	}
	if stopPtr.SegmentIndex != b.segmentBase.SegmentIndex {
		return memory.Relocatable{}, fmt.Errorf("%s finalStack: %w", b.name, vmerrors.ErrInvalidStopPointerIndex)
	}

	used, err := b.getUsedInstances(segments)
	if err != nil {
		return memory.Relocatable{}, err
	}
	if stopPtr.Offset != used*b.cellsPerInstance {
		return memory.Relocatable{}, fmt.Errorf("%s finalStack: %w", b.name, vmerrors.ErrInvalidStopPointer)
	}

	b.stopPtr = &stopPtr
	return stopPtrAddr, nil
}
