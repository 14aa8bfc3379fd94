package builtins

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

const (
	OutputName             = "output"
	outputCellsPerInstance = 1
)

// OutputPage records a named slice of the output segment, as carved out
// by a program's "data availability" hints for prover consumption.
type OutputPage struct {
	Start memory.Relocatable
	Size  uint
}

// OutputBuiltinRunner has no deduction and no ratio: every cell written
// to its segment is public program output, verbatim. It additionally
// tracks named pages of that segment for nested-call output splitting.
type OutputBuiltinRunner struct {
	base
	pages map[uint]OutputPage
}

func NewOutputBuiltinRunner(included bool) *OutputBuiltinRunner {
	return &OutputBuiltinRunner{
		base:  base{name: OutputName, included: included, cellsPerInstance: outputCellsPerInstance},
		pages: make(map[uint]OutputPage),
	}
}

func (o *OutputBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	o.initializeSegments(segments)
}

func (o *OutputBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !o.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(o.segmentBase)}
}

func (o *OutputBuiltinRunner) DeduceMemoryCell(memory.Relocatable, *memory.Memory) (*memory.MaybeRelocatable, error) {
	return nil, nil
}

func (o *OutputBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (o *OutputBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return o.getUsedInstances(segments)
}

func (o *OutputBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return o.finalStack(segments, pointer)
}

// AddPage records a named slice [start, start+size) of the output
// segment. start must lie on this builtin's segment, and id must not
// already have a page.
func (o *OutputBuiltinRunner) AddPage(id uint, start memory.Relocatable, size uint) error {
	if start.SegmentIndex != o.segmentBase.SegmentIndex {
		return fmt.Errorf("output: page %d start %s is not on the output segment", id, start)
	}
	if _, exists := o.pages[id]; exists {
		return fmt.Errorf("output: page id %d already registered", id)
	}
	o.pages[id] = OutputPage{Start: start, Size: size}
	return nil
}

// SetState replaces the runner's segment base and page table, as a
// nested call returning to an outer scope restores the output state
// that was active before the call.
func (o *OutputBuiltinRunner) SetState(base memory.Relocatable, pages map[uint]OutputPage) {
	o.segmentBase = base
	o.pages = pages
}

// Pages returns the page table, keyed by page id.
func (o *OutputBuiltinRunner) Pages() map[uint]OutputPage {
	return o.pages
}
