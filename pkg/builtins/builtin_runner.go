package builtins

import "github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"

// BuiltinRunner is the uniform contract every coprocessor builtin
// implements so the VM's step loop and the Cairo runner's end-of-run
// bookkeeping can treat all nine builtins polymorphically.
type BuiltinRunner interface {
	// Base returns the first address of the builtin's memory segment.
	Base() memory.Relocatable
	// Name returns the builtin's name, as it appears in a program header.
	Name() string
	// InitializeSegments creates the builtin's segment and records its base.
	InitializeSegments(*memory.MemorySegmentManager)
	// InitialStack returns the values pushed onto the execution segment
	// at run start to seed the builtin's pointer.
	InitialStack() []memory.MaybeRelocatable
	// DeduceMemoryCell attempts to deduce the value of a memory cell
	// given its address. Returns (nil, nil) when the address isn't one
	// this builtin can deduce, a value and nil error on success, or a
	// nil value with a non-nil error if deduction was attempted and
	// failed.
	DeduceMemoryCell(memory.Relocatable, *memory.Memory) (*memory.MaybeRelocatable, error)
	// AddValidationRule installs this builtin's write-time validation
	// rule, if it has one, onto memory.
	AddValidationRule(*memory.Memory)
	// Ratio returns the builtin's steps-per-instance ratio, or nil for
	// unratioed builtins (output, segment_arena).
	Ratio() *uint
	// CellsPerInstance returns how many memory cells one logical call
	// to the builtin occupies.
	CellsPerInstance() uint
	// GetUsedInstances returns how many instances of the builtin have
	// been used, derived from the segment's used size.
	GetUsedInstances(*memory.MemorySegmentManager) (uint, error)
	// FinalStack validates the stop pointer immediately before pointer,
	// recording it and returning pointer-1.
	FinalStack(*memory.MemorySegmentManager, memory.Relocatable) (memory.Relocatable, error)
}
