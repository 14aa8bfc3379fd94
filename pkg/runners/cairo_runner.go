// Package runners orchestrates a full Cairo run: loading a compiled
// program, wiring up the builtins a layout and program header agree on,
// stepping the VM to completion, and finalizing its segments.
package runners

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/builtins"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/hintrunner"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/layouts"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// CairoRunner owns a VirtualMachine and the bookkeeping needed to set
// one up from a Program and tear it down at the end of a run.
type CairoRunner struct {
	Program       vm.Program
	Vm            *vm.VirtualMachine
	ProgramBase   memory.Relocatable
	ExecutionBase memory.Relocatable
	Layout        layouts.Layout

	HintRunner hintrunner.HintRunner
	Scopes     hintrunner.ExecutionScopes
}

// NewCairoRunner validates the program's builtin list against layout
// (defaulting to "plain" when layoutName is empty) and constructs a
// runner ready for Initialize.
func NewCairoRunner(program vm.Program, layoutName string) (*CairoRunner, error) {
	if layoutName == "" {
		layoutName = "plain"
	}
	layout, ok := layouts.Get(layoutName)
	if !ok {
		return nil, fmt.Errorf("runners: unknown layout %q: %w", layoutName, vmerrors.ErrBuiltinNotInLayout)
	}

	virtualMachine := vm.NewVirtualMachine()

	for _, name := range program.Builtins {
		if !layout.Has(name) {
			return nil, fmt.Errorf("runners: builtin %q: %w", name, vmerrors.ErrBuiltinNotInLayout)
		}
	}

	for _, spec := range layout.Builtins {
		included := contains(program.Builtins, spec.Name)
		if !included {
			continue
		}
		runner, err := builtins.New(spec.Name, included, spec.Ratio)
		if err != nil {
			return nil, err
		}
		virtualMachine.BuiltinRunners = append(virtualMachine.BuiltinRunners, runner)
	}

	return &CairoRunner{
		Program:    program,
		Vm:         virtualMachine,
		Layout:     layout,
		HintRunner: hintrunner.NoOpRunner{},
		Scopes:     hintrunner.NewExecutionScopes(),
	}, nil
}

// OutputBuiltin returns the run's output builtin, if the program uses
// one, so a hint (e.g. one splitting nested-call output into pages) can
// call AddPage/SetState on it.
func (r *CairoRunner) OutputBuiltin() (*builtins.OutputBuiltinRunner, bool) {
	for i := range r.Vm.BuiltinRunners {
		if out, ok := r.Vm.BuiltinRunners[i].(*builtins.OutputBuiltinRunner); ok {
			return out, true
		}
	}
	return nil, false
}

func contains(list []string, name string) bool {
	for _, l := range list {
		if l == name {
			return true
		}
	}
	return false
}

// Initialize loads the program into a fresh segment, sets up the
// execution segment with its bootstrap return-fp/end-ptr pair and every
// included builtin's initial stack, and points PC/AP/FP at the start of
// execution. It returns the end pointer the run loop halts on.
func (r *CairoRunner) Initialize() (memory.Relocatable, error) {
	programBase := r.Vm.Segments.AddSegment()
	r.ProgramBase = programBase
	if _, err := r.Vm.Segments.Memory.LoadData(programBase, r.Program.Data); err != nil {
		return memory.Relocatable{}, err
	}

	for i := range r.Vm.BuiltinRunners {
		r.Vm.BuiltinRunners[i].InitializeSegments(&r.Vm.Segments)
		r.Vm.BuiltinRunners[i].AddValidationRule(r.Vm.Segments.Memory)
	}

	executionBase := r.Vm.Segments.AddSegment()
	r.ExecutionBase = executionBase
	returnFpSegment := r.Vm.Segments.AddSegment()
	endSegment := r.Vm.Segments.AddSegment()
	endPtr := memory.NewRelocatable(endSegment.SegmentIndex, 0)

	stackTop := executionBase
	var err error
	stackTop, err = r.Vm.Segments.Memory.LoadData(stackTop, []memory.MaybeRelocatable{
		*memory.NewMaybeRelocatableRelocatable(returnFpSegment),
		*memory.NewMaybeRelocatableRelocatable(endPtr),
	})
	if err != nil {
		return memory.Relocatable{}, err
	}

	for i := range r.Vm.BuiltinRunners {
		stack := r.Vm.BuiltinRunners[i].InitialStack()
		if len(stack) == 0 {
			continue
		}
		stackTop, err = r.Vm.Segments.Memory.LoadData(stackTop, stack)
		if err != nil {
			return memory.Relocatable{}, err
		}
	}

	r.Vm.RunContext.Pc = programBase
	r.Vm.RunContext.Ap = stackTop
	r.Vm.RunContext.Fp = stackTop

	return endPtr, nil
}

// Run steps the VM until PC reaches endPtr, running any hints attached
// to the current PC before each instruction decodes (§4.H step 1).
func (r *CairoRunner) Run(endPtr memory.Relocatable) error {
	for !r.Vm.RunContext.Pc.Equal(endPtr) {
		if err := r.runHintsAtPc(); err != nil {
			return err
		}
		if err := r.Vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

// runHintsAtPc invokes every hint attached to the instruction offset the
// PC currently points at, in declared order.
func (r *CairoRunner) runHintsAtPc() error {
	offset, err := r.Vm.RunContext.Pc.SubRelocatable(r.ProgramBase)
	if err != nil {
		return nil
	}
	hints, ok := r.Program.Hints[uint(offset)]
	if !ok {
		return nil
	}
	for i := range hints {
		if err := r.HintRunner.RunHint(r.Vm, &r.Scopes, &hints[i]); err != nil {
			return fmt.Errorf("hint at pc offset %d: %w", offset, err)
		}
	}
	return nil
}

// EndRun finalizes every included builtin's stack in reverse declaration
// order and relocates memory and trace into the flat address space. In
// proofMode it additionally requires the execution segment's final used
// size to be a power of two, as a prover's trace padding expects.
func (r *CairoRunner) EndRun(stackPointer memory.Relocatable, proofMode bool) error {
	pointer := stackPointer
	for i := len(r.Vm.BuiltinRunners) - 1; i >= 0; i-- {
		var err error
		pointer, err = r.Vm.BuiltinRunners[i].FinalStack(&r.Vm.Segments, pointer)
		if err != nil {
			return err
		}
	}

	if proofMode {
		if err := r.checkProofModeAlignment(); err != nil {
			return err
		}
	}

	return r.Vm.Relocate()
}

// checkProofModeAlignment verifies the execution segment's used size is
// a power of two, the padding shape a STARK trace commits to.
func (r *CairoRunner) checkProofModeAlignment() error {
	size, ok := r.Vm.Segments.GetSegmentUsedSize(r.ExecutionBase.SegmentIndex)
	if !ok || size == 0 || size&(size-1) != 0 {
		return fmt.Errorf("execution segment size %d: %w", size, vmerrors.ErrProofModeAlignment)
	}
	return nil
}
