package vm

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/builtins"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// VirtualMachine runs Cairo assembly one instruction at a time and
// accumulates the execution trace that a prover later commits to.
type VirtualMachine struct {
	RunContext      RunContext
	CurrentStep     uint
	Segments        memory.MemorySegmentManager
	BuiltinRunners  []builtins.BuiltinRunner
	Trace           []TraceEntry
	RelocatedTrace  []RelocatedTraceEntry
	RelocatedMemory map[uint]felt.Felt
}

// NewVirtualMachine builds an empty VM: no segments allocated, no
// builtins attached. Callers wire builtins in via BuiltinRunners and set
// up the initial stack before the first Step.
func NewVirtualMachine() *VirtualMachine {
	vm := &VirtualMachine{
		Segments:       memory.NewMemorySegmentManager(),
		BuiltinRunners: make([]builtins.BuiltinRunner, 0, 9),
		Trace:          make([]TraceEntry, 0),
		RelocatedTrace: make([]RelocatedTraceEntry, 0),
	}
	vm.Segments.Memory.SetDeduceMemoryCell(vm.DeduceMemoryCell)
	return vm
}

// Step fetches, decodes and runs the instruction at the current Pc.
func (vm *VirtualMachine) Step() error {
	encodedInstruction, err := vm.Segments.Memory.Get(vm.RunContext.Pc)
	if err != nil {
		return fmt.Errorf("fetch instruction at %s: %w", vm.RunContext.Pc, vmerrors.ErrInstructionFetch)
	}

	encodedFelt, ok := encodedInstruction.GetFelt()
	if !ok {
		return fmt.Errorf("instruction at %s: %w", vm.RunContext.Pc, vmerrors.ErrInstructionEncoding)
	}

	encodedWord, err := encodedFelt.ToU64()
	if err != nil {
		return fmt.Errorf("instruction at %s: %w", vm.RunContext.Pc, vmerrors.ErrInstructionEncoding)
	}

	instruction, err := DecodeInstruction(encodedWord)
	if err != nil {
		return err
	}

	return vm.RunInstruction(&instruction)
}

// RunInstruction computes the instruction's operands, checks its
// assertions, appends a trace entry and advances the registers.
func (vm *VirtualMachine) RunInstruction(instruction *Instruction) error {
	operands, err := vm.ComputeOperands(*instruction)
	if err != nil {
		return err
	}

	if err := vm.OpcodeAssertions(*instruction, operands); err != nil {
		return err
	}

	vm.Trace = append(vm.Trace, TraceEntry{Pc: vm.RunContext.Pc, Ap: vm.RunContext.Ap, Fp: vm.RunContext.Fp})

	if err := vm.UpdateRegisters(instruction, &operands); err != nil {
		return err
	}

	vm.CurrentStep++
	return nil
}

// RelocateTrace flattens every trace entry's registers using the
// relocation table produced by Relocate.
func (vm *VirtualMachine) RelocateTrace(relocationTable *[]uint) error {
	if len(*relocationTable) < 2 {
		return fmt.Errorf("relocate trace: %w", vmerrors.ErrMissingSegmentUsedSizes)
	}

	for _, entry := range vm.Trace {
		pc, err := entry.Pc.RelocateAddress(relocationTable)
		if err != nil {
			return err
		}
		ap, err := entry.Ap.RelocateAddress(relocationTable)
		if err != nil {
			return err
		}
		fp, err := entry.Fp.RelocateAddress(relocationTable)
		if err != nil {
			return err
		}
		vm.RelocatedTrace = append(vm.RelocatedTrace, RelocatedTraceEntry{
			Pc: felt.FromUint64(uint64(pc)),
			Ap: felt.FromUint64(uint64(ap)),
			Fp: felt.FromUint64(uint64(fp)),
		})
	}

	return nil
}

// GetRelocatedTrace returns the relocated trace, failing if Relocate
// hasn't run yet.
func (vm *VirtualMachine) GetRelocatedTrace() ([]RelocatedTraceEntry, error) {
	if len(vm.RelocatedTrace) == 0 {
		return nil, fmt.Errorf("trace not relocated")
	}
	return vm.RelocatedTrace, nil
}

// Relocate finalizes segment sizes, computes the flat base table and
// flattens both memory and trace into the single linear address space a
// prover consumes. When no step has run (the trace is empty) it stops
// after finalizing sizes and relocates neither memory nor trace.
func (vm *VirtualMachine) Relocate() error {
	vm.Segments.ComputeEffectiveSizes()
	if len(vm.Trace) == 0 {
		return nil
	}

	relocationTable, ok := vm.Segments.RelocateSegments()
	if !ok {
		return fmt.Errorf("relocate: effective sizes computed but RelocateSegments still failed")
	}

	relocatedMemory, err := vm.Segments.RelocateMemory(&relocationTable)
	if err != nil {
		return err
	}

	if err := vm.RelocateTrace(&relocationTable); err != nil {
		return err
	}
	vm.RelocatedMemory = relocatedMemory
	return nil
}

// Operands holds the three operand cells plus the derived "res" value
// (nil when ResLogic is unconstrained) for a single instruction.
type Operands struct {
	Dst memory.MaybeRelocatable
	Res *memory.MaybeRelocatable
	Op0 memory.MaybeRelocatable
	Op1 memory.MaybeRelocatable
}

// OpcodeAssertions checks the invariants an AssertEq or Call opcode
// imposes on the computed operands.
func (vm *VirtualMachine) OpcodeAssertions(instruction Instruction, operands Operands) error {
	switch instruction.Opcode {
	case AssertEq:
		if operands.Res == nil {
			return vmerrors.ErrUnconstrainedResAssertEq
		}
		if !operands.Res.IsEqual(&operands.Dst) {
			return vmerrors.ErrDiffAssertValues
		}
	case Call:
		returnPcRel, err := vm.RunContext.Pc.AddUint(instruction.Size())
		if err != nil {
			return err
		}
		returnPC := memory.NewMaybeRelocatableRelocatable(returnPcRel)
		if !operands.Op0.IsEqual(returnPC) {
			return vmerrors.ErrCantWriteReturnPc
		}

		returnFP := vm.RunContext.Fp
		dstRelocatable, _ := operands.Dst.GetRelocatable()
		if !returnFP.Equal(dstRelocatable) {
			return vmerrors.ErrCantWriteReturnFp
		}
	}

	return nil
}

// DeduceDst returns the value dst must hold for opcodes that constrain
// it directly, or nil if dst can only come from memory.
func (vm *VirtualMachine) DeduceDst(instruction Instruction, res *memory.MaybeRelocatable) *memory.MaybeRelocatable {
	switch instruction.Opcode {
	case AssertEq:
		return res
	case Call:
		return memory.NewMaybeRelocatableRelocatable(vm.RunContext.Fp)
	}
	return nil
}

// DeduceOp0 deduces op0 (and, incidentally, res) from dst and op1 when
// the opcode or res logic makes that possible.
func (vm *VirtualMachine) DeduceOp0(instruction *Instruction, dst *memory.MaybeRelocatable, op1 *memory.MaybeRelocatable) (deducedOp0 *memory.MaybeRelocatable, deducedRes *memory.MaybeRelocatable, err error) {
	switch instruction.Opcode {
	case Call:
		ret, err := vm.RunContext.Pc.AddUint(instruction.Size())
		if err != nil {
			return nil, nil, err
		}
		return memory.NewMaybeRelocatableRelocatable(ret), nil, nil
	case AssertEq:
		switch instruction.ResLogic {
		case ResAdd:
			if dst != nil && op1 != nil {
				deduced, err := dst.Sub(*op1)
				if err != nil {
					return nil, nil, err
				}
				return &deduced, dst, nil
			}
		case ResMul:
			if dst != nil && op1 != nil {
				dstFelt, dstIsFelt := dst.GetFelt()
				op1Felt, op1IsFelt := op1.GetFelt()
				if dstIsFelt && op1IsFelt && !op1Felt.IsZero() {
					return memory.NewMaybeRelocatableFelt(dstFelt.Div(op1Felt)), dst, nil
				}
			}
		}
	}
	return nil, nil, nil
}

// DeduceOp1 deduces op1 (and, incidentally, res) from dst and op0 when
// the res logic makes that possible.
func (vm *VirtualMachine) DeduceOp1(instruction *Instruction, dst *memory.MaybeRelocatable, op0 *memory.MaybeRelocatable) (*memory.MaybeRelocatable, *memory.MaybeRelocatable, error) {
	if instruction.Opcode != AssertEq {
		return nil, nil, nil
	}
	switch instruction.ResLogic {
	case ResOp1:
		return dst, dst, nil
	case ResAdd:
		if op0 != nil && dst != nil {
			deduced, err := dst.Sub(*op0)
			if err != nil {
				return nil, nil, err
			}
			return &deduced, dst, nil
		}
	case ResMul:
		if op0 != nil && dst != nil {
			dstFelt, dstIsFelt := dst.GetFelt()
			op0Felt, op0IsFelt := op0.GetFelt()
			if dstIsFelt && op0IsFelt && !op0Felt.IsZero() {
				return memory.NewMaybeRelocatableFelt(dstFelt.Div(op0Felt)), dst, nil
			}
		}
	}
	return nil, nil, nil
}

// ComputeRes computes the "res" auxiliary value from op0 and op1 per the
// instruction's res logic.
func (vm *VirtualMachine) ComputeRes(instruction Instruction, op0 memory.MaybeRelocatable, op1 memory.MaybeRelocatable) (*memory.MaybeRelocatable, error) {
	switch instruction.ResLogic {
	case ResOp1:
		return &op1, nil
	case ResAdd:
		res, err := op0.Add(op1)
		if err != nil {
			return nil, err
		}
		return &res, nil
	case ResMul:
		op0Felt, op0IsFelt := op0.GetFelt()
		op1Felt, op1IsFelt := op1.GetFelt()
		if !op0IsFelt || !op1IsFelt {
			return nil, fmt.Errorf("res mul: %w", vmerrors.ErrNotImplementedCellArith)
		}
		return memory.NewMaybeRelocatableFelt(op0Felt.Mul(op1Felt)), nil
	case ResUnconstrained:
		return nil, nil
	}
	return nil, nil
}

// ComputeOperands computes the instruction's dst, op0, op1 and res,
// reading each from memory where present and deducing it otherwise.
func (vm *VirtualMachine) ComputeOperands(instruction Instruction) (Operands, error) {
	var res *memory.MaybeRelocatable

	dstAddr, err := vm.RunContext.ComputeDstAddr(instruction)
	if err != nil {
		return Operands{}, fmt.Errorf("compute dst address: %w", err)
	}
	dst, _ := vm.Segments.Memory.Get(dstAddr)

	op0Addr, err := vm.RunContext.ComputeOp0Addr(instruction)
	if err != nil {
		return Operands{}, fmt.Errorf("compute op0 address: %w", err)
	}
	op0Cell, _ := vm.Segments.Memory.Get(op0Addr)

	op1Addr, err := vm.RunContext.ComputeOp1Addr(instruction, op0Cell)
	if err != nil {
		return Operands{}, fmt.Errorf("compute op1 address: %w", err)
	}
	op1Cell, _ := vm.Segments.Memory.Get(op1Addr)

	var op0 memory.MaybeRelocatable
	if op0Cell != nil {
		op0 = *op0Cell
	} else {
		op0, res, err = vm.ComputeOp0Deductions(op0Addr, &instruction, dst, op1Cell)
		if err != nil {
			return Operands{}, err
		}
	}

	var op1 memory.MaybeRelocatable
	if op1Cell != nil {
		op1 = *op1Cell
	} else {
		op1, err = vm.ComputeOp1Deductions(op1Addr, &instruction, dst, op0Cell, res)
		if err != nil {
			return Operands{}, err
		}
	}

	if res == nil {
		res, err = vm.ComputeRes(instruction, op0, op1)
		if err != nil {
			return Operands{}, err
		}
	}

	if dst == nil {
		dst = vm.DeduceDst(instruction, res)
		if dst == nil {
			return Operands{}, vmerrors.ErrNoDst
		}
		if err := vm.Segments.Memory.Insert(dstAddr, dst); err != nil {
			return Operands{}, err
		}
	}

	return Operands{Dst: *dst, Op0: op0, Op1: op1, Res: res}, nil
}

// ComputeOp0Deductions resolves op0 via the builtin registry first, then
// via DeduceOp0, inserting whichever value is found.
func (vm *VirtualMachine) ComputeOp0Deductions(op0Addr memory.Relocatable, instruction *Instruction, dst *memory.MaybeRelocatable, op1 *memory.MaybeRelocatable) (deducedOp0 memory.MaybeRelocatable, deducedRes *memory.MaybeRelocatable, err error) {
	op0, err := vm.DeduceMemoryCell(op0Addr)
	if err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}
	if op0 == nil {
		op0, deducedRes, err = vm.DeduceOp0(instruction, dst, op1)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, err
		}
	}
	if op0 == nil {
		return memory.MaybeRelocatable{}, nil, fmt.Errorf("op0 at %s: %w", op0Addr, vmerrors.ErrFailedToComputeOp0)
	}
	if err := vm.Segments.Memory.Insert(op0Addr, op0); err != nil {
		return memory.MaybeRelocatable{}, nil, err
	}
	return *op0, deducedRes, nil
}

// ComputeOp1Deductions resolves op1 via the builtin registry first, then
// via DeduceOp1, inserting whichever value is found.
func (vm *VirtualMachine) ComputeOp1Deductions(op1Addr memory.Relocatable, instruction *Instruction, dst *memory.MaybeRelocatable, op0 *memory.MaybeRelocatable, res *memory.MaybeRelocatable) (memory.MaybeRelocatable, error) {
	op1, err := vm.DeduceMemoryCell(op1Addr)
	if err != nil {
		return memory.MaybeRelocatable{}, err
	}
	if op1 == nil {
		var deducedRes *memory.MaybeRelocatable
		op1, deducedRes, err = vm.DeduceOp1(instruction, dst, op0)
		if err != nil {
			return memory.MaybeRelocatable{}, err
		}
		if res == nil {
			res = deducedRes
		}
	}
	if op1 == nil {
		return memory.MaybeRelocatable{}, fmt.Errorf("op1 at %s: %w", op1Addr, vmerrors.ErrFailedToComputeOp1)
	}
	if err := vm.Segments.Memory.Insert(op1Addr, op1); err != nil {
		return memory.MaybeRelocatable{}, err
	}
	return *op1, nil
}

// UpdateRegisters advances Fp, Ap and Pc in that order, per the fixed
// dependency Fp/Ap updates have on the already-current Ap when computing
// the new Fp for FpUpdateAPPlus2.
func (vm *VirtualMachine) UpdateRegisters(instruction *Instruction, operands *Operands) error {
	if err := vm.UpdateFp(instruction, operands); err != nil {
		return err
	}
	if err := vm.UpdateAp(instruction, operands); err != nil {
		return err
	}
	return vm.UpdatePc(instruction, operands)
}

// UpdatePc advances Pc per the instruction's PcUpdate rule.
func (vm *VirtualMachine) UpdatePc(instruction *Instruction, operands *Operands) error {
	switch instruction.PcUpdate {
	case PcUpdateRegular:
		next, err := vm.RunContext.Pc.AddUint(instruction.Size())
		if err != nil {
			return err
		}
		vm.RunContext.Pc = next
	case PcUpdateJump:
		if operands.Res == nil {
			return fmt.Errorf("pc_update=jump: %w", vmerrors.ErrUnconstrainedResAssertEq)
		}
		res, ok := operands.Res.GetRelocatable()
		if !ok {
			return fmt.Errorf("pc_update=jump: %w", vmerrors.ErrExpectedRelocatable)
		}
		vm.RunContext.Pc = res
	case PcUpdateJumpRel:
		if operands.Res == nil {
			return fmt.Errorf("pc_update=jump_rel: %w", vmerrors.ErrUnconstrainedResAssertEq)
		}
		res, ok := operands.Res.GetFelt()
		if !ok {
			return fmt.Errorf("pc_update=jump_rel: %w", vmerrors.ErrExpectedInteger)
		}
		newPc, err := vm.RunContext.Pc.AddFelt(res)
		if err != nil {
			return err
		}
		vm.RunContext.Pc = newPc
	case PcUpdateJnz:
		if operands.Dst.IsZero() {
			next, err := vm.RunContext.Pc.AddUint(instruction.Size())
			if err != nil {
				return err
			}
			vm.RunContext.Pc = next
		} else {
			newPc, err := vm.RunContext.Pc.AddMaybeRelocatable(operands.Op1)
			if err != nil {
				return err
			}
			vm.RunContext.Pc = newPc
		}
	}
	return nil
}

// UpdateAp advances Ap per the instruction's ApUpdate rule.
func (vm *VirtualMachine) UpdateAp(instruction *Instruction, operands *Operands) error {
	switch instruction.ApUpdate {
	case ApUpdateAdd:
		if operands.Res == nil {
			return fmt.Errorf("ap_update=add: %w", vmerrors.ErrUnconstrainedResAssertEq)
		}
		newAp, err := vm.RunContext.Ap.AddMaybeRelocatable(*operands.Res)
		if err != nil {
			return err
		}
		vm.RunContext.Ap = newAp
	case ApUpdateAdd1:
		next, err := vm.RunContext.Ap.AddUint(1)
		if err != nil {
			return err
		}
		vm.RunContext.Ap = next
	case ApUpdateAdd2:
		next, err := vm.RunContext.Ap.AddUint(2)
		if err != nil {
			return err
		}
		vm.RunContext.Ap = next
	}
	return nil
}

// UpdateFp advances Fp per the instruction's FpUpdate rule.
func (vm *VirtualMachine) UpdateFp(instruction *Instruction, operands *Operands) error {
	switch instruction.FpUpdate {
	case FpUpdateAPPlus2:
		next, err := vm.RunContext.Ap.AddUint(2)
		if err != nil {
			return err
		}
		vm.RunContext.Fp = next
	case FpUpdateDst:
		if rel, ok := operands.Dst.GetRelocatable(); ok {
			vm.RunContext.Fp = rel
		} else {
			dstFelt, _ := operands.Dst.GetFelt()
			newFp, err := vm.RunContext.Fp.AddFelt(dstFelt)
			if err != nil {
				return err
			}
			vm.RunContext.Fp = newFp
		}
	}
	return nil
}

// DeduceMemoryCell dispatches to whichever builtin runner owns addr's
// segment, or returns nil if no builtin claims it.
func (vm *VirtualMachine) DeduceMemoryCell(addr memory.Relocatable) (*memory.MaybeRelocatable, error) {
	if addr.SegmentIndex < 0 {
		return nil, nil
	}
	for i := range vm.BuiltinRunners {
		if vm.BuiltinRunners[i].Base().SegmentIndex == addr.SegmentIndex {
			return vm.BuiltinRunners[i].DeduceMemoryCell(addr, vm.Segments.Memory)
		}
	}
	return nil, nil
}
