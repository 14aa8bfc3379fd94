package builtins

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

const (
	ECOpName             = "ec_op"
	ecOpCellsPerInstance = 7
)

// ECOpBuiltinRunner deduces R = P + m*Q for an instance laid out as
// (p_x, p_y, q_x, q_y, m, r_x, r_y).
type ECOpBuiltinRunner struct {
	base
}

func NewECOpBuiltinRunner(included bool, ratio *uint) *ECOpBuiltinRunner {
	return &ECOpBuiltinRunner{base{name: ECOpName, included: included, ratio: ratio, cellsPerInstance: ecOpCellsPerInstance}}
}

func (e *ECOpBuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	e.initializeSegments(segments)
}

func (e *ECOpBuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !e.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(e.segmentBase)}
}

func (e *ECOpBuiltinRunner) DeduceMemoryCell(address memory.Relocatable, mem *memory.Memory) (*memory.MaybeRelocatable, error) {
	slot := address.Offset % ecOpCellsPerInstance
	if slot != 5 && slot != 6 {
		return nil, nil
	}

	base := address.Offset - slot
	cell := func(i uint) (memory.MaybeRelocatable, bool) {
		v, err := mem.Get(memory.NewRelocatable(address.SegmentIndex, base+i))
		if err != nil {
			return memory.MaybeRelocatable{}, false
		}
		return *v, true
	}
	pxC, ok := cell(0)
	if !ok {
		return nil, nil
	}
	pyC, ok := cell(1)
	if !ok {
		return nil, nil
	}
	qxC, ok := cell(2)
	if !ok {
		return nil, nil
	}
	qyC, ok := cell(3)
	if !ok {
		return nil, nil
	}
	mC, ok := cell(4)
	if !ok {
		return nil, nil
	}

	px, _ := pxC.GetFelt()
	py, _ := pyC.GetFelt()
	qx, _ := qxC.GetFelt()
	qy, _ := qyC.GetFelt()
	m, _ := mC.GetFelt()

	p := starknetcrypto.Point{X: px, Y: py}
	q := starknetcrypto.Point{X: qx, Y: qy}

	mq, err := starknetcrypto.ScalarMul(m, q)
	if err != nil {
		return nil, nil
	}
	r, err := starknetcrypto.Add(p, mq)
	if err != nil {
		return nil, nil
	}

	if slot == 5 {
		return memory.NewMaybeRelocatableFelt(r.X), nil
	}
	return memory.NewMaybeRelocatableFelt(r.Y), nil
}

func (e *ECOpBuiltinRunner) AddValidationRule(*memory.Memory) {}

func (e *ECOpBuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return e.getUsedInstances(segments)
}

func (e *ECOpBuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return e.finalStack(segments, pointer)
}
