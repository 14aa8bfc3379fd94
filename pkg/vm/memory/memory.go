package memory

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// AddressSet tracks the set of addresses a validation rule has already
// vetted, so a rule never re-runs on the same cell.
type AddressSet map[Relocatable]bool

func NewAddressSet() AddressSet { return make(AddressSet) }

func (s AddressSet) Add(r Relocatable)           { s[r] = true }
func (s AddressSet) Contains(r Relocatable) bool { return s[r] }

// ValidationRule is invoked on every first write to a segment it is
// registered for. It may read memory but must not write to it, and
// returns the set of addresses it has thereby validated.
type ValidationRule func(*Memory, Relocatable) ([]Relocatable, error)

// DeduceMemoryCellFunc is consulted on a read miss. It is owned by
// whoever wires up the builtin registry (the Cairo runner); Memory only
// calls it and never constructs one, keeping this package free of any
// dependency on pkg/builtins.
type DeduceMemoryCellFunc func(addr Relocatable) (*MaybeRelocatable, error)

// Memory is the Cairo VM's segmented, write-once store.
type Memory struct {
	data               map[Relocatable]MaybeRelocatable
	numSegments        uint
	numTempSegments    uint
	usedSizes          map[int]uint
	validationRules    map[uint]ValidationRule
	validatedAddresses AddressSet
	relocationRules    map[int]Relocatable // temp segment slot -> target
	deduceMemoryCell   DeduceMemoryCellFunc
	deduceDepth        int
}

const maxDeduceRecursionDepth = 32

// NewMemory builds an empty memory with no segments allocated yet.
func NewMemory() *Memory {
	return &Memory{
		data:               make(map[Relocatable]MaybeRelocatable),
		usedSizes:          make(map[int]uint),
		validationRules:    make(map[uint]ValidationRule),
		validatedAddresses: NewAddressSet(),
		relocationRules:    make(map[int]Relocatable),
	}
}

// SetDeduceMemoryCell installs the callback consulted on a read miss.
func (m *Memory) SetDeduceMemoryCell(fn DeduceMemoryCellFunc) {
	m.deduceMemoryCell = fn
}

func (m *Memory) NumSegments() uint     { return m.numSegments }
func (m *Memory) NumTempSegments() uint { return m.numTempSegments }

// allocateSegment is called by the segment manager; Memory itself never
// decides when a new segment is needed.
func (m *Memory) allocateSegment() Relocatable {
	idx := int(m.numSegments)
	m.numSegments++
	return NewRelocatable(idx, 0)
}

func (m *Memory) allocateTempSegment() Relocatable {
	m.numTempSegments++
	idx := -int(m.numTempSegments)
	return NewRelocatable(idx, 0)
}

func tempSegmentSlot(segmentIndex int) int {
	return -segmentIndex - 1
}

// Insert writes val at addr, enforcing the write-once invariant and
// running any validation rule registered for addr's segment.
func (m *Memory) Insert(addr Relocatable, val *MaybeRelocatable) error {
	if !addr.IsTemporary() && addr.SegmentIndex >= int(m.numSegments) {
		return fmt.Errorf("insert at %s: segment not allocated", addr)
	}
	if addr.IsTemporary() && tempSegmentSlot(addr.SegmentIndex) >= int(m.numTempSegments) {
		return fmt.Errorf("insert at %s: temporary segment not allocated", addr)
	}

	if prev, ok := m.data[addr]; ok {
		if !prev.IsEqual(val) {
			return fmt.Errorf("insert at %s: %w", addr, vmerrors.ErrInconsistentMemory)
		}
		return nil
	}

	m.data[addr] = *val
	m.bumpUsedSize(addr)
	return m.validateAddress(addr)
}

func (m *Memory) bumpUsedSize(addr Relocatable) {
	newSize := addr.Offset + 1
	if cur, ok := m.usedSizes[addr.SegmentIndex]; !ok || newSize > cur {
		m.usedSizes[addr.SegmentIndex] = newSize
	}
}

// Get reads the cell at addr, invoking the auto-deduction hook on a miss.
func (m *Memory) Get(addr Relocatable) (*MaybeRelocatable, error) {
	if val, ok := m.data[addr]; ok {
		return &val, nil
	}

	deduced, err := m.deduce(addr)
	if err != nil {
		return nil, err
	}
	if deduced != nil {
		if err := m.Insert(addr, deduced); err != nil {
			return nil, err
		}
		return deduced, nil
	}

	return nil, fmt.Errorf("get %s: %w", addr, vmerrors.ErrUnknownMemoryCell)
}

func (m *Memory) deduce(addr Relocatable) (*MaybeRelocatable, error) {
	if addr.IsTemporary() || m.deduceMemoryCell == nil {
		return nil, nil
	}
	if m.deduceDepth >= maxDeduceRecursionDepth {
		return nil, fmt.Errorf("deduce %s: recursion too deep", addr)
	}
	m.deduceDepth++
	defer func() { m.deduceDepth-- }()
	return m.deduceMemoryCell(addr)
}

// GetFelt reads addr and coerces it to a felt.
func (m *Memory) GetFelt(addr Relocatable) (felt.Felt, error) {
	val, err := m.Get(addr)
	if err != nil {
		return felt.Felt{}, err
	}
	f, ok := val.GetFelt()
	if !ok {
		return felt.Felt{}, fmt.Errorf("get felt at %s: %w", addr, vmerrors.ErrExpectedInteger)
	}
	return f, nil
}

// GetRelocatable reads addr and coerces it to a relocatable.
func (m *Memory) GetRelocatable(addr Relocatable) (Relocatable, error) {
	val, err := m.Get(addr)
	if err != nil {
		return Relocatable{}, err
	}
	r, ok := val.GetRelocatable()
	if !ok {
		return Relocatable{}, fmt.Errorf("get relocatable at %s: %w", addr, vmerrors.ErrExpectedRelocatable)
	}
	return r, nil
}

// GetCellRange reads count consecutive cells starting at base.
func (m *Memory) GetCellRange(base Relocatable, count uint) ([]MaybeRelocatable, error) {
	result := make([]MaybeRelocatable, 0, count)
	for i := uint(0); i < count; i++ {
		addr, err := base.AddUint(i)
		if err != nil {
			return nil, err
		}
		val, err := m.Get(addr)
		if err != nil {
			return nil, err
		}
		result = append(result, *val)
	}
	return result, nil
}

// GetFeltRange reads count consecutive felt cells starting at base.
func (m *Memory) GetFeltRange(base Relocatable, count uint) ([]felt.Felt, error) {
	cells, err := m.GetCellRange(base, count)
	if err != nil {
		return nil, err
	}
	result := make([]felt.Felt, len(cells))
	for i, c := range cells {
		cell := c
		f, ok := cell.GetFelt()
		if !ok {
			return nil, fmt.Errorf("%w at offset %d", vmerrors.ErrExpectedInteger, i)
		}
		result[i] = f
	}
	return result, nil
}

// LoadData writes data starting at base, returning the address just
// past the last cell written.
func (m *Memory) LoadData(base Relocatable, data []MaybeRelocatable) (Relocatable, error) {
	addr := base
	for _, cell := range data {
		c := cell
		if err := m.Insert(addr, &c); err != nil {
			return Relocatable{}, err
		}
		next, err := addr.AddUint(1)
		if err != nil {
			return Relocatable{}, err
		}
		addr = next
	}
	return addr, nil
}

// AddValidationRule registers rule for segmentIndex. Rules are installed
// once, during builtin initialization, and persist for the run.
func (m *Memory) AddValidationRule(segmentIndex uint, rule ValidationRule) {
	m.validationRules[segmentIndex] = rule
}

func (m *Memory) validateAddress(addr Relocatable) error {
	if addr.IsTemporary() || m.validatedAddresses.Contains(addr) {
		return nil
	}
	rule, ok := m.validationRules[uint(addr.SegmentIndex)]
	if !ok {
		return nil
	}
	validated, err := rule(m, addr)
	if err != nil {
		return err
	}
	for _, a := range validated {
		m.validatedAddresses.Add(a)
	}
	return nil
}

// ValidateExistingMemory re-applies every validation rule over the
// current contents, used after bulk-loading the execution segment.
func (m *Memory) ValidateExistingMemory() error {
	for addr := range m.data {
		if err := m.validateAddress(addr); err != nil {
			return err
		}
	}
	return nil
}

// RelocateSegment installs a one-shot relocation entry mapping temporary
// segment src to dst. A given temporary segment can only be relocated
// once; dst must not itself be a temporary address (per §9(c), chaining
// is rejected rather than resolved iteratively).
func (m *Memory) RelocateSegment(src Relocatable, dst Relocatable) error {
	if !src.IsTemporary() || src.Offset != 0 {
		return fmt.Errorf("relocate segment: %s is not a bare temporary segment base", src)
	}
	if dst.IsTemporary() {
		return fmt.Errorf("relocate segment: chaining temporary segment %s onto temporary target %s is not supported", src, dst)
	}
	slot := tempSegmentSlot(src.SegmentIndex)
	if _, exists := m.relocationRules[slot]; exists {
		return fmt.Errorf("relocate segment: %s already has a relocation rule", src)
	}
	m.relocationRules[slot] = dst
	return nil
}

// RelocationRules exposes the installed temp-segment relocation table,
// keyed by temporary segment slot, for the segment manager's flattening
// pass.
func (m *Memory) RelocationRules() map[int]Relocatable {
	return m.relocationRules
}

// Data exposes the raw cell map for the segment manager's relocation
// pass. Callers must not mutate the returned map.
func (m *Memory) Data() map[Relocatable]MaybeRelocatable {
	return m.data
}

// UsedSizes exposes the per-segment used-size table.
func (m *Memory) UsedSizes() map[int]uint {
	return m.usedSizes
}
