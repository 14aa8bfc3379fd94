package memory

import (
	"errors"
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
)

// MemorySegmentManager owns segment allocation and the end-of-run
// relocation pass over a single Memory.
type MemorySegmentManager struct {
	Memory *Memory

	// effectiveSizes mirrors Memory.UsedSizes once ComputeEffectiveSizes
	// has run, extended with zero entries for allocated-but-empty
	// segments so relocation has a base for every segment.
	effectiveSizes map[int]uint

	// publicMemoryOffsets records, per non-temporary segment, the cell
	// offsets a prover should treat as public (e.g. program output).
	publicMemoryOffsets map[int][]uint
}

// NewMemorySegmentManager builds a manager over a fresh, empty memory.
func NewMemorySegmentManager() MemorySegmentManager {
	return MemorySegmentManager{
		Memory:              NewMemory(),
		publicMemoryOffsets: make(map[int][]uint),
	}
}

// AddSegment allocates a new ordinary segment and returns its base.
func (s *MemorySegmentManager) AddSegment() Relocatable {
	return s.Memory.allocateSegment()
}

// AddTempSegment allocates a new temporary segment (negative index) and
// returns its base.
func (s *MemorySegmentManager) AddTempSegment() Relocatable {
	return s.Memory.allocateTempSegment()
}

// GetSegmentUsedSize returns the largest (offset+1) ever written to
// segment idx, or false if nothing has been written to it.
func (s *MemorySegmentManager) GetSegmentUsedSize(idx int) (uint, bool) {
	size, ok := s.Memory.UsedSizes()[idx]
	return size, ok
}

// ComputeEffectiveSizes finalizes the per-segment size table, filling in
// zero for any allocated segment that was never written to.
func (s *MemorySegmentManager) ComputeEffectiveSizes() map[int]uint {
	sizes := make(map[int]uint, s.Memory.NumSegments())
	for i := 0; i < int(s.Memory.NumSegments()); i++ {
		if v, ok := s.Memory.UsedSizes()[i]; ok {
			sizes[i] = v
		} else {
			sizes[i] = 0
		}
	}
	s.effectiveSizes = sizes
	return sizes
}

// RelocateSegments computes the flat base address of every non-temporary
// segment, per §6: address 0 is reserved, base_0 = 1, base_(s+1) =
// base_s + len(segment_s).
func (s *MemorySegmentManager) RelocateSegments() ([]uint, bool) {
	if s.effectiveSizes == nil {
		return nil, false
	}
	bases := make([]uint, s.Memory.NumSegments())
	next := uint(1)
	for i := 0; i < len(bases); i++ {
		bases[i] = next
		next += s.effectiveSizes[i]
	}
	return bases, true
}

// RelocateMemory flattens every live cell (after resolving temp-segment
// relocations) into a single address space keyed by flat uint address.
func (s *MemorySegmentManager) RelocateMemory(bases *[]uint) (map[uint]felt.Felt, error) {
	resolved, err := s.resolveTempSegments()
	if err != nil {
		return nil, err
	}

	out := make(map[uint]felt.Felt, len(resolved))
	for addr, cell := range resolved {
		c := cell
		flatAddr, err := addr.relocate(*bases)
		if err != nil {
			return nil, err
		}
		val, err := c.RelocateValue(*bases)
		if err != nil {
			return nil, err
		}
		out[flatAddr] = val
	}
	return out, nil
}

// resolveTempSegments rewrites every cell living in a relocated temp
// segment to its target address, and rewrites any Relocatable *value*
// that pointed into a relocated temp segment too. Per §9(c), a temp
// segment's target must not itself be temporary (enforced by
// Memory.RelocateSegment), so one pass suffices: there is no chain to
// follow.
func (s *MemorySegmentManager) resolveTempSegments() (map[Relocatable]MaybeRelocatable, error) {
	rules := s.Memory.RelocationRules()
	data := s.Memory.Data()

	resolveAddr := func(r Relocatable) (Relocatable, error) {
		if !r.IsTemporary() {
			return r, nil
		}
		slot := tempSegmentSlot(r.SegmentIndex)
		target, ok := rules[slot]
		if !ok {
			return Relocatable{}, fmt.Errorf("temporary segment %s has no relocation rule", r)
		}
		return target.AddUint(r.Offset)
	}

	out := make(map[Relocatable]MaybeRelocatable, len(data))
	for addr, cell := range data {
		newAddr, err := resolveAddr(addr)
		if err != nil {
			return nil, err
		}

		newCell := cell
		if rel, ok := cell.GetRelocatable(); ok && rel.IsTemporary() {
			resolvedRel, err := resolveAddr(rel)
			if err != nil {
				return nil, err
			}
			newCell = *NewMaybeRelocatableRelocatable(resolvedRel)
		}

		if existing, exists := out[newAddr]; exists && !existing.IsEqual(&newCell) {
			return nil, fmt.Errorf("relocate: conflicting values at %s after temp-segment relocation", newAddr)
		}
		out[newAddr] = newCell
	}
	return out, nil
}

// GenArg writes a hint-provided argument into memory, allocating a fresh
// segment for slice arguments and returning their base, or passing
// scalar MaybeRelocatable values through unchanged.
func (s *MemorySegmentManager) GenArg(value any) (MaybeRelocatable, error) {
	switch v := value.(type) {
	case MaybeRelocatable:
		return v, nil
	case *MaybeRelocatable:
		return *v, nil
	case felt.Felt:
		return *NewMaybeRelocatableFelt(v), nil
	case Relocatable:
		return *NewMaybeRelocatableRelocatable(v), nil
	case []MaybeRelocatable:
		base := s.AddSegment()
		if _, err := s.Memory.LoadData(base, v); err != nil {
			return MaybeRelocatable{}, err
		}
		return *NewMaybeRelocatableRelocatable(base), nil
	default:
		return MaybeRelocatable{}, errors.New("GenArg: unsupported argument type")
	}
}

// AddPublicMemoryOffset records an offset of segment as public, for
// prover consumption (see §4.E).
func (s *MemorySegmentManager) AddPublicMemoryOffset(segment int, offset uint) {
	s.publicMemoryOffsets[segment] = append(s.publicMemoryOffsets[segment], offset)
}

// PublicMemoryOffsets returns the recorded public memory offsets.
func (s *MemorySegmentManager) PublicMemoryOffsets() map[int][]uint {
	return s.publicMemoryOffsets
}
