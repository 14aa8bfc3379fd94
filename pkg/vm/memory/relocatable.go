package memory

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/safemath"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// Relocatable is an address in the segmented memory: a segment index
// (negative for temporary segments) plus an offset within it. Once the
// VM finishes running, every Relocatable is rewritten into a flat felt
// address by the relocation pass.
type Relocatable struct {
	SegmentIndex int
	Offset       uint
}

// NewRelocatable builds a Relocatable from its two components.
func NewRelocatable(segmentIndex int, offset uint) Relocatable {
	return Relocatable{SegmentIndex: segmentIndex, Offset: offset}
}

// IsTemporary reports whether r addresses a temporary segment.
func (r Relocatable) IsTemporary() bool { return r.SegmentIndex < 0 }

// AddUint returns r with its offset increased by other. The result never
// overflows for any value the VM produces in practice (offsets are
// always small); the interface is still checked to match §4.B.
func (r Relocatable) AddUint(other uint) (Relocatable, error) {
	newOffset, overflow := safemath.SafeAdd(r.Offset, other)
	if overflow {
		return Relocatable{}, vmerrors.ErrOffsetExceeded
	}
	return NewRelocatable(r.SegmentIndex, newOffset), nil
}

// SubUint returns r with its offset decreased by other, failing if that
// would underflow the offset.
func (r Relocatable) SubUint(other uint) (Relocatable, error) {
	newOffset, underflow := safemath.SafeSub(r.Offset, other)
	if underflow {
		return Relocatable{}, vmerrors.ErrRelocatableSubUsizeNegOff
	}
	return NewRelocatable(r.SegmentIndex, newOffset), nil
}

// AddInt adds a signed offset to r, checking for underflow/overflow.
func (r Relocatable) AddInt(offset int) (Relocatable, error) {
	newOffset, overflow := safemath.SafeOffset(r.Offset, offset)
	if overflow {
		return Relocatable{}, vmerrors.ErrRelocatableSubUsizeNegOff
	}
	return NewRelocatable(r.SegmentIndex, newOffset), nil
}

// AddFelt adds a field element (cast to usize) to r's offset, failing if
// the felt doesn't fit in a usize.
func (r Relocatable) AddFelt(other felt.Felt) (Relocatable, error) {
	offset, err := other.ToU64()
	if err != nil {
		return Relocatable{}, fmt.Errorf("%w: %s", vmerrors.ErrOffsetExceeded, err)
	}
	return r.AddUint(uint(offset))
}

// AddMaybeRelocatable adds a cell value to r, accepting only a felt
// operand (adding two relocatables together is not meaningful).
func (r Relocatable) AddMaybeRelocatable(other MaybeRelocatable) (Relocatable, error) {
	f, ok := other.GetFelt()
	if !ok {
		return Relocatable{}, vmerrors.ErrRelocatableAdd
	}
	return r.AddFelt(f)
}

// RelocateAddress flattens r into a single flat address using the
// segment base table produced by the relocation pass.
func (r Relocatable) RelocateAddress(bases *[]uint) (uint, error) {
	return r.relocate(*bases)
}

// SubRelocatable returns r.Offset - other.Offset when both share a
// segment, and ErrTypeMismatch otherwise. Callers that only have a usize
// distance should use SubUint.
func (r Relocatable) SubRelocatable(other Relocatable) (int, error) {
	if r.SegmentIndex != other.SegmentIndex {
		return 0, vmerrors.ErrTypeMismatch
	}
	return int(r.Offset) - int(other.Offset), nil
}

// Cmp orders two relocatables first by segment index, then by offset.
func (r Relocatable) Cmp(other Relocatable) int {
	if r.SegmentIndex != other.SegmentIndex {
		if r.SegmentIndex < other.SegmentIndex {
			return -1
		}
		return 1
	}
	switch {
	case r.Offset < other.Offset:
		return -1
	case r.Offset > other.Offset:
		return 1
	default:
		return 0
	}
}

// Equal reports whether r and other address the same cell.
func (r Relocatable) Equal(other Relocatable) bool {
	return r.SegmentIndex == other.SegmentIndex && r.Offset == other.Offset
}

// relocate flattens r into a single uint64 address using the segment
// base table produced by the relocation pass (table[i] is the flat base
// of non-temporary segment i; temporary segments must already have been
// resolved to a non-temporary target before this is called).
func (r Relocatable) relocate(bases []uint) (uint, error) {
	if r.IsTemporary() || r.SegmentIndex >= len(bases) {
		return 0, fmt.Errorf("relocatable %+v: %w", r, vmerrors.ErrMissingSegmentUsedSizes)
	}
	return bases[r.SegmentIndex] + r.Offset, nil
}

func (r Relocatable) String() string {
	return fmt.Sprintf("%d:%d", r.SegmentIndex, r.Offset)
}
