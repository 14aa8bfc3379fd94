package memory

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// MaybeRelocatable is the tagged union {Felt, Relocatable} every memory
// cell holds. Exactly one of the two fields is meaningful, selected by
// isRelocatable.
type MaybeRelocatable struct {
	isRelocatable bool
	feltVal       felt.Felt
	relocVal      Relocatable
}

// NewMaybeRelocatableFelt wraps a field element as a cell value.
func NewMaybeRelocatableFelt(f felt.Felt) *MaybeRelocatable {
	return &MaybeRelocatable{feltVal: f}
}

// NewMaybeRelocatableRelocatable wraps an address as a cell value.
func NewMaybeRelocatableRelocatable(r Relocatable) *MaybeRelocatable {
	return &MaybeRelocatable{isRelocatable: true, relocVal: r}
}

// GetFelt returns the felt value and true if m holds one.
func (m *MaybeRelocatable) GetFelt() (felt.Felt, bool) {
	if m.isRelocatable {
		return felt.Felt{}, false
	}
	return m.feltVal, true
}

// GetRelocatable returns the relocatable value and true if m holds one.
func (m *MaybeRelocatable) GetRelocatable() (Relocatable, bool) {
	if !m.isRelocatable {
		return Relocatable{}, false
	}
	return m.relocVal, true
}

// IntoFelt coerces m into a felt, failing if it holds a relocatable.
func (m *MaybeRelocatable) IntoFelt() (felt.Felt, error) {
	f, ok := m.GetFelt()
	if !ok {
		return felt.Felt{}, vmerrors.ErrExpectedInteger
	}
	return f, nil
}

// IntoRelocatable coerces m into a relocatable, failing if it holds a felt.
func (m *MaybeRelocatable) IntoRelocatable() (Relocatable, error) {
	r, ok := m.GetRelocatable()
	if !ok {
		return Relocatable{}, vmerrors.ErrExpectedRelocatable
	}
	return r, nil
}

// IsZero reports whether m holds the felt zero. A relocatable is never zero.
func (m *MaybeRelocatable) IsZero() bool {
	f, ok := m.GetFelt()
	return ok && f.IsZero()
}

// IsEqual reports whether m and other hold the same tag and value.
func (m *MaybeRelocatable) IsEqual(other *MaybeRelocatable) bool {
	if m.isRelocatable != other.isRelocatable {
		return false
	}
	if m.isRelocatable {
		return m.relocVal.Equal(other.relocVal)
	}
	return m.feltVal.Equal(other.feltVal)
}

// Add implements §3's cell addition: Felt+Felt -> Felt,
// Relocatable+Felt -> Relocatable (commutative), Relocatable+Relocatable
// is structurally forbidden.
func (m MaybeRelocatable) Add(other MaybeRelocatable) (MaybeRelocatable, error) {
	mFelt, mIsFelt := m.GetFelt()
	otherFelt, otherIsFelt := other.GetFelt()

	if mIsFelt && otherIsFelt {
		return *NewMaybeRelocatableFelt(mFelt.Add(otherFelt)), nil
	}

	if !mIsFelt && !otherIsFelt {
		return MaybeRelocatable{}, vmerrors.ErrRelocatableAdd
	}

	if !mIsFelt {
		rel, _ := m.GetRelocatable()
		newRel, err := rel.AddFelt(otherFelt)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return *NewMaybeRelocatableRelocatable(newRel), nil
	}

	rel, _ := other.GetRelocatable()
	newRel, err := rel.AddFelt(mFelt)
	if err != nil {
		return MaybeRelocatable{}, err
	}
	return *NewMaybeRelocatableRelocatable(newRel), nil
}

// Sub implements cell subtraction: Felt-Felt -> Felt,
// Relocatable-Felt -> Relocatable, Relocatable-Relocatable (same
// segment) -> Felt distance, anything else is an error.
func (m MaybeRelocatable) Sub(other MaybeRelocatable) (MaybeRelocatable, error) {
	mFelt, mIsFelt := m.GetFelt()
	otherFelt, otherIsFelt := other.GetFelt()

	if mIsFelt && otherIsFelt {
		return *NewMaybeRelocatableFelt(mFelt.Sub(otherFelt)), nil
	}

	mRel, mIsRel := m.GetRelocatable()
	otherRel, otherIsRel := other.GetRelocatable()

	if mIsRel && otherIsFelt {
		newRel, err := mRel.AddFelt(otherFelt.Neg())
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return *NewMaybeRelocatableRelocatable(newRel), nil
	}

	if mIsRel && otherIsRel {
		dist, err := mRel.SubRelocatable(otherRel)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return *NewMaybeRelocatableFelt(felt.FromInt64(int64(dist))), nil
	}

	return MaybeRelocatable{}, fmt.Errorf("%w: relocatable - felt-as-relocatable target", vmerrors.ErrNotImplementedCellArith)
}

// Mul implements §3's restriction that only Felt*Felt is defined.
func (m MaybeRelocatable) Mul(other MaybeRelocatable) (MaybeRelocatable, error) {
	mFelt, mIsFelt := m.GetFelt()
	otherFelt, otherIsFelt := other.GetFelt()
	if !mIsFelt || !otherIsFelt {
		return MaybeRelocatable{}, vmerrors.ErrNotImplementedCellArith
	}
	return *NewMaybeRelocatableFelt(mFelt.Mul(otherFelt)), nil
}

// RelocateValue turns m into a flat felt: a felt cell passes through
// unchanged, a relocatable cell is flattened using the base table.
func (m *MaybeRelocatable) RelocateValue(bases []uint) (felt.Felt, error) {
	if f, ok := m.GetFelt(); ok {
		return f, nil
	}
	rel, _ := m.GetRelocatable()
	addr, err := rel.relocate(bases)
	if err != nil {
		return felt.Felt{}, err
	}
	return felt.FromUint64(uint64(addr)), nil
}

func (m MaybeRelocatable) String() string {
	if f, ok := m.GetFelt(); ok {
		return f.String()
	}
	r, _ := m.GetRelocatable()
	return r.String()
}
