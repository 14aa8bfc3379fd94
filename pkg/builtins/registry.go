package builtins

import "fmt"

// New builds the concrete builtin runner for name, included (requested
// by the program) and ratio (from the layout descriptor, nil if
// unratioed).
func New(name string, included bool, ratio *uint) (BuiltinRunner, error) {
	switch name {
	case RangeCheckName:
		return NewRangeCheckBuiltinRunner(included, ratio), nil
	case PedersenName:
		return NewPedersenBuiltinRunner(included, ratio), nil
	case BitwiseName:
		return NewBitwiseBuiltinRunner(included, ratio), nil
	case ECOpName:
		return NewECOpBuiltinRunner(included, ratio), nil
	case ECDSAName:
		return NewECDSABuiltinRunner(included, ratio), nil
	case KeccakName:
		return NewKeccakBuiltinRunner(included, ratio), nil
	case PoseidonName:
		return NewPoseidonBuiltinRunner(included, ratio), nil
	case OutputName:
		return NewOutputBuiltinRunner(included), nil
	case SegmentArenaName:
		return NewSegmentArenaBuiltinRunner(included), nil
	default:
		return nil, fmt.Errorf("builtins: unknown builtin %q", name)
	}
}
