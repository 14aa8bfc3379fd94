// Package layouts holds the static, named builtin/ratio collections a
// Cairo program is run under. A layout bounds which builtins a program
// may request and, in proof mode, how many instances of each are
// allocated per step.
package layouts

// BuiltinSpec names one builtin a layout allows, along with its ratio
// (steps per instance; nil means dynamic/unratioed, as with output and
// segment_arena) and its per-instance cell count.
type BuiltinSpec struct {
	Name             string
	Ratio            *uint
	CellsPerInstance uint
}

// Layout is a named, ordered collection of allowed builtins.
type Layout struct {
	Name     string
	Builtins []BuiltinSpec
}

func ratio(n uint) *uint { return &n }

const (
	RangeCheck    = "range_check"
	Pedersen      = "pedersen"
	Bitwise       = "bitwise"
	ECOp          = "ec_op"
	ECDSA         = "ecdsa"
	Keccak        = "keccak"
	Poseidon      = "poseidon"
	Output        = "output"
	SegmentArena  = "segment_arena"
)

var (
	outputSpec       = BuiltinSpec{Name: Output, CellsPerInstance: 1}
	segmentArenaSpec = BuiltinSpec{Name: SegmentArena, CellsPerInstance: 3}
	rangeCheckSpec   = BuiltinSpec{Name: RangeCheck, Ratio: ratio(8), CellsPerInstance: 1}
	pedersenSpec     = BuiltinSpec{Name: Pedersen, Ratio: ratio(32), CellsPerInstance: 3}
	bitwiseSpec      = BuiltinSpec{Name: Bitwise, Ratio: ratio(16), CellsPerInstance: 5}
	ecOpSpec         = BuiltinSpec{Name: ECOp, Ratio: ratio(256), CellsPerInstance: 7}
	ecdsaSpec        = BuiltinSpec{Name: ECDSA, Ratio: ratio(2048), CellsPerInstance: 2}
	keccakSpec       = BuiltinSpec{Name: Keccak, Ratio: ratio(2048), CellsPerInstance: 16}
	poseidonSpec     = BuiltinSpec{Name: Poseidon, Ratio: ratio(256), CellsPerInstance: 6}
)

// Named is the registry of the eight layouts named in the runner spec.
var Named = map[string]Layout{
	"plain": {Name: "plain", Builtins: []BuiltinSpec{outputSpec}},
	"small": {Name: "small", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, ecdsaSpec,
	}},
	"dex": {Name: "dex", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, ecdsaSpec,
	}},
	"recursive": {Name: "recursive", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, bitwiseSpec,
	}},
	"starknet": {Name: "starknet", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, bitwiseSpec, ecOpSpec, ecdsaSpec, poseidonSpec, segmentArenaSpec,
	}},
	"starknet_with_keccak": {Name: "starknet_with_keccak", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, bitwiseSpec, ecOpSpec, ecdsaSpec, keccakSpec, poseidonSpec, segmentArenaSpec,
	}},
	"recursive_large_output": {Name: "recursive_large_output", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, bitwiseSpec, poseidonSpec,
	}},
	"all_cairo": {Name: "all_cairo", Builtins: []BuiltinSpec{
		outputSpec, pedersenSpec, rangeCheckSpec, bitwiseSpec, ecOpSpec, ecdsaSpec, keccakSpec, poseidonSpec, segmentArenaSpec,
	}},
}

// Get looks up a layout by name.
func Get(name string) (Layout, bool) {
	l, ok := Named[name]
	return l, ok
}

// Has reports whether name is one of l's builtins.
func (l Layout) Has(name string) bool {
	for _, b := range l.Builtins {
		if b.Name == name {
			return true
		}
	}
	return false
}
