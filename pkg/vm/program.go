package vm

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/parser"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

// HintDescriptor is one hint attached to a program counter: the hint's
// source code plus the scoping/reference metadata a hint interpreter
// needs to resolve variable references.
type HintDescriptor struct {
	Code             string
	AccessibleScopes []string
	FlowTrackingData map[string]any
	ReferenceIDs     map[string]int
}

// Program is a compiled Cairo program: its instruction stream plus every
// piece of metadata the runner and hint interpreter need to execute it.
type Program struct {
	Data             []memory.MaybeRelocatable
	Builtins         []string
	Identifiers      *map[string]parser.Identifier
	Hints            map[uint][]HintDescriptor
	MainScope        string
	ReferenceManager map[string]any
	Attributes       []any
	DebugInfo        any
}
