package parser

import "github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"

// Identifier is a named entry in a compiled program's identifier table:
// a constant, a label, a struct member, or a reference expression.
type Identifier struct {
	Type       string
	Value      *memory.MaybeRelocatable
	References []string
}
