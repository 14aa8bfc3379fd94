package vm

import (
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
)

// TraceEntry records a step's register state before the instruction runs.
type TraceEntry struct {
	Pc memory.Relocatable
	Ap memory.Relocatable
	Fp memory.Relocatable
}

// RelocatedTraceEntry is a TraceEntry with its registers flattened into
// the single linear address space produced by the relocation pass.
type RelocatedTraceEntry struct {
	Pc felt.Felt
	Ap felt.Felt
	Fp felt.Felt
}
