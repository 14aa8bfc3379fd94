package runners

import (
	"fmt"
	"strconv"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/parser"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// LoadProgram reads a compiled program file and assembles it into a
// vm.Program plus the PC offset execution should start from, resolved
// from entrypoint (an identifier name, defaulting to "main").
//
// This assembly lives here rather than in pkg/parser because vm.Program
// already depends on parser.Identifier; parser importing vm back would
// cycle.
func LoadProgram(path string, entrypoint string) (*vm.Program, uint, error) {
	raw, err := parser.LoadFile(path)
	if err != nil {
		return nil, 0, err
	}

	data := make([]memory.MaybeRelocatable, len(raw.Data))
	for i, cell := range raw.Data {
		decoded, err := parser.DecodeCell(cell)
		if err != nil {
			return nil, 0, err
		}
		data[i] = decoded
	}

	identifiers, err := parser.DecodeIdentifiers(raw.Identifiers)
	if err != nil {
		return nil, 0, err
	}

	hints := make(map[uint][]vm.HintDescriptor, len(raw.Hints))
	for pcStr, rawHints := range raw.Hints {
		pc, err := strconv.ParseUint(pcStr, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("parser: bad hint pc %q: %w", pcStr, err)
		}
		descriptors := make([]vm.HintDescriptor, len(rawHints))
		for i, h := range rawHints {
			descriptors[i] = vm.HintDescriptor{
				Code:             h.Code,
				AccessibleScopes: h.AccessibleScopes,
				FlowTrackingData: h.FlowTrackingData,
			}
		}
		hints[uint(pc)] = descriptors
	}

	if entrypoint == "" {
		entrypoint = "main"
	}
	offset, err := resolveEntrypoint(identifiers, entrypoint)
	if err != nil {
		return nil, 0, err
	}

	program := vm.Program{
		Data:             data,
		Builtins:         raw.Builtins,
		Identifiers:      &identifiers,
		Hints:            hints,
		MainScope:        raw.MainScope,
		ReferenceManager: raw.ReferenceManager,
		Attributes:       raw.Attributes,
		DebugInfo:        raw.DebugInfo,
	}
	return &program, offset, nil
}

// resolveEntrypoint finds the "__main__.<entrypoint>" (or bare name)
// function identifier and returns the program-relative offset its value
// cell encodes.
func resolveEntrypoint(identifiers map[string]parser.Identifier, entrypoint string) (uint, error) {
	candidates := []string{entrypoint, "__main__." + entrypoint}
	for _, name := range candidates {
		ident, ok := identifiers[name]
		if !ok || ident.Type != "function" || ident.Value == nil {
			continue
		}
		rel, ok := ident.Value.GetRelocatable()
		if !ok {
			continue
		}
		return rel.Offset, nil
	}
	return 0, fmt.Errorf("resolve entrypoint %q: %w", entrypoint, vmerrors.ErrMissingMain)
}
