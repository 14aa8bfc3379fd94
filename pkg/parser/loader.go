// Package parser decodes a compiled Cairo program's JSON representation
// into the data vm.Program is assembled from.
package parser

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/felt"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// StarkPrime is the decimal representation of the field prime every
// compiled program must declare in its "prime" field (written there in
// decimal or as "0x"-prefixed hex).
const StarkPrime = "3618502788666131213697322783095070105623107215331596699973092056135872020481"

// rawIdentifier mirrors one entry of the compiled JSON's "identifiers" map.
type rawIdentifier struct {
	Type       string   `json:"type"`
	Value      *string  `json:"value"`
	References []string `json:"references"`
}

// RawHint mirrors one compiled-JSON hint descriptor.
type RawHint struct {
	Code             string         `json:"code"`
	AccessibleScopes []string       `json:"accessible_scopes"`
	FlowTrackingData map[string]any `json:"flow_tracking_data"`
}

// ProgramJSON is the direct decode of a compiled program file, before
// its cells and identifiers are turned into VM-native types.
type ProgramJSON struct {
	Prime            string               `json:"prime"`
	Data             []string             `json:"data"`
	Builtins         []string             `json:"builtins"`
	Identifiers      map[string]rawIdentifier `json:"identifiers"`
	Hints            map[string][]RawHint `json:"hints"`
	MainScope        string               `json:"main_scope"`
	ReferenceManager map[string]any       `json:"reference_manager"`
	Attributes       []any                `json:"attributes"`
	DebugInfo        any                  `json:"debug_info"`
}

// LoadFile reads and decodes a compiled program file, rejecting any
// program whose declared prime disagrees with the Stark prime.
func LoadFile(path string) (*ProgramJSON, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", path, err)
	}
	var prog ProgramJSON
	if err := json.Unmarshal(raw, &prog); err != nil {
		return nil, fmt.Errorf("parser: decode %s: %w", path, err)
	}
	if prog.Prime != "" {
		declared, ok := new(big.Int).SetString(prog.Prime, 0)
		want, _ := new(big.Int).SetString(StarkPrime, 10)
		if !ok || declared.Cmp(want) != 0 {
			return nil, fmt.Errorf("parser: %s declares prime %s: %w", path, prog.Prime, vmerrors.ErrPrimeMismatch)
		}
	}
	return &prog, nil
}

// DecodeCell parses one "data" entry: a decimal or "0x"-hex felt, or a
// relocatable encoded as "segment:offset".
func DecodeCell(s string) (memory.MaybeRelocatable, error) {
	if segment, offset, ok := strings.Cut(s, ":"); ok {
		segIdx, err := strconv.Atoi(segment)
		if err != nil {
			return memory.MaybeRelocatable{}, fmt.Errorf("parser: bad relocatable segment %q: %w", s, err)
		}
		off, err := strconv.ParseUint(offset, 10, 64)
		if err != nil {
			return memory.MaybeRelocatable{}, fmt.Errorf("parser: bad relocatable offset %q: %w", s, err)
		}
		return *memory.NewMaybeRelocatableRelocatable(memory.NewRelocatable(segIdx, uint(off))), nil
	}

	var f felt.Felt
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		f, err = felt.FromHex(s)
	} else {
		f, err = felt.FromDecString(s)
	}
	if err != nil {
		return memory.MaybeRelocatable{}, fmt.Errorf("parser: bad cell %q: %w", s, err)
	}
	return *memory.NewMaybeRelocatableFelt(f), nil
}

// DecodeIdentifiers turns the raw identifier table into VM-native form,
// decoding each entry's value cell if present.
func DecodeIdentifiers(raw map[string]rawIdentifier) (map[string]Identifier, error) {
	out := make(map[string]Identifier, len(raw))
	for name, r := range raw {
		ident := Identifier{Type: r.Type, References: r.References}
		if r.Value != nil {
			cell, err := DecodeCell(*r.Value)
			if err != nil {
				return nil, fmt.Errorf("parser: identifier %q: %w", name, err)
			}
			ident.Value = &cell
		}
		out[name] = ident
	}
	return out, nil
}
