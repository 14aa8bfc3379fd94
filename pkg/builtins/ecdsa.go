package builtins

import (
	"errors"
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/starknetcrypto"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm/memory"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

const (
	ECDSAName             = "ecdsa"
	ecdsaCellsPerInstance = 2
)

// ECDSABuiltinRunner verifies, once both cells of an instance are
// written (in either order), that a signature previously registered for
// that instance's public-key cell is valid for the message. Signatures
// are supplied out of band (by a hint) via AddSignature, matching the
// real builtin's dependency on the prover-supplied signature table.
type ECDSABuiltinRunner struct {
	base
	signatures map[memory.Relocatable]starknetcrypto.Signature
}

func NewECDSABuiltinRunner(included bool, ratio *uint) *ECDSABuiltinRunner {
	return &ECDSABuiltinRunner{
		base:       base{name: ECDSAName, included: included, ratio: ratio, cellsPerInstance: ecdsaCellsPerInstance},
		signatures: make(map[memory.Relocatable]starknetcrypto.Signature),
	}
}

// AddSignature registers the signature a hint asserts for the instance
// whose public-key cell is pubKeyAddr.
func (e *ECDSABuiltinRunner) AddSignature(pubKeyAddr memory.Relocatable, sig starknetcrypto.Signature) {
	e.signatures[pubKeyAddr] = sig
}

func (e *ECDSABuiltinRunner) InitializeSegments(segments *memory.MemorySegmentManager) {
	e.initializeSegments(segments)
}

func (e *ECDSABuiltinRunner) InitialStack() []memory.MaybeRelocatable {
	if !e.included {
		return nil
	}
	return []memory.MaybeRelocatable{*memory.NewMaybeRelocatableRelocatable(e.segmentBase)}
}

func (e *ECDSABuiltinRunner) DeduceMemoryCell(memory.Relocatable, *memory.Memory) (*memory.MaybeRelocatable, error) {
	return nil, nil
}

func (e *ECDSABuiltinRunner) AddValidationRule(mem *memory.Memory) {
	mem.AddValidationRule(uint(e.segmentBase.SegmentIndex), func(m *memory.Memory, addr memory.Relocatable) ([]memory.Relocatable, error) {
		// The pair can be written in either order, so re-derive the even
		// (pubkey) address from whichever cell of the instance just
		// completed and check from there.
		pubKeyAddr := addr
		if addr.Offset%ecdsaCellsPerInstance != 0 {
			pubKeyAddr = memory.NewRelocatable(addr.SegmentIndex, addr.Offset-1)
		}
		msgAddr := memory.NewRelocatable(pubKeyAddr.SegmentIndex, pubKeyAddr.Offset+1)

		pubKey, err := m.GetFelt(pubKeyAddr)
		if err != nil {
			if errors.Is(err, vmerrors.ErrUnknownMemoryCell) {
				// Public key not yet written; the rule reruns once it is.
				return nil, nil
			}
			return nil, fmt.Errorf("ecdsa at %s: %w", pubKeyAddr, vmerrors.ErrPubKeyNonInt)
		}
		msg, err := m.GetFelt(msgAddr)
		if err != nil {
			if errors.Is(err, vmerrors.ErrUnknownMemoryCell) {
				// Message not yet written; the rule reruns once it is.
				return nil, nil
			}
			return nil, fmt.Errorf("ecdsa at %s: %w", msgAddr, vmerrors.ErrMsgNonInt)
		}

		sig, ok := e.signatures[pubKeyAddr]
		if !ok {
			return nil, fmt.Errorf("ecdsa at %s: %w", pubKeyAddr, vmerrors.ErrSignatureNotFound)
		}
		valid, err := starknetcrypto.VerifyECDSA(msg, pubKey, sig)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, fmt.Errorf("ecdsa at %s: %w", pubKeyAddr, vmerrors.ErrInvalidSignature)
		}
		return []memory.Relocatable{pubKeyAddr, msgAddr}, nil
	})
}

func (e *ECDSABuiltinRunner) GetUsedInstances(segments *memory.MemorySegmentManager) (uint, error) {
	return e.getUsedInstances(segments)
}

func (e *ECDSABuiltinRunner) FinalStack(segments *memory.MemorySegmentManager, pointer memory.Relocatable) (memory.Relocatable, error) {
	return e.finalStack(segments, pointer)
}
