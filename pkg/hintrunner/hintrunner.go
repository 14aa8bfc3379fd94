// Package hintrunner defines the contract between the Cairo step loop
// and the hint interpreter invoked before each instruction executes.
package hintrunner

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vm"
	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// ExecutionScopes is the hint interpreter's variable environment: a
// stack of scopes, innermost last, each a name -> value map a hint's
// Python-like expressions read and write.
type ExecutionScopes []map[string]any

// NewExecutionScopes returns a scope stack with a single empty scope.
func NewExecutionScopes() ExecutionScopes {
	return ExecutionScopes{make(map[string]any)}
}

// Enter pushes a fresh scope.
func (s *ExecutionScopes) Enter() {
	*s = append(*s, make(map[string]any))
}

// Exit pops the innermost scope.
func (s *ExecutionScopes) Exit() error {
	if len(*s) <= 1 {
		return fmt.Errorf("hintrunner: cannot exit the root scope")
	}
	*s = (*s)[:len(*s)-1]
	return nil
}

// Get looks up name starting from the innermost scope.
func (s ExecutionScopes) Get(name string) (any, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if v, ok := s[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set writes name into the innermost scope.
func (s ExecutionScopes) Set(name string, value any) {
	s[len(s)-1][name] = value
}

// HintRunner executes the hints attached to a program counter before the
// VM decodes and runs the instruction at that address.
type HintRunner interface {
	RunHint(v *vm.VirtualMachine, scopes *ExecutionScopes, hint *vm.HintDescriptor) error
}

// NoOpRunner is the default hint runner: it refuses every hint. Programs
// with no hints run unaffected; a program that does have hints without a
// real interpreter wired in fails fast instead of silently skipping
// logic the step function depends on.
type NoOpRunner struct{}

func (NoOpRunner) RunHint(v *vm.VirtualMachine, scopes *ExecutionScopes, hint *vm.HintDescriptor) error {
	return fmt.Errorf("hintrunner: %q: %w", hint.Code, vmerrors.ErrHintNotImplemented)
}
