// Package vmerrors collects the stable, named error values from the
// core's error catalogue (memory, math, instruction, runner and hint
// categories). Where a fatal condition carries one of these kinds, it is
// wrapped with call-site context via fmt.Errorf's %w so errors.Is still
// recovers the original kind; some failures (for example an insert into
// an unallocated segment, or a file that cannot be read) are plain
// errors with no named kind.
package vmerrors

import "errors"

// Memory category.
var (
	ErrUnknownMemoryCell          = errors.New("UnknownMemoryCell")
	ErrInconsistentMemory         = errors.New("InconsistentMemory")
	ErrExpectedInteger            = errors.New("ExpectedInteger")
	ErrExpectedRelocatable        = errors.New("ExpectedRelocatable")
	ErrRelocatableAdd             = errors.New("RelocatableAdd")
	ErrRelocatableSubUsizeNegOff  = errors.New("RelocatableSubUsizeNegOffset")
	ErrOffsetExceeded             = errors.New("OffsetExceeded")
	ErrMissingSegmentUsedSizes    = errors.New("MissingSegmentUsedSizes")
	ErrRangeCheckGetError         = errors.New("RangeCheckGetError")
	ErrRangecheckNonInt           = errors.New("RangecheckNonInt")
	ErrRangeCheckNumberOutOfBound = errors.New("RangeCheckNumberOutOfBounds")
	ErrSignatureNotFound          = errors.New("SignatureNotFound")
	ErrInvalidSignature           = errors.New("InvalidSignature")
	ErrPubKeyNonInt               = errors.New("PubKeyNonInt")
	ErrMsgNonInt                  = errors.New("MsgNonInt")
	ErrTypeMismatch               = errors.New("TypeMismatch")
	ErrNotImplementedCellArith    = errors.New("NotImplementedCellArith")
	ErrBitwiseOperandTooLarge     = errors.New("BitwiseOperandTooLarge")
)

// Math category.
var (
	ErrDivisionByZero           = errors.New("DivisionByZero")
	ErrSafeDivFail              = errors.New("SafeDivFail")
	ErrFelt252ToU32Conversion   = errors.New("Felt252ToU32Conversion")
	ErrSecpSplitOutOfRange      = errors.New("SecpSplitOutOfRange")
	ErrSecpVerifyZero           = errors.New("SecpVerifyZero")
	ErrPointNotOnCurve          = errors.New("PointNotOnCurve")
)

// Instruction category.
var (
	ErrInstructionEncoding  = errors.New("InstructionEncoding")
	ErrInstructionFetch     = errors.New("InstructionFetch")
	ErrUnknownOp0           = errors.New("UnknownOp0")
	ErrFailedToComputeOp0   = errors.New("FailedToComputeOp0")
	ErrFailedToComputeOp1   = errors.New("FailedToComputeOp1")
	ErrNoDst                = errors.New("NoDst")
	ErrDiffAssertValues     = errors.New("DiffAssertValues")
	ErrUnconstrainedResAssertEq = errors.New("UnconstrainedResAssertEq")
	ErrCantWriteReturnPc        = errors.New("CantWriteReturnPc")
	ErrCantWriteReturnFp        = errors.New("CantWriteReturnFp")
)

// Runner category.
var (
	ErrNoStopPointer            = errors.New("NoStopPointer")
	ErrInvalidStopPointerIndex  = errors.New("InvalidStopPointerIndex")
	ErrInvalidStopPointer       = errors.New("InvalidStopPointer")
	ErrBuiltinNotInLayout       = errors.New("BuiltinNotInLayout")
	ErrMissingMain              = errors.New("MissingMain")
	ErrEndOfProgram             = errors.New("EndOfProgram")
	ErrProofModeAlignment       = errors.New("ProofModeAlignment")
)

// Hint category (pass-through from math/memory also applies).
var (
	ErrMissingConstant        = errors.New("MissingConstant")
	ErrIdentifierHasNoMember  = errors.New("IdentifierHasNoMember")
	ErrIdentifierNotReloc     = errors.New("IdentifierNotRelocatable")
	ErrHintNotImplemented     = errors.New("HintNotImplemented")
	ErrNPairBitsTooLowM       = errors.New("NPairBitsTooLowM")
)

// Loader category.
var ErrPrimeMismatch = errors.New("PrimeMismatch")

// IsLoadError reports whether err is a prime mismatch or a missing
// entrypoint (cmd/cairo-vm exit code 1). Errors from reading the file or
// decoding its JSON carry no named kind and are not matched.
func IsLoadError(err error) bool {
	return errors.Is(err, ErrPrimeMismatch) || errors.Is(err, ErrMissingMain)
}

// IsLayoutError reports whether err stems from a program/layout
// mismatch (cmd/cairo-vm exit code 2).
func IsLayoutError(err error) bool {
	return errors.Is(err, ErrBuiltinNotInLayout)
}

// IsEndRunError reports whether err stems from stop-pointer validation
// or relocation at the end of a run (cmd/cairo-vm exit code 4).
func IsEndRunError(err error) bool {
	return errors.Is(err, ErrNoStopPointer) ||
		errors.Is(err, ErrInvalidStopPointerIndex) ||
		errors.Is(err, ErrInvalidStopPointer) ||
		errors.Is(err, ErrMissingSegmentUsedSizes) ||
		errors.Is(err, ErrProofModeAlignment)
}
