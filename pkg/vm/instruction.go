package vm

import (
	"fmt"

	"github.com/keep-starknet-strange/cairo-vm-go/pkg/vmerrors"
)

// Register names the AP or FP register as an operand address base.
type Register int

const (
	Ap Register = iota
	Fp
)

// Op1Src names where the op1 operand address is computed from.
type Op1Src int

const (
	Op1SrcOp0 Op1Src = iota
	Op1SrcImm
	Op1SrcFp
	Op1SrcAp
)

// ResLogic names how the "res" auxiliary value is computed.
type ResLogic int

const (
	ResOp1 ResLogic = iota
	ResAdd
	ResMul
	ResUnconstrained
)

// PcUpdate names the PC update rule.
type PcUpdate int

const (
	PcUpdateRegular PcUpdate = iota
	PcUpdateJump
	PcUpdateJumpRel
	PcUpdateJnz
)

// ApUpdate names the AP update rule.
type ApUpdate int

const (
	ApUpdateRegular ApUpdate = iota
	ApUpdateAdd
	ApUpdateAdd1
	ApUpdateAdd2
)

// FpUpdate names the FP update rule, derived from Opcode at decode time.
type FpUpdate int

const (
	FpUpdateRegular FpUpdate = iota
	FpUpdateAPPlus2
	FpUpdateDst
)

// Opcode names the instruction's opcode.
type Opcode int

const (
	NOp Opcode = iota
	AssertEq
	Call
	Ret
)

// bit positions of the 15 flag bits, counting from bit 48 of the encoded
// word (i.e. flag bit i lives at word bit 48+i).
const (
	dstRegBit = iota
	op0RegBit
	op1ImmBit
	op1FpBit
	op1ApBit
	resAddBit
	resMulBit
	pcJumpAbsBit
	pcJumpRelBit
	pcJnzBit
	apAddBit
	apAdd1Bit
	opcodeCallBit
	opcodeRetBit
	opcodeAssertEqBit
)

const (
	offsetBits  = 16
	offsetBias  = 1 << 15
	offsetMask  = (1 << offsetBits) - 1
	flagsShift  = 3 * offsetBits
	instWordMSB = 63
)

// Instruction is the decoded form of a 63-bit Cairo instruction word.
type Instruction struct {
	OffDst int
	OffOp0 int
	OffOp1 int

	DstRegister Register
	Op0Register Register
	Op1Source   Op1Src

	ResLogic ResLogic
	PcUpdate PcUpdate
	ApUpdate ApUpdate
	FpUpdate FpUpdate
	Opcode   Opcode
}

// Size returns the instruction's footprint in memory cells: 2 when op1
// is read from an immediate following the instruction word, 1 otherwise.
func (i *Instruction) Size() uint {
	if i.Op1Source == Op1SrcImm {
		return 2
	}
	return 1
}

func bit(word uint64, i int) bool {
	return (word>>(flagsShift+i))&1 == 1
}

func biasedOffset(word uint64, shift uint) int {
	raw := int((word >> shift) & offsetMask)
	return raw - offsetBias
}

// DecodeInstruction decodes a 63-bit instruction word, rejecting any
// combination of flag bits the format forbids.
func DecodeInstruction(word uint64) (Instruction, error) {
	if word>>instWordMSB != 0 {
		return Instruction{}, fmt.Errorf("%w: bit 63 must be 0", vmerrors.ErrInstructionEncoding)
	}

	inst := Instruction{
		OffDst: biasedOffset(word, 0),
		OffOp0: biasedOffset(word, offsetBits),
		OffOp1: biasedOffset(word, 2*offsetBits),
	}

	if bit(word, dstRegBit) {
		inst.DstRegister = Fp
	} else {
		inst.DstRegister = Ap
	}
	if bit(word, op0RegBit) {
		inst.Op0Register = Fp
	} else {
		inst.Op0Register = Ap
	}

	op1Imm, op1Fp, op1Ap := bit(word, op1ImmBit), bit(word, op1FpBit), bit(word, op1ApBit)
	switch count(op1Imm, op1Fp, op1Ap) {
	case 0:
		inst.Op1Source = Op1SrcOp0
	case 1:
		switch {
		case op1Imm:
			inst.Op1Source = Op1SrcImm
		case op1Fp:
			inst.Op1Source = Op1SrcFp
		default:
			inst.Op1Source = Op1SrcAp
		}
	default:
		return Instruction{}, fmt.Errorf("%w: more than one op1_src bit set", vmerrors.ErrInstructionEncoding)
	}

	resAdd, resMul := bit(word, resAddBit), bit(word, resMulBit)
	switch count(resAdd, resMul) {
	case 0:
		inst.ResLogic = ResOp1
	case 1:
		if resAdd {
			inst.ResLogic = ResAdd
		} else {
			inst.ResLogic = ResMul
		}
	default:
		return Instruction{}, fmt.Errorf("%w: more than one res_logic bit set", vmerrors.ErrInstructionEncoding)
	}

	pcAbs, pcRel, pcJnz := bit(word, pcJumpAbsBit), bit(word, pcJumpRelBit), bit(word, pcJnzBit)
	switch count(pcAbs, pcRel, pcJnz) {
	case 0:
		inst.PcUpdate = PcUpdateRegular
	case 1:
		switch {
		case pcAbs:
			inst.PcUpdate = PcUpdateJump
		case pcRel:
			inst.PcUpdate = PcUpdateJumpRel
		default:
			inst.PcUpdate = PcUpdateJnz
		}
	default:
		return Instruction{}, fmt.Errorf("%w: more than one pc_update bit set", vmerrors.ErrInstructionEncoding)
	}

	if inst.PcUpdate == PcUpdateJnz {
		if resAdd || resMul {
			return Instruction{}, fmt.Errorf("%w: jnz requires unconstrained res", vmerrors.ErrInstructionEncoding)
		}
		inst.ResLogic = ResUnconstrained
	}

	apAdd, apAdd1 := bit(word, apAddBit), bit(word, apAdd1Bit)
	switch count(apAdd, apAdd1) {
	case 0:
		inst.ApUpdate = ApUpdateRegular
	case 1:
		if apAdd {
			inst.ApUpdate = ApUpdateAdd
		} else {
			inst.ApUpdate = ApUpdateAdd1
		}
	default:
		return Instruction{}, fmt.Errorf("%w: more than one ap_update bit set", vmerrors.ErrInstructionEncoding)
	}

	opCall, opRet, opAssertEq := bit(word, opcodeCallBit), bit(word, opcodeRetBit), bit(word, opcodeAssertEqBit)
	switch count(opCall, opRet, opAssertEq) {
	case 0:
		inst.Opcode = NOp
	case 1:
		switch {
		case opCall:
			inst.Opcode = Call
		case opRet:
			inst.Opcode = Ret
		default:
			inst.Opcode = AssertEq
		}
	default:
		return Instruction{}, fmt.Errorf("%w: more than one opcode bit set", vmerrors.ErrInstructionEncoding)
	}

	switch inst.Opcode {
	case Call:
		if inst.ResLogic != ResOp1 || inst.ApUpdate != ApUpdateRegular {
			return Instruction{}, fmt.Errorf("%w: call requires res=op1, ap_update=regular (add2 is implied)", vmerrors.ErrInstructionEncoding)
		}
		inst.ApUpdate = ApUpdateAdd2
		inst.FpUpdate = FpUpdateAPPlus2
	case Ret:
		if inst.PcUpdate != PcUpdateJump {
			return Instruction{}, fmt.Errorf("%w: ret requires pc_update=jump", vmerrors.ErrInstructionEncoding)
		}
		inst.FpUpdate = FpUpdateDst
	default:
		inst.FpUpdate = FpUpdateRegular
	}

	return inst, nil
}

func count(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// Encode packs the instruction back into its 63-bit word form. Used by
// tests to check the decode round-trip law and by tooling that
// assembles raw instructions by hand.
func (i *Instruction) Encode() uint64 {
	var word uint64

	word |= uint64(i.OffDst+offsetBias) & offsetMask
	word |= (uint64(i.OffOp0+offsetBias) & offsetMask) << offsetBits
	word |= (uint64(i.OffOp1+offsetBias) & offsetMask) << (2 * offsetBits)

	setBit := func(n int) {
		word |= 1 << (flagsShift + n)
	}

	if i.DstRegister == Fp {
		setBit(dstRegBit)
	}
	if i.Op0Register == Fp {
		setBit(op0RegBit)
	}

	switch i.Op1Source {
	case Op1SrcImm:
		setBit(op1ImmBit)
	case Op1SrcFp:
		setBit(op1FpBit)
	case Op1SrcAp:
		setBit(op1ApBit)
	}

	switch i.ResLogic {
	case ResAdd:
		setBit(resAddBit)
	case ResMul:
		setBit(resMulBit)
	}

	switch i.PcUpdate {
	case PcUpdateJump:
		setBit(pcJumpAbsBit)
	case PcUpdateJumpRel:
		setBit(pcJumpRelBit)
	case PcUpdateJnz:
		setBit(pcJnzBit)
	}

	switch i.ApUpdate {
	case ApUpdateAdd:
		setBit(apAddBit)
	case ApUpdateAdd1:
		setBit(apAdd1Bit)
	}

	switch i.Opcode {
	case Call:
		setBit(opcodeCallBit)
	case Ret:
		setBit(opcodeRetBit)
	case AssertEq:
		setBit(opcodeAssertEqBit)
	}

	return word
}
