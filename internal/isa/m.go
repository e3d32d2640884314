package isa

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/xlen"
)

// M extension (multiply/divide) OpId constants.
var (
	OpMul    = NewOpId(ExtM, 0)
	OpMulh   = NewOpId(ExtM, 1)
	OpMulhsu = NewOpId(ExtM, 2)
	OpMulhu  = NewOpId(ExtM, 3)
	OpDiv    = NewOpId(ExtM, 4)
	OpDivu   = NewOpId(ExtM, 5)
	OpRem    = NewOpId(ExtM, 6)
	OpRemu   = NewOpId(ExtM, 7)

	// RV64M W variants.
	OpMulw  = NewOpId(ExtM, 8)
	OpDivw  = NewOpId(ExtM, 9)
	OpDivuw = NewOpId(ExtM, 10)
	OpRemw  = NewOpId(ExtM, 11)
	OpRemuw = NewOpId(ExtM, 12)
)

var mMnemonics = map[uint16]string{
	0: "mul", 1: "mulh", 2: "mulhsu", 3: "mulhu",
	4: "div", 5: "divu", 6: "rem", 7: "remu",
	8: "mulw", 9: "divw", 10: "divuw", 11: "remw", 12: "remuw",
}

// MDecoder decodes the M (multiply/divide) extension.
type MDecoder struct{}

// NewMDecoder constructs the M-extension decoder.
func NewMDecoder() *MDecoder { return &MDecoder{} }

func (d *MDecoder) Name() string { return "M" }

func (d *MDecoder) Decode16(uint16, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func (d *MDecoder) Decode32(raw uint32, pc uint64, w xlen.Width) (*DecodedInstruction, bool) {
	opcode := DecodeOpcode(raw)
	funct3 := DecodeFunct3(raw)
	funct7 := DecodeFunct7(raw)
	if funct7 != 0x01 {
		return nil, false
	}
	rd, rs1, rs2 := DecodeRd(raw), DecodeRs1(raw), DecodeRs2(raw)
	mk := func(id OpId) *DecodedInstruction {
		return &DecodedInstruction{
			Pc: pc, Size: 4, OpId: id, Raw: raw,
			Args: Args{Format: FormatR, Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7},
		}
	}
	switch opcode {
	case 0x33:
		switch funct3 {
		case 0:
			return mk(OpMul), true
		case 1:
			return mk(OpMulh), true
		case 2:
			return mk(OpMulhsu), true
		case 3:
			return mk(OpMulhu), true
		case 4:
			return mk(OpDiv), true
		case 5:
			return mk(OpDivu), true
		case 6:
			return mk(OpRem), true
		case 7:
			return mk(OpRemu), true
		}
	case 0x3B:
		if w == xlen.RV32 {
			return nil, false
		}
		switch funct3 {
		case 0:
			return mk(OpMulw), true
		case 4:
			return mk(OpDivw), true
		case 5:
			return mk(OpDivuw), true
		case 6:
			return mk(OpRemw), true
		case 7:
			return mk(OpRemuw), true
		}
	}
	return nil, false
}

func (d *MDecoder) Disasm(instr *DecodedInstruction) string {
	name := mMnemonics[instr.OpId.Idx]
	a := instr.Args
	return fmt.Sprintf("%s %s, %s, %s", name, RegName(a.Rd), RegName(a.Rs1), RegName(a.Rs2))
}

func (d *MDecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtM {
		return OpInfo{}, false
	}
	name, ok := mMnemonics[id.Idx]
	if !ok {
		return OpInfo{}, false
	}
	return OpInfo{OpId: id, Name: name, Class: ClassAlu, SizeHint: 4}, true
}
