package isa

import "github.com/rvrecompiler/rvr/internal/xlen"

// Base I extension OpId constants, index order matches original_source
// crates/rvr-isa/src/base.rs so the catalog, lifter, and disassembler
// stay in lockstep with the reference implementation this was
// distilled from.
var (
	OpLui    = NewOpId(ExtI, 0)
	OpAuipc  = NewOpId(ExtI, 1)
	OpJal    = NewOpId(ExtI, 2)
	OpJalr   = NewOpId(ExtI, 3)
	OpBeq    = NewOpId(ExtI, 4)
	OpBne    = NewOpId(ExtI, 5)
	OpBlt    = NewOpId(ExtI, 6)
	OpBge    = NewOpId(ExtI, 7)
	OpBltu   = NewOpId(ExtI, 8)
	OpBgeu   = NewOpId(ExtI, 9)
	OpLb     = NewOpId(ExtI, 10)
	OpLh     = NewOpId(ExtI, 11)
	OpLw     = NewOpId(ExtI, 12)
	OpLbu    = NewOpId(ExtI, 13)
	OpLhu    = NewOpId(ExtI, 14)
	OpSb     = NewOpId(ExtI, 15)
	OpSh     = NewOpId(ExtI, 16)
	OpSw     = NewOpId(ExtI, 17)
	OpAddi   = NewOpId(ExtI, 18)
	OpSlti   = NewOpId(ExtI, 19)
	OpSltiu  = NewOpId(ExtI, 20)
	OpXori   = NewOpId(ExtI, 21)
	OpOri    = NewOpId(ExtI, 22)
	OpAndi   = NewOpId(ExtI, 23)
	OpSlli   = NewOpId(ExtI, 24)
	OpSrli   = NewOpId(ExtI, 25)
	OpSrai   = NewOpId(ExtI, 26)
	OpAdd    = NewOpId(ExtI, 27)
	OpSub    = NewOpId(ExtI, 28)
	OpSll    = NewOpId(ExtI, 29)
	OpSlt    = NewOpId(ExtI, 30)
	OpSltu   = NewOpId(ExtI, 31)
	OpXor    = NewOpId(ExtI, 32)
	OpSrl    = NewOpId(ExtI, 33)
	OpSra    = NewOpId(ExtI, 34)
	OpOr     = NewOpId(ExtI, 35)
	OpAnd    = NewOpId(ExtI, 36)
	OpFence  = NewOpId(ExtI, 37)
	OpEcall  = NewOpId(ExtI, 38)
	OpEbreak = NewOpId(ExtI, 39)

	// RV64I additions.
	OpLwu   = NewOpId(ExtI, 40)
	OpLd    = NewOpId(ExtI, 41)
	OpSd    = NewOpId(ExtI, 42)
	OpAddiw = NewOpId(ExtI, 43)
	OpSlliw = NewOpId(ExtI, 44)
	OpSrliw = NewOpId(ExtI, 45)
	OpSraiw = NewOpId(ExtI, 46)
	OpAddw  = NewOpId(ExtI, 47)
	OpSubw  = NewOpId(ExtI, 48)
	OpSllw  = NewOpId(ExtI, 49)
	OpSrlw  = NewOpId(ExtI, 50)
	OpSraw  = NewOpId(ExtI, 51)
)

var baseMnemonics = map[uint16]string{
	0: "lui", 1: "auipc", 2: "jal", 3: "jalr",
	4: "beq", 5: "bne", 6: "blt", 7: "bge", 8: "bltu", 9: "bgeu",
	10: "lb", 11: "lh", 12: "lw", 13: "lbu", 14: "lhu",
	15: "sb", 16: "sh", 17: "sw",
	18: "addi", 19: "slti", 20: "sltiu", 21: "xori", 22: "ori", 23: "andi",
	24: "slli", 25: "srli", 26: "srai",
	27: "add", 28: "sub", 29: "sll", 30: "slt", 31: "sltu",
	32: "xor", 33: "srl", 34: "sra", 35: "or", 36: "and",
	37: "fence", 38: "ecall", 39: "ebreak",
	40: "lwu", 41: "ld", 42: "sd",
	43: "addiw", 44: "slliw", 45: "srliw", 46: "sraiw",
	47: "addw", 48: "subw", 49: "sllw", 50: "srlw", 51: "sraw",
}

var baseClasses = map[uint16]OpClass{
	0: ClassAlu, 1: ClassAlu,
	2: ClassJump, 3: ClassJumpDyn,
	4: ClassBranch, 5: ClassBranch, 6: ClassBranch, 7: ClassBranch, 8: ClassBranch, 9: ClassBranch,
	10: ClassLoad, 11: ClassLoad, 12: ClassLoad, 13: ClassLoad, 14: ClassLoad,
	15: ClassStore, 16: ClassStore, 17: ClassStore,
	18: ClassAlu, 19: ClassAlu, 20: ClassAlu, 21: ClassAlu, 22: ClassAlu, 23: ClassAlu,
	24: ClassAlu, 25: ClassAlu, 26: ClassAlu,
	27: ClassAlu, 28: ClassAlu, 29: ClassAlu, 30: ClassAlu, 31: ClassAlu,
	32: ClassAlu, 33: ClassAlu, 34: ClassAlu, 35: ClassAlu, 36: ClassAlu,
	37: ClassFence, 38: ClassSystem, 39: ClassTrap,
	40: ClassLoad, 41: ClassLoad, 42: ClassStore,
	43: ClassAlu, 44: ClassAlu, 45: ClassAlu, 46: ClassAlu,
	47: ClassAlu, 48: ClassAlu, 49: ClassAlu, 50: ClassAlu, 51: ClassAlu,
}

// BaseDecoder decodes the RV32I/RV64I base instruction set (and E
// variant, which only restricts the register file size, handled
// upstream by the CFG builder/runtime rather than the decoder).
type BaseDecoder struct {
	embedded bool
}

// NewBaseDecoder constructs the base I-extension decoder.
func NewBaseDecoder(embedded bool) *BaseDecoder { return &BaseDecoder{embedded: embedded} }

func (d *BaseDecoder) Name() string { return "I" }

func (d *BaseDecoder) Decode16(uint16, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func (d *BaseDecoder) Decode32(raw uint32, pc uint64, w xlen.Width) (*DecodedInstruction, bool) {
	opcode := DecodeOpcode(raw)
	funct3 := DecodeFunct3(raw)
	funct7 := DecodeFunct7(raw)
	rd := DecodeRd(raw)
	rs1 := DecodeRs1(raw)
	rs2 := DecodeRs2(raw)

	mk := func(id OpId, format Format, imm int64) *DecodedInstruction {
		return &DecodedInstruction{
			Pc: pc, Size: 4, OpId: id, Raw: raw,
			Args: Args{Format: format, Rd: rd, Rs1: rs1, Rs2: rs2, Imm: imm, Funct3: funct3, Funct7: funct7},
		}
	}

	switch opcode {
	case 0x37: // LUI
		return mk(OpLui, FormatU, int64(DecodeUImm(raw))), true
	case 0x17: // AUIPC
		return mk(OpAuipc, FormatU, int64(DecodeUImm(raw))), true
	case 0x6F: // JAL
		return mk(OpJal, FormatJ, int64(DecodeJImm(raw))), true
	case 0x67: // JALR
		if funct3 != 0 {
			return nil, false
		}
		return mk(OpJalr, FormatI, int64(DecodeIImm(raw))), true
	case 0x63: // branches
		var id OpId
		switch funct3 {
		case 0:
			id = OpBeq
		case 1:
			id = OpBne
		case 4:
			id = OpBlt
		case 5:
			id = OpBge
		case 6:
			id = OpBltu
		case 7:
			id = OpBgeu
		default:
			return nil, false
		}
		return mk(id, FormatB, int64(DecodeBImm(raw))), true
	case 0x03: // loads
		var id OpId
		switch funct3 {
		case 0:
			id = OpLb
		case 1:
			id = OpLh
		case 2:
			id = OpLw
		case 4:
			id = OpLbu
		case 5:
			id = OpLhu
		case 6:
			if w == xlen.RV32 {
				return nil, false
			}
			id = OpLwu
		case 3:
			if w == xlen.RV32 {
				return nil, false
			}
			id = OpLd
		default:
			return nil, false
		}
		return mk(id, FormatI, int64(DecodeIImm(raw))), true
	case 0x23: // stores
		var id OpId
		switch funct3 {
		case 0:
			id = OpSb
		case 1:
			id = OpSh
		case 2:
			id = OpSw
		case 3:
			if w == xlen.RV32 {
				return nil, false
			}
			id = OpSd
		default:
			return nil, false
		}
		return mk(id, FormatS, int64(DecodeSImm(raw))), true
	case 0x13: // ALU reg/imm
		switch funct3 {
		case 0:
			return mk(OpAddi, FormatI, int64(DecodeIImm(raw))), true
		case 2:
			return mk(OpSlti, FormatI, int64(DecodeIImm(raw))), true
		case 3:
			return mk(OpSltiu, FormatI, int64(DecodeIImm(raw))), true
		case 4:
			return mk(OpXori, FormatI, int64(DecodeIImm(raw))), true
		case 6:
			return mk(OpOri, FormatI, int64(DecodeIImm(raw))), true
		case 7:
			return mk(OpAndi, FormatI, int64(DecodeIImm(raw))), true
		case 1:
			shamtMask := uint32(0x3F)
			if w == xlen.RV32 {
				shamtMask = 0x1F
			}
			i := mk(OpSlli, FormatI, int64(rs2))
			i.Args.Shamt = uint8(uint32(rs2) & shamtMask)
			return i, true
		case 5:
			shamtMask := uint32(0x3F)
			if w == xlen.RV32 {
				shamtMask = 0x1F
			}
			shamt := uint8(uint32(rs2) & shamtMask)
			var i *DecodedInstruction
			if funct7&0x20 != 0 {
				i = mk(OpSrai, FormatI, int64(shamt))
			} else {
				i = mk(OpSrli, FormatI, int64(shamt))
			}
			i.Args.Shamt = shamt
			return i, true
		}
		return nil, false
	case 0x33: // ALU reg/reg
		var id OpId
		switch {
		case funct3 == 0 && funct7 == 0x00:
			id = OpAdd
		case funct3 == 0 && funct7 == 0x20:
			id = OpSub
		case funct3 == 1 && funct7 == 0x00:
			id = OpSll
		case funct3 == 2 && funct7 == 0x00:
			id = OpSlt
		case funct3 == 3 && funct7 == 0x00:
			id = OpSltu
		case funct3 == 4 && funct7 == 0x00:
			id = OpXor
		case funct3 == 5 && funct7 == 0x00:
			id = OpSrl
		case funct3 == 5 && funct7 == 0x20:
			id = OpSra
		case funct3 == 6 && funct7 == 0x00:
			id = OpOr
		case funct3 == 7 && funct7 == 0x00:
			id = OpAnd
		default:
			return nil, false
		}
		return mk(id, FormatR, 0), true
	case 0x0F: // FENCE (FENCE.I has funct3=1, handled by the Zifencei decoder)
		if funct3 != 0 {
			return nil, false
		}
		return mk(OpFence, FormatNone, 0), true
	case 0x73: // ECALL/EBREAK (CSR ops have funct3 != 0, handled by Zicsr decoder)
		if funct3 != 0 {
			return nil, false
		}
		switch raw >> 20 {
		case 0:
			return mk(OpEcall, FormatNone, 0), true
		case 1:
			return mk(OpEbreak, FormatNone, 0), true
		}
		return nil, false
	case 0x1B: // RV64I W-variant ALU reg/imm
		if w == xlen.RV32 {
			return nil, false
		}
		switch funct3 {
		case 0:
			return mk(OpAddiw, FormatI, int64(DecodeIImm(raw))), true
		case 1:
			i := mk(OpSlliw, FormatI, int64(rs2&0x1F))
			i.Args.Shamt = rs2 & 0x1F
			return i, true
		case 5:
			shamt := rs2 & 0x1F
			var i *DecodedInstruction
			if funct7&0x20 != 0 {
				i = mk(OpSraiw, FormatI, int64(shamt))
			} else {
				i = mk(OpSrliw, FormatI, int64(shamt))
			}
			i.Args.Shamt = shamt
			return i, true
		}
		return nil, false
	case 0x3B: // RV64I W-variant ALU reg/reg
		if w == xlen.RV32 {
			return nil, false
		}
		var id OpId
		switch {
		case funct3 == 0 && funct7 == 0x00:
			id = OpAddw
		case funct3 == 0 && funct7 == 0x20:
			id = OpSubw
		case funct3 == 1 && funct7 == 0x00:
			id = OpSllw
		case funct3 == 5 && funct7 == 0x00:
			id = OpSrlw
		case funct3 == 5 && funct7 == 0x20:
			id = OpSraw
		default:
			return nil, false
		}
		return mk(id, FormatR, 0), true
	}
	return nil, false
}

func (d *BaseDecoder) Disasm(instr *DecodedInstruction) string {
	return disasmGeneric(baseMnemonics[instr.OpId.Idx], instr)
}

func (d *BaseDecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtI {
		return OpInfo{}, false
	}
	name, ok := baseMnemonics[id.Idx]
	if !ok {
		return OpInfo{}, false
	}
	return OpInfo{OpId: id, Name: name, Class: baseClasses[id.Idx], SizeHint: 4}, true
}
