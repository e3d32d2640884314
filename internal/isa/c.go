package isa

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/xlen"
)

// C extension (compressed instructions) OpId constants, index order
// matches original_source crates/rvr-isa/src/c.rs.
var (
	OpCAddi4spn = NewOpId(ExtC, 0)
	OpCLw       = NewOpId(ExtC, 1)
	OpCSw       = NewOpId(ExtC, 2)
	OpCLd       = NewOpId(ExtC, 3) // RV64C
	OpCSd       = NewOpId(ExtC, 4) // RV64C

	OpCNop      = NewOpId(ExtC, 5)
	OpCAddi     = NewOpId(ExtC, 6)
	OpCJal      = NewOpId(ExtC, 7) // RV32C only
	OpCAddiw    = NewOpId(ExtC, 8) // RV64C
	OpCLi       = NewOpId(ExtC, 9)
	OpCAddi16sp = NewOpId(ExtC, 10)
	OpCLui      = NewOpId(ExtC, 11)
	OpCSrli     = NewOpId(ExtC, 12)
	OpCSrai     = NewOpId(ExtC, 13)
	OpCAndi     = NewOpId(ExtC, 14)
	OpCSub      = NewOpId(ExtC, 15)
	OpCXor      = NewOpId(ExtC, 16)
	OpCOr       = NewOpId(ExtC, 17)
	OpCAnd      = NewOpId(ExtC, 18)
	OpCSubw     = NewOpId(ExtC, 19) // RV64C
	OpCAddw     = NewOpId(ExtC, 20) // RV64C
	OpCJ        = NewOpId(ExtC, 21)
	OpCBeqz     = NewOpId(ExtC, 22)
	OpCBnez     = NewOpId(ExtC, 23)

	OpCSlli   = NewOpId(ExtC, 24)
	OpCLwsp   = NewOpId(ExtC, 25)
	OpCLdsp   = NewOpId(ExtC, 26) // RV64C
	OpCJr     = NewOpId(ExtC, 27)
	OpCMv     = NewOpId(ExtC, 28)
	OpCEbreak = NewOpId(ExtC, 29)
	OpCJalr   = NewOpId(ExtC, 30)
	OpCAdd    = NewOpId(ExtC, 31)
	OpCSwsp   = NewOpId(ExtC, 32)
	OpCSdsp   = NewOpId(ExtC, 33) // RV64C
)

var cMnemonics = map[uint16]string{
	0: "c.addi4spn", 1: "c.lw", 2: "c.sw", 3: "c.ld", 4: "c.sd",
	5: "c.nop", 6: "c.addi", 7: "c.jal", 8: "c.addiw", 9: "c.li",
	10: "c.addi16sp", 11: "c.lui", 12: "c.srli", 13: "c.srai", 14: "c.andi",
	15: "c.sub", 16: "c.xor", 17: "c.or", 18: "c.and", 19: "c.subw", 20: "c.addw",
	21: "c.j", 22: "c.beqz", 23: "c.bnez",
	24: "c.slli", 25: "c.lwsp", 26: "c.ldsp", 27: "c.jr", 28: "c.mv",
	29: "c.ebreak", 30: "c.jalr", 31: "c.add", 32: "c.swsp", 33: "c.sdsp",
}

// bit extracts a single bit from x at position n.
func bit(x uint16, n uint) uint32 { return uint32((x >> n) & 1) }

// bits extracts an inclusive [hi:lo] field from x.
func bits(x uint16, hi, lo uint) uint32 {
	return uint32(x>>lo) & ((1 << (hi - lo + 1)) - 1)
}

// creg maps a 3-bit compressed register field to the full x8-x15 range.
func creg(field uint32) uint8 { return uint8(field + 8) }

func sext(val uint32, bitsWide uint) int64 {
	shift := 32 - bitsWide
	return int64(int32(val<<shift)) >> shift
}

// CDecoder decodes the C (compressed) extension. It must be tried
// before every other decoder because compressed and standard encodings
// share low-bit patterns (spec §4.B).
type CDecoder struct{}

// NewCDecoder constructs the compressed-instruction decoder.
func NewCDecoder() *CDecoder { return &CDecoder{} }

func (d *CDecoder) Name() string { return "C" }

func (d *CDecoder) Decode32(uint32, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func mkc(pc uint64, raw16 uint16, id OpId, args Args) *DecodedInstruction {
	return &DecodedInstruction{Pc: pc, Size: 2, OpId: id, Raw: uint32(raw16), Args: args}
}

func (d *CDecoder) Decode16(x uint16, pc uint64, w xlen.Width) (*DecodedInstruction, bool) {
	quadrant := x & 0x3
	funct3 := uint8(bits(x, 15, 13))

	switch quadrant {
	case 0:
		rdp := creg(bits(x, 4, 2))
		rs1p := creg(bits(x, 9, 7))
		switch funct3 {
		case 0: // C.ADDI4SPN
			nzuimm := (bits(x, 10, 7) << 6) | (bits(x, 12, 11) << 4) | (bit(x, 6) << 2) | (bit(x, 5) << 3)
			if nzuimm == 0 {
				return nil, false // reserved
			}
			return mkc(pc, x, OpCAddi4spn, Args{Format: FormatCIW, Rd: rdp, Rs1: 2, Imm: int64(nzuimm)}), true
		case 2: // C.LW
			uimm := (bits(x, 12, 10) << 3) | (bit(x, 6) << 2) | (bit(x, 5) << 6)
			return mkc(pc, x, OpCLw, Args{Format: FormatCL, Rd: rdp, Rs1: rs1p, Imm: int64(uimm)}), true
		case 3: // C.LD (RV64 only)
			if w == xlen.RV32 {
				return nil, false
			}
			uimm := (bits(x, 12, 10) << 3) | (bits(x, 6, 5) << 6)
			return mkc(pc, x, OpCLd, Args{Format: FormatCL, Rd: rdp, Rs1: rs1p, Imm: int64(uimm)}), true
		case 6: // C.SW
			uimm := (bits(x, 12, 10) << 3) | (bit(x, 6) << 2) | (bit(x, 5) << 6)
			return mkc(pc, x, OpCSw, Args{Format: FormatCS, Rs1: rs1p, Rs2: rdp, Imm: int64(uimm)}), true
		case 7: // C.SD (RV64 only)
			if w == xlen.RV32 {
				return nil, false
			}
			uimm := (bits(x, 12, 10) << 3) | (bits(x, 6, 5) << 6)
			return mkc(pc, x, OpCSd, Args{Format: FormatCS, Rs1: rs1p, Rs2: rdp, Imm: int64(uimm)}), true
		}
		return nil, false

	case 1:
		rd := uint8(bits(x, 11, 7))
		switch funct3 {
		case 0: // C.ADDI / C.NOP
			imm := sext((bit(x, 12)<<5)|bits(x, 6, 2), 6)
			if rd == 0 {
				return mkc(pc, x, OpCNop, Args{Format: FormatCI}), true
			}
			return mkc(pc, x, OpCAddi, Args{Format: FormatCI, Rd: rd, Rs1: rd, Imm: imm}), true
		case 1: // C.JAL (RV32) / C.ADDIW (RV64)
			if w == xlen.RV32 {
				imm := decodeCJImm(x)
				return mkc(pc, x, OpCJal, Args{Format: FormatCJ, Rd: 1, Imm: imm}), true
			}
			imm := sext((bit(x, 12)<<5)|bits(x, 6, 2), 6)
			return mkc(pc, x, OpCAddiw, Args{Format: FormatCI, Rd: rd, Rs1: rd, Imm: imm}), true
		case 2: // C.LI
			imm := sext((bit(x, 12)<<5)|bits(x, 6, 2), 6)
			return mkc(pc, x, OpCLi, Args{Format: FormatCI, Rd: rd, Imm: imm}), true
		case 3:
			if rd == 2 { // C.ADDI16SP
				imm := sext((bit(x, 12)<<9)|(bit(x, 6)<<4)|(bit(x, 5)<<6)|(bits(x, 4, 3)<<7)|(bit(x, 2)<<5), 10)
				if imm == 0 {
					return nil, false
				}
				return mkc(pc, x, OpCAddi16sp, Args{Format: FormatCI, Rd: 2, Rs1: 2, Imm: imm}), true
			}
			// C.LUI
			imm := sext((bit(x, 12)<<17)|(bits(x, 6, 2)<<12), 18)
			if imm == 0 || rd == 0 {
				return nil, false // reserved
			}
			return mkc(pc, x, OpCLui, Args{Format: FormatCI, Rd: rd, Imm: imm}), true
		case 4:
			rdp := creg(bits(x, 9, 7))
			grp := bits(x, 11, 10)
			switch grp {
			case 0: // C.SRLI
				shamt := (bit(x, 12) << 5) | bits(x, 6, 2)
				return mkc(pc, x, OpCSrli, Args{Format: FormatCB, Rd: rdp, Rs1: rdp, Shamt: uint8(shamt)}), true
			case 1: // C.SRAI
				shamt := (bit(x, 12) << 5) | bits(x, 6, 2)
				return mkc(pc, x, OpCSrai, Args{Format: FormatCB, Rd: rdp, Rs1: rdp, Shamt: uint8(shamt)}), true
			case 2: // C.ANDI
				imm := sext((bit(x, 12)<<5)|bits(x, 6, 2), 6)
				return mkc(pc, x, OpCAndi, Args{Format: FormatCB, Rd: rdp, Rs1: rdp, Imm: imm}), true
			case 3: // CA group
				rs2p := creg(bits(x, 4, 2))
				wide := bit(x, 12) == 1
				var id OpId
				switch bits(x, 6, 5) {
				case 0:
					if wide {
						id = OpCSubw
					} else {
						id = OpCSub
					}
				case 1:
					if wide {
						id = OpCAddw
					} else {
						id = OpCXor
					}
				case 2:
					if wide {
						return nil, false
					}
					id = OpCOr
				case 3:
					if wide {
						return nil, false
					}
					id = OpCAnd
				}
				return mkc(pc, x, id, Args{Format: FormatCR, Rd: rdp, Rs1: rdp, Rs2: rs2p}), true
			}
		case 5: // C.J
			return mkc(pc, x, OpCJ, Args{Format: FormatCJ, Imm: decodeCJImm(x)}), true
		case 6: // C.BEQZ
			rs1p := creg(bits(x, 9, 7))
			return mkc(pc, x, OpCBeqz, Args{Format: FormatCB, Rs1: rs1p, Imm: decodeCBImm(x)}), true
		case 7: // C.BNEZ
			rs1p := creg(bits(x, 9, 7))
			return mkc(pc, x, OpCBnez, Args{Format: FormatCB, Rs1: rs1p, Imm: decodeCBImm(x)}), true
		}
		return nil, false

	case 2:
		rd := uint8(bits(x, 11, 7))
		switch funct3 {
		case 0: // C.SLLI
			if rd == 0 {
				return nil, false
			}
			shamt := (bit(x, 12) << 5) | bits(x, 6, 2)
			return mkc(pc, x, OpCSlli, Args{Format: FormatCI, Rd: rd, Rs1: rd, Shamt: uint8(shamt)}), true
		case 2: // C.LWSP
			if rd == 0 {
				return nil, false
			}
			off := (bit(x, 12) << 5) | (bits(x, 6, 4) << 2) | (bits(x, 3, 2) << 6)
			return mkc(pc, x, OpCLwsp, Args{Format: FormatCI, Rd: rd, Rs1: 2, Imm: int64(off)}), true
		case 3: // C.LDSP (RV64 only)
			if w == xlen.RV32 || rd == 0 {
				return nil, false
			}
			off := (bit(x, 12) << 5) | (bits(x, 6, 5) << 3) | (bits(x, 4, 2) << 6)
			return mkc(pc, x, OpCLdsp, Args{Format: FormatCI, Rd: rd, Rs1: 2, Imm: int64(off)}), true
		case 4:
			rs2 := uint8(bits(x, 6, 2))
			if bit(x, 12) == 0 {
				if rs2 == 0 { // C.JR
					if rd == 0 {
						return nil, false
					}
					return mkc(pc, x, OpCJr, Args{Format: FormatCR, Rs1: rd}), true
				}
				// C.MV
				return mkc(pc, x, OpCMv, Args{Format: FormatCR, Rd: rd, Rs2: rs2}), true
			}
			if rs2 == 0 {
				if rd == 0 { // C.EBREAK
					return mkc(pc, x, OpCEbreak, Args{Format: FormatNone}), true
				}
				// C.JALR
				return mkc(pc, x, OpCJalr, Args{Format: FormatCR, Rd: 1, Rs1: rd}), true
			}
			// C.ADD
			return mkc(pc, x, OpCAdd, Args{Format: FormatCR, Rd: rd, Rs1: rd, Rs2: rs2}), true
		case 6: // C.SWSP
			rs2 := uint8(bits(x, 6, 2))
			off := (bits(x, 12, 9) << 2) | (bits(x, 8, 7) << 6)
			return mkc(pc, x, OpCSwsp, Args{Format: FormatCSS, Rs1: 2, Rs2: rs2, Imm: int64(off)}), true
		case 7: // C.SDSP (RV64 only)
			if w == xlen.RV32 {
				return nil, false
			}
			rs2 := uint8(bits(x, 6, 2))
			off := (bits(x, 12, 10) << 3) | (bits(x, 9, 7) << 6)
			return mkc(pc, x, OpCSdsp, Args{Format: FormatCSS, Rs1: 2, Rs2: rs2, Imm: int64(off)}), true
		}
		return nil, false
	}
	return nil, false
}

// decodeCJImm decodes the C.J/C.JAL jump offset: imm[11|4|9:8|10|6|7|3:1|5].
func decodeCJImm(x uint16) int64 {
	imm := (bit(x, 12) << 11) | (bit(x, 11) << 4) | (bits(x, 10, 9) << 8) |
		(bit(x, 8) << 10) | (bit(x, 7) << 6) | (bit(x, 6) << 7) |
		(bits(x, 5, 3) << 1) | (bit(x, 2) << 5)
	return sext(imm, 12)
}

// decodeCBImm decodes the C.BEQZ/C.BNEZ branch offset: imm[8|4:3|7:6|2:1|5].
func decodeCBImm(x uint16) int64 {
	imm := (bit(x, 12) << 8) | (bits(x, 11, 10) << 3) | (bits(x, 6, 5) << 6) |
		(bits(x, 4, 3) << 1) | (bit(x, 2) << 5)
	return sext(imm, 9)
}

func (d *CDecoder) Disasm(instr *DecodedInstruction) string {
	name := cMnemonics[instr.OpId.Idx]
	a := instr.Args
	switch a.Format {
	case FormatCR:
		if instr.OpId == OpCJr || instr.OpId == OpCJalr {
			return fmt.Sprintf("%s %s", name, RegName(a.Rs1))
		}
		if instr.OpId == OpCMv {
			return fmt.Sprintf("%s %s, %s", name, RegName(a.Rd), RegName(a.Rs2))
		}
		return fmt.Sprintf("%s %s, %s", name, RegName(a.Rd), RegName(a.Rs2))
	case FormatCI:
		if instr.OpId == OpCSlli || instr.OpId == OpCLwsp || instr.OpId == OpCLdsp {
			return fmt.Sprintf("%s %s, %d", name, RegName(a.Rd), a.Imm)
		}
		return fmt.Sprintf("%s %s, %d", name, RegName(a.Rd), a.Imm)
	case FormatCSS:
		return fmt.Sprintf("%s %s, %d(sp)", name, RegName(a.Rs2), a.Imm)
	case FormatCIW:
		return fmt.Sprintf("%s %s, sp, %d", name, RegName(a.Rd), a.Imm)
	case FormatCL:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(a.Rd), a.Imm, RegName(a.Rs1))
	case FormatCS:
		return fmt.Sprintf("%s %s, %d(%s)", name, RegName(a.Rs2), a.Imm, RegName(a.Rs1))
	case FormatCB:
		if instr.OpId == OpCBeqz || instr.OpId == OpCBnez {
			return fmt.Sprintf("%s %s, %d", name, RegName(a.Rs1), a.Imm)
		}
		if instr.OpId == OpCAndi {
			return fmt.Sprintf("%s %s, %d", name, RegName(a.Rd), a.Imm)
		}
		return fmt.Sprintf("%s %s, %d", name, RegName(a.Rd), a.Shamt)
	case FormatCJ:
		return fmt.Sprintf("%s %d", name, a.Imm)
	case FormatNone:
		return name
	default:
		return name
	}
}

func (d *CDecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtC {
		return OpInfo{}, false
	}
	name, ok := cMnemonics[id.Idx]
	if !ok {
		return OpInfo{}, false
	}
	class := ClassAlu
	switch id {
	case OpCLw, OpCLd, OpCLwsp, OpCLdsp:
		class = ClassLoad
	case OpCSw, OpCSd, OpCSwsp, OpCSdsp:
		class = ClassStore
	case OpCJ, OpCJal:
		class = ClassJump
	case OpCJr, OpCJalr:
		class = ClassJumpDyn
	case OpCBeqz, OpCBnez:
		class = ClassBranch
	case OpCEbreak:
		class = ClassTrap
	}
	return OpInfo{OpId: id, Name: name, Class: class, SizeHint: 2}, true
}
