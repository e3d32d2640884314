package isa

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/xlen"
)

// A extension (atomics) OpId constants.
var (
	OpLrW      = NewOpId(ExtA, 0)
	OpScW      = NewOpId(ExtA, 1)
	OpAmoswapW = NewOpId(ExtA, 2)
	OpAmoaddW  = NewOpId(ExtA, 3)
	OpAmoxorW  = NewOpId(ExtA, 4)
	OpAmoandW  = NewOpId(ExtA, 5)
	OpAmoorW   = NewOpId(ExtA, 6)
	OpAmominW  = NewOpId(ExtA, 7)
	OpAmomaxW  = NewOpId(ExtA, 8)
	OpAmominuW = NewOpId(ExtA, 9)
	OpAmomaxuW = NewOpId(ExtA, 10)

	OpLrD      = NewOpId(ExtA, 11)
	OpScD      = NewOpId(ExtA, 12)
	OpAmoswapD = NewOpId(ExtA, 13)
	OpAmoaddD  = NewOpId(ExtA, 14)
	OpAmoxorD  = NewOpId(ExtA, 15)
	OpAmoandD  = NewOpId(ExtA, 16)
	OpAmoorD   = NewOpId(ExtA, 17)
	OpAmominD  = NewOpId(ExtA, 18)
	OpAmomaxD  = NewOpId(ExtA, 19)
	OpAmominuD = NewOpId(ExtA, 20)
	OpAmomaxuD = NewOpId(ExtA, 21)
)

var aMnemonics = map[uint16]string{
	0: "lr.w", 1: "sc.w", 2: "amoswap.w", 3: "amoadd.w", 4: "amoxor.w",
	5: "amoand.w", 6: "amoor.w", 7: "amomin.w", 8: "amomax.w", 9: "amominu.w", 10: "amomaxu.w",
	11: "lr.d", 12: "sc.d", 13: "amoswap.d", 14: "amoadd.d", 15: "amoxor.d",
	16: "amoand.d", 17: "amoor.d", 18: "amomin.d", 19: "amomax.d", 20: "amominu.d", 21: "amomaxu.d",
}

// amoFunct5 maps the funct5 field (bits [31:27]) to the .W/.D opcode
// pair's low index (offset 0 selects .W, +11 selects .D).
var amoFunct5 = map[uint8]uint16{
	0x02: 0,  // LR
	0x03: 1,  // SC
	0x01: 2,  // AMOSWAP
	0x00: 3,  // AMOADD
	0x04: 4,  // AMOXOR
	0x0C: 5,  // AMOAND
	0x08: 6,  // AMOOR
	0x10: 7,  // AMOMIN
	0x14: 8,  // AMOMAX
	0x18: 9,  // AMOMINU
	0x1C: 10, // AMOMAXU
}

// ADecoder decodes the A (atomics) extension. Because the core assumes
// single-threaded execution (spec §4.C), LR/SC always succeed and AMOs
// lower to plain read-modify-write statements in the lifter.
type ADecoder struct{}

// NewADecoder constructs the A-extension decoder.
func NewADecoder() *ADecoder { return &ADecoder{} }

func (d *ADecoder) Name() string { return "A" }

func (d *ADecoder) Decode16(uint16, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func (d *ADecoder) Decode32(raw uint32, pc uint64, w xlen.Width) (*DecodedInstruction, bool) {
	if DecodeOpcode(raw) != 0x2F {
		return nil, false
	}
	funct3 := DecodeFunct3(raw)
	if funct3 != 2 && funct3 != 3 {
		return nil, false
	}
	if funct3 == 3 && w == xlen.RV32 {
		return nil, false
	}
	funct7 := DecodeFunct7(raw)
	funct5 := funct7 >> 2
	idx, ok := amoFunct5[funct5]
	if !ok {
		return nil, false
	}
	if funct3 == 3 {
		idx += 11
	}
	rd, rs1, rs2 := DecodeRd(raw), DecodeRs1(raw), DecodeRs2(raw)
	return &DecodedInstruction{
		Pc: pc, Size: 4, OpId: NewOpId(ExtA, idx), Raw: raw,
		Args: Args{
			Format: FormatR, Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7,
			Aq: funct7&0x2 != 0, Rl: funct7&0x1 != 0,
		},
	}, true
}

func (d *ADecoder) Disasm(instr *DecodedInstruction) string {
	name := aMnemonics[instr.OpId.Idx]
	a := instr.Args
	if instr.OpId == OpLrW || instr.OpId == OpLrD {
		return fmt.Sprintf("%s %s, (%s)", name, RegName(a.Rd), RegName(a.Rs1))
	}
	return fmt.Sprintf("%s %s, %s, (%s)", name, RegName(a.Rd), RegName(a.Rs2), RegName(a.Rs1))
}

func (d *ADecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtA {
		return OpInfo{}, false
	}
	name, ok := aMnemonics[id.Idx]
	if !ok {
		return OpInfo{}, false
	}
	return OpInfo{OpId: id, Name: name, Class: ClassAtomic, SizeHint: 4}, true
}
