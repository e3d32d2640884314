package isa

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/xlen"
)

// Zicsr extension (CSR instructions) OpId constants.
var (
	OpCsrrw  = NewOpId(ExtZicsr, 0)
	OpCsrrs  = NewOpId(ExtZicsr, 1)
	OpCsrrc  = NewOpId(ExtZicsr, 2)
	OpCsrrwi = NewOpId(ExtZicsr, 3)
	OpCsrrsi = NewOpId(ExtZicsr, 4)
	OpCsrrci = NewOpId(ExtZicsr, 5)
)

// Common CSR addresses.
const (
	CsrCycle     uint16 = 0xC00
	CsrTime      uint16 = 0xC01
	CsrInstret   uint16 = 0xC02
	CsrCycleH    uint16 = 0xC80
	CsrTimeH     uint16 = 0xC81
	CsrInstretH  uint16 = 0xC82
	CsrMisa      uint16 = 0x301
	CsrMvendorID uint16 = 0xF11
	CsrMarchID   uint16 = 0xF12
	CsrMimpID    uint16 = 0xF13
	CsrMhartID   uint16 = 0xF14
)

var csrNames = map[uint16]string{
	CsrCycle: "cycle", CsrTime: "time", CsrInstret: "instret",
	CsrCycleH: "cycleh", CsrTimeH: "timeh", CsrInstretH: "instreth",
	CsrMisa: "misa", CsrMvendorID: "mvendorid", CsrMarchID: "marchid",
	CsrMimpID: "mimpid", CsrMhartID: "mhartid",
}

// CsrName returns the canonical name for a CSR address, or "???" if unknown.
func CsrName(csr uint16) string {
	if name, ok := csrNames[csr]; ok {
		return name
	}
	return "???"
}

var zicsrMnemonics = map[uint16]string{
	0: "csrrw", 1: "csrrs", 2: "csrrc", 3: "csrrwi", 4: "csrrsi", 5: "csrrci",
}

// ZicsrDecoder decodes the Zicsr (CSR read/modify/write) extension.
type ZicsrDecoder struct{}

// NewZicsrDecoder constructs the Zicsr decoder.
func NewZicsrDecoder() *ZicsrDecoder { return &ZicsrDecoder{} }

func (d *ZicsrDecoder) Name() string { return "Zicsr" }

func (d *ZicsrDecoder) Decode16(uint16, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func (d *ZicsrDecoder) Decode32(raw uint32, pc uint64, w xlen.Width) (*DecodedInstruction, bool) {
	if DecodeOpcode(raw) != 0x73 {
		return nil, false
	}
	funct3 := DecodeFunct3(raw)
	if funct3 == 0 {
		return nil, false // ECALL/EBREAK, handled by the base decoder
	}
	rd, rs1 := DecodeRd(raw), DecodeRs1(raw)
	csr := uint16(raw >> 20)
	var id OpId
	switch funct3 {
	case 1:
		id = OpCsrrw
	case 2:
		id = OpCsrrs
	case 3:
		id = OpCsrrc
	case 5:
		id = OpCsrrwi
	case 6:
		id = OpCsrrsi
	case 7:
		id = OpCsrrci
	default:
		return nil, false
	}
	return &DecodedInstruction{
		Pc: pc, Size: 4, OpId: id, Raw: raw,
		Args: Args{Format: FormatI, Rd: rd, Rs1: rs1, Csr: csr, Funct3: funct3},
	}, true
}

func (d *ZicsrDecoder) Disasm(instr *DecodedInstruction) string {
	name := zicsrMnemonics[instr.OpId.Idx]
	a := instr.Args
	if instr.OpId == OpCsrrwi || instr.OpId == OpCsrrsi || instr.OpId == OpCsrrci {
		return fmt.Sprintf("%s %s, %s, %d", name, RegName(a.Rd), CsrName(a.Csr), a.Rs1)
	}
	return fmt.Sprintf("%s %s, %s, %s", name, RegName(a.Rd), CsrName(a.Csr), RegName(a.Rs1))
}

func (d *ZicsrDecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtZicsr {
		return OpInfo{}, false
	}
	name, ok := zicsrMnemonics[id.Idx]
	if !ok {
		return OpInfo{}, false
	}
	return OpInfo{OpId: id, Name: name, Class: ClassCsr, SizeHint: 4}, true
}

// ZifenceiDecoder decodes the single Zifencei instruction, FENCE.I.
type ZifenceiDecoder struct{}

// NewZifenceiDecoder constructs the Zifencei decoder.
func NewZifenceiDecoder() *ZifenceiDecoder { return &ZifenceiDecoder{} }

func (d *ZifenceiDecoder) Name() string { return "Zifencei" }

func (d *ZifenceiDecoder) Decode16(uint16, uint64, xlen.Width) (*DecodedInstruction, bool) {
	return nil, false
}

func (d *ZifenceiDecoder) Decode32(raw uint32, pc uint64, _ xlen.Width) (*DecodedInstruction, bool) {
	if DecodeOpcode(raw) != 0x0F || DecodeFunct3(raw) != 1 {
		return nil, false
	}
	return &DecodedInstruction{
		Pc: pc, Size: 4, OpId: NewOpId(ExtZifencei, 0), Raw: raw,
		Args: Args{Format: FormatNone},
	}, true
}

func (d *ZifenceiDecoder) Disasm(*DecodedInstruction) string { return "fence.i" }

func (d *ZifenceiDecoder) OpInfo(id OpId) (OpInfo, bool) {
	if id.Ext != ExtZifencei || id.Idx != 0 {
		return OpInfo{}, false
	}
	return OpInfo{OpId: id, Name: "fence.i", Class: ClassFence, SizeHint: 4}, true
}
