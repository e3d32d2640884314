// Package isa holds the RISC-V instruction set definitions and the
// composable decoder registry (spec §4.B): one self-contained decoder
// per extension (I, M, A, C, Zicsr, Zifencei), tried in order by a
// CompositeDecoder.
package isa

import "fmt"

// Extension identifiers. Kept small and dense so OpId packs into a
// single uint32 (ext_id, index).
const (
	ExtI        uint8 = iota // RV32I/RV64I base
	ExtM                     // M: multiply/divide
	ExtA                     // A: atomics
	ExtC                     // C: compressed
	ExtZicsr                 // Zicsr: CSR instructions
	ExtZifencei              // Zifencei: instruction fence
)

// OpId is a globally unique operation identifier: (ext_id, index).
type OpId struct {
	Ext uint8
	Idx uint16
}

// NewOpId builds an OpId.
func NewOpId(ext uint8, idx uint16) OpId { return OpId{Ext: ext, Idx: idx} }

// Pack encodes the OpId into a single uint32 for compact storage
// (ext in bits 16-23, index in the low 16 bits).
func (o OpId) Pack() uint32 { return uint32(o.Ext)<<16 | uint32(o.Idx) }

func (o OpId) String() string { return fmt.Sprintf("ext%d.%d", o.Ext, o.Idx) }

// OpClass buckets opcodes by shape, for generic handling in the emitter
// (e.g. deciding whether a block-ending instruction needs a dispatch
// table slot).
type OpClass uint8

const (
	ClassAlu OpClass = iota
	ClassLoad
	ClassStore
	ClassBranch
	ClassJump
	ClassJumpDyn
	ClassSystem
	ClassFence
	ClassCsr
	ClassAtomic
	ClassTrap
)

// OpInfo is the static metadata the decoder registry publishes for an
// opcode: mnemonic, class, and the instruction size a default lift
// would produce (2 for compressed forms, 4 otherwise).
type OpInfo struct {
	OpId     OpId
	Name     string
	Class    OpClass
	SizeHint uint8
}

// Format tags the RISC-V instruction-format shape of InstrArgs, mirroring
// the six standard encodings plus the handful of compressed shapes the
// C extension needs.
type Format uint8

const (
	FormatR Format = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatCR        // compressed register-register
	FormatCI        // compressed immediate
	FormatCSS       // compressed stack-relative store
	FormatCIW       // compressed wide immediate
	FormatCL        // compressed load
	FormatCS        // compressed store
	FormatCB        // compressed branch/shift
	FormatCJ        // compressed jump
	FormatNone      // no operands (e.g. FENCE.I, EBREAK)
)

// Args is a tagged union over the RISC-V instruction formats. Exactly
// the fields relevant to Format are meaningful; the rest are zero.
type Args struct {
	Format     Format
	Rd         uint8
	Rs1        uint8
	Rs2        uint8
	Rs3        uint8 // unused by the base/M/A/C extensions, reserved
	Imm        int64
	Csr        uint16
	Shamt      uint8
	Funct3     uint8
	Funct7     uint8
	Aq, Rl     bool // atomic acquire/release bits
}

// DecodedInstruction is the decoder's output record (spec §3):
// { pc, size, opid, raw, args }.
type DecodedInstruction struct {
	Pc   uint64
	Size uint8 // 2 (compressed) or 4 (standard)
	OpId OpId
	Raw  uint32
	Args Args
}
