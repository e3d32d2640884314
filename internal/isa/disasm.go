package isa

import "fmt"

// abiRegNames are the standard RISC-V register ABI names, used so that
// disassembly matches the canonical assembler form modulo register ABI
// names (spec §8 testable property 1).
var abiRegNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name for register index r.
func RegName(r uint8) string {
	if int(r) < len(abiRegNames) {
		return abiRegNames[r]
	}
	return fmt.Sprintf("x%d", r)
}

// disasmGeneric renders a default "mnemonic operands" string from the
// tagged Args union, used by any extension that does not need a
// bespoke disassembly routine.
func disasmGeneric(mnemonic string, instr *DecodedInstruction) string {
	a := instr.Args
	switch a.Format {
	case FormatR:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic, RegName(a.Rd), RegName(a.Rs1), RegName(a.Rs2))
	case FormatI:
		if instr.OpId == OpSlli || instr.OpId == OpSrli || instr.OpId == OpSrai ||
			instr.OpId == OpSlliw || instr.OpId == OpSrliw || instr.OpId == OpSraiw {
			return fmt.Sprintf("%s %s, %s, %d", mnemonic, RegName(a.Rd), RegName(a.Rs1), a.Shamt)
		}
		if instr.OpId == OpJalr {
			return fmt.Sprintf("%s %s, %d(%s)", mnemonic, RegName(a.Rd), a.Imm, RegName(a.Rs1))
		}
		if isLoadOp(instr.OpId) {
			return fmt.Sprintf("%s %s, %d(%s)", mnemonic, RegName(a.Rd), a.Imm, RegName(a.Rs1))
		}
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, RegName(a.Rd), RegName(a.Rs1), a.Imm)
	case FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic, RegName(a.Rs2), a.Imm, RegName(a.Rs1))
	case FormatB:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic, RegName(a.Rs1), RegName(a.Rs2), a.Imm)
	case FormatU:
		return fmt.Sprintf("%s %s, %#x", mnemonic, RegName(a.Rd), uint32(a.Imm)>>12)
	case FormatJ:
		return fmt.Sprintf("%s %s, %d", mnemonic, RegName(a.Rd), a.Imm)
	case FormatNone:
		return mnemonic
	default:
		return mnemonic
	}
}

func isLoadOp(id OpId) bool {
	switch id {
	case OpLb, OpLh, OpLw, OpLbu, OpLhu, OpLwu, OpLd:
		return true
	}
	return false
}
