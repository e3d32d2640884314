package lift

import (
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
)

// liftM lowers the M (multiply/divide) extension. Division-by-zero and
// signed-overflow results follow the RISC-V spec's defined (not
// trapping) semantics, expressed as Select trees so the emitted C/asm
// never needs a branch around a hardware exception.
func (l *Lifter) liftM(b *ir.Builder, instr *isa.DecodedInstruction) ir.InstrIR {
	a := instr.Args
	rs1 := b.ReadReg(a.Rs1)
	rs2 := b.ReadReg(a.Rs2)
	isZero := ir.Bin(ir.BinaryEq, rs2, ir.Const(0))

	switch instr.OpId {
	case isa.OpMul:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryMul, rs1, rs2)).BuildFall()
	case isa.OpMulh:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryMulHigh, rs1, rs2)).BuildFall()
	case isa.OpMulhsu:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryMulHighSU, rs1, rs2)).BuildFall()
	case isa.OpMulhu:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryMulHighUU, rs1, rs2)).BuildFall()

	case isa.OpDiv:
		divZero := ir.Const(^uint64(0)) // -1
		return b.WriteReg(a.Rd, ir.Select(isZero, divZero, ir.Bin(ir.BinaryDivSigned, rs1, rs2))).BuildFall()
	case isa.OpDivu:
		divZero := ir.Const(^uint64(0)) // all-ones
		return b.WriteReg(a.Rd, ir.Select(isZero, divZero, ir.Bin(ir.BinaryDivUnsigned, rs1, rs2))).BuildFall()
	case isa.OpRem:
		return b.WriteReg(a.Rd, ir.Select(isZero, rs1, ir.Bin(ir.BinaryRemSigned, rs1, rs2))).BuildFall()
	case isa.OpRemu:
		return b.WriteReg(a.Rd, ir.Select(isZero, rs1, ir.Bin(ir.BinaryRemUnsigned, rs1, rs2))).BuildFall()

	case isa.OpMulw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryMul, rs1, rs2), 32)).BuildFall()
	case isa.OpDivw:
		w32rs1 := ir.SignExtend(rs1, 32)
		w32rs2 := ir.SignExtend(rs2, 32)
		divZero := ir.Const(^uint64(0))
		return b.WriteReg(a.Rd, ir.Select(isZero, divZero, ir.SignExtend(ir.Bin(ir.BinaryDivSigned, w32rs1, w32rs2), 32))).BuildFall()
	case isa.OpDivuw:
		w32rs1 := ir.ZeroExtend(rs1, 32)
		w32rs2 := ir.ZeroExtend(rs2, 32)
		divZero := ir.Const(^uint64(0))
		return b.WriteReg(a.Rd, ir.Select(isZero, divZero, ir.SignExtend(ir.Bin(ir.BinaryDivUnsigned, w32rs1, w32rs2), 32))).BuildFall()
	case isa.OpRemw:
		w32rs1 := ir.SignExtend(rs1, 32)
		w32rs2 := ir.SignExtend(rs2, 32)
		return b.WriteReg(a.Rd, ir.Select(isZero, w32rs1, ir.SignExtend(ir.Bin(ir.BinaryRemSigned, w32rs1, w32rs2), 32))).BuildFall()
	case isa.OpRemuw:
		w32rs1 := ir.ZeroExtend(rs1, 32)
		w32rs2 := ir.ZeroExtend(rs2, 32)
		return b.WriteReg(a.Rd, ir.Select(isZero, ir.SignExtend(w32rs1, 32), ir.SignExtend(ir.Bin(ir.BinaryRemUnsigned, w32rs1, w32rs2), 32))).BuildFall()
	}
	return b.BuildTrap("unhandled M opcode")
}
