package lift

import (
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
)

// liftA lowers the A (atomics) extension. The recompiler targets
// single-threaded guest execution (spec §4.C "atomics"), so LR/SC pairs
// always succeed and every AMO becomes a plain read-modify-write: load
// the old value into rd, compute the new value, store it back.
func (l *Lifter) liftA(b *ir.Builder, instr *isa.DecodedInstruction) ir.InstrIR {
	a := instr.Args
	rs1 := b.ReadReg(a.Rs1)
	rs2 := b.ReadReg(a.Rs2)
	w := ir.Width4
	bits := uint8(32)
	if instr.OpId.Idx >= 11 {
		w = ir.Width8
		bits = 64
	}

	switch instr.OpId {
	case isa.OpLrW, isa.OpLrD:
		loaded := ir.Load(rs1, w)
		if bits < 64 {
			loaded = ir.SignExtend(loaded, bits)
		}
		return b.WriteReg(a.Rd, loaded).BuildFall()
	case isa.OpScW, isa.OpScD:
		// SC always succeeds under single-threaded semantics: store
		// rs2 at (rs1), report success (0) in rd.
		b.WriteMem(rs1, rs2, w)
		return b.WriteReg(a.Rd, ir.Const(0)).BuildFall()
	}

	old := ir.Load(rs1, w)
	if bits < 64 {
		old = ir.SignExtend(old, bits)
	}
	var newVal *ir.Expr
	switch instr.OpId {
	case isa.OpAmoswapW, isa.OpAmoswapD:
		newVal = rs2
	case isa.OpAmoaddW, isa.OpAmoaddD:
		newVal = ir.Bin(ir.BinaryAdd, old, rs2)
	case isa.OpAmoxorW, isa.OpAmoxorD:
		newVal = ir.Bin(ir.BinaryXor, old, rs2)
	case isa.OpAmoandW, isa.OpAmoandD:
		newVal = ir.Bin(ir.BinaryAnd, old, rs2)
	case isa.OpAmoorW, isa.OpAmoorD:
		newVal = ir.Bin(ir.BinaryOr, old, rs2)
	case isa.OpAmominW, isa.OpAmominD:
		newVal = ir.Select(ir.Bin(ir.BinaryLtSigned, old, rs2), old, rs2)
	case isa.OpAmomaxW, isa.OpAmomaxD:
		newVal = ir.Select(ir.Bin(ir.BinaryLtSigned, old, rs2), rs2, old)
	case isa.OpAmominuW, isa.OpAmominuD:
		newVal = ir.Select(ir.Bin(ir.BinaryLtUnsigned, old, rs2), old, rs2)
	case isa.OpAmomaxuW, isa.OpAmomaxuD:
		newVal = ir.Select(ir.Bin(ir.BinaryLtUnsigned, old, rs2), rs2, old)
	default:
		return b.BuildTrap("unhandled A opcode")
	}
	b.WriteMem(rs1, newVal, w)
	return b.WriteReg(a.Rd, old).BuildFall()
}
