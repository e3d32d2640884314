package lift

import (
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
)

// liftC lowers the compressed (C) extension by expanding each form to
// the IR its equivalent base instruction would produce -- the
// compressed encoding only changes how the operands were packed, never
// the runtime semantics (spec §4.C "C extension expands, it does not
// redefine").
func (l *Lifter) liftC(b *ir.Builder, instr *isa.DecodedInstruction) ir.InstrIR {
	a := instr.Args
	rs1 := b.ReadReg(a.Rs1)
	rs2 := b.ReadReg(a.Rs2)

	switch instr.OpId {
	case isa.OpCAddi4spn:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(a.Imm)))).BuildFall()
	case isa.OpCLw:
		return liftLoad(b, a, rs1, ir.Width4, true)
	case isa.OpCLd:
		return liftLoad(b, a, rs1, ir.Width8, false)
	case isa.OpCSw:
		return liftStore(b, a, rs1, rs2, ir.Width4)
	case isa.OpCSd:
		return liftStore(b, a, rs1, rs2, ir.Width8)

	case isa.OpCNop:
		return b.BuildFall()
	case isa.OpCAddi, isa.OpCAddi16sp:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(a.Imm)))).BuildFall()
	case isa.OpCJal:
		target := uint64(int64(instr.Pc) + a.Imm)
		b.WriteReg(1, ir.Const(b.NextPc()))
		return b.BuildJump(l.Width.FromU64(target))
	case isa.OpCAddiw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(a.Imm))), 32)).BuildFall()
	case isa.OpCLi:
		return b.WriteReg(a.Rd, ir.Const(uint64(a.Imm))).BuildFall()
	case isa.OpCLui:
		return b.WriteReg(a.Rd, ir.Const(uint64(a.Imm))).BuildFall()

	case isa.OpCSrli:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrLogical, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()
	case isa.OpCSrai:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrArith, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()
	case isa.OpCAndi:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAnd, rs1, ir.Const(uint64(a.Imm)))).BuildFall()
	case isa.OpCSub:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinarySub, rs1, rs2)).BuildFall()
	case isa.OpCXor:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryXor, rs1, rs2)).BuildFall()
	case isa.OpCOr:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryOr, rs1, rs2)).BuildFall()
	case isa.OpCAnd:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAnd, rs1, rs2)).BuildFall()
	case isa.OpCSubw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinarySub, rs1, rs2), 32)).BuildFall()
	case isa.OpCAddw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryAdd, rs1, rs2), 32)).BuildFall()

	case isa.OpCJ:
		target := uint64(int64(instr.Pc) + a.Imm)
		return b.BuildJump(l.Width.FromU64(target))
	case isa.OpCBeqz:
		target := uint64(int64(instr.Pc) + a.Imm)
		return b.BuildBranch(ir.Bin(ir.BinaryEq, rs1, ir.Const(0)), target, ir.HintNone)
	case isa.OpCBnez:
		target := uint64(int64(instr.Pc) + a.Imm)
		return b.BuildBranch(ir.Bin(ir.BinaryNe, rs1, ir.Const(0)), target, ir.HintNone)

	case isa.OpCSlli:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShl, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()
	case isa.OpCLwsp:
		return liftLoad(b, a, rs1, ir.Width4, true)
	case isa.OpCLdsp:
		return liftLoad(b, a, rs1, ir.Width8, false)
	case isa.OpCJr:
		return b.BuildJumpDyn(rs1, nil)
	case isa.OpCMv:
		return b.WriteReg(a.Rd, rs2).BuildFall()
	case isa.OpCEbreak:
		return b.BuildTrap("ebreak")
	case isa.OpCJalr:
		addr := rs1
		b.WriteReg(1, ir.Const(b.NextPc()))
		return b.BuildJumpDyn(addr, nil)
	case isa.OpCAdd:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAdd, rs1, rs2)).BuildFall()
	case isa.OpCSwsp:
		return liftStore(b, a, b.ReadReg(a.Rs1), rs2, ir.Width4)
	case isa.OpCSdsp:
		return liftStore(b, a, b.ReadReg(a.Rs1), rs2, ir.Width8)
	}
	return b.BuildTrap("unhandled C opcode")
}
