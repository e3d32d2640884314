// Package lift turns a single isa.DecodedInstruction into one
// ir.InstrIR (spec §4.C "Per-opcode lift rules"). Each lift function is
// grounded on the matching case of the teacher's opcode-switch
// interpreter (pkg/cpu/exec.go), translated from "execute against a
// concrete machine" into "build an expression tree describing the
// same effect".
package lift

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

// Lifter lowers decoded instructions to IR for one target width.
// Registry holds optional per-opcode overrides (spec §4.B), most
// commonly routing ECALL to a Linux-style syscall ExternCall instead
// of the bare-metal HTIF default. Embedded selects the RV32E/RV64E
// base variant's 16-register ABI (spec §4.B), which moves the ECALL
// syscall-number register from a7 (x17, out of range on a 16-register
// file) to t0 (x5).
type Lifter struct {
	Width    xlen.Width
	Registry *isa.Registry
	Embedded bool
}

// New constructs a Lifter. A nil registry means "no overrides; use
// every opcode's default lift". embedded selects the RV32E/RV64E
// 16-register ECALL ABI (spec §4.B).
func New(w xlen.Width, reg *isa.Registry, embedded bool) *Lifter {
	if reg == nil {
		reg = isa.NewRegistry()
	}
	return &Lifter{Width: w, Registry: reg, Embedded: embedded}
}

// Lift lowers one decoded instruction into its IR form. Unknown OpIds
// (which should not occur once the decoder registry and this package
// are kept in lockstep) lower to a Trap so the emitter can still
// produce a loadable artifact instead of panicking mid-build.
func (l *Lifter) Lift(instr *isa.DecodedInstruction) ir.InstrIR {
	loc := ir.SourceLoc{Raw: instr.Raw}
	b := ir.NewBuilder(l.Width, instr.Pc, instr.Size, loc)

	switch instr.OpId.Ext {
	case isa.ExtI:
		return l.liftBase(b, instr)
	case isa.ExtM:
		return l.liftM(b, instr)
	case isa.ExtA:
		return l.liftA(b, instr)
	case isa.ExtC:
		return l.liftC(b, instr)
	case isa.ExtZicsr:
		return l.liftZicsr(b, instr)
	case isa.ExtZifencei:
		// FENCE.I is a no-op lift (spec's resolved Open Question): the
		// recompiler does not support guest self-modifying code, so
		// the instruction fence has nothing to do.
		return b.BuildFall()
	default:
		return b.BuildTrap(fmt.Sprintf("unknown extension %d", instr.OpId.Ext))
	}
}

func aluBinary(op ir.BinaryOp) ir.BinaryOp { return op }

// liftBase lowers the RV32I/RV64I base instruction set.
func (l *Lifter) liftBase(b *ir.Builder, instr *isa.DecodedInstruction) ir.InstrIR {
	a := instr.Args
	rs1 := b.ReadReg(a.Rs1)
	rs2 := b.ReadReg(a.Rs2)

	switch instr.OpId {
	case isa.OpLui:
		return b.WriteReg(a.Rd, ir.Const(uint64(int64(a.Imm)))).BuildFall()
	case isa.OpAuipc:
		return b.WriteReg(a.Rd, ir.Const(l.Width.FromU64(b.PcValue()+uint64(int64(a.Imm))))).BuildFall()

	case isa.OpJal:
		target := l.Width.FromU64(uint64(int64(instr.Pc) + a.Imm))
		b.WriteReg(a.Rd, ir.Const(b.NextPc()))
		return b.BuildJump(target)
	case isa.OpJalr:
		addr := ir.Bin(ir.BinaryAnd, ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(int64(a.Imm)))), ir.Const(^uint64(1)))
		b.WriteReg(a.Rd, ir.Const(b.NextPc()))
		return b.BuildJumpDyn(addr, nil)

	case isa.OpBeq:
		return liftBranch(b, instr, ir.BinaryEq)
	case isa.OpBne:
		return liftBranch(b, instr, ir.BinaryNe)
	case isa.OpBlt:
		return liftBranch(b, instr, ir.BinaryLtSigned)
	case isa.OpBge:
		return liftBranch(b, instr, ir.BinaryGeSigned)
	case isa.OpBltu:
		return liftBranch(b, instr, ir.BinaryLtUnsigned)
	case isa.OpBgeu:
		return liftBranch(b, instr, ir.BinaryGeUnsigned)

	case isa.OpLb:
		return liftLoad(b, a, rs1, ir.Width1, true)
	case isa.OpLh:
		return liftLoad(b, a, rs1, ir.Width2, true)
	case isa.OpLw:
		return liftLoad(b, a, rs1, ir.Width4, true)
	case isa.OpLbu:
		return liftLoad(b, a, rs1, ir.Width1, false)
	case isa.OpLhu:
		return liftLoad(b, a, rs1, ir.Width2, false)
	case isa.OpLwu:
		return liftLoad(b, a, rs1, ir.Width4, false)
	case isa.OpLd:
		return liftLoad(b, a, rs1, ir.Width8, false)

	case isa.OpSb:
		return liftStore(b, a, rs1, rs2, ir.Width1)
	case isa.OpSh:
		return liftStore(b, a, rs1, rs2, ir.Width2)
	case isa.OpSw:
		return liftStore(b, a, rs1, rs2, ir.Width4)
	case isa.OpSd:
		return liftStore(b, a, rs1, rs2, ir.Width8)

	case isa.OpAddi:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpSlti:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryLtSigned, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpSltiu:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryLtUnsigned, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpXori:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryXor, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpOri:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryOr, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpAndi:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAnd, rs1, ir.Const(uint64(int64(a.Imm))))).BuildFall()
	case isa.OpSlli:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShl, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()
	case isa.OpSrli:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrLogical, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()
	case isa.OpSrai:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrArith, rs1, ir.Const(uint64(a.Shamt)))).BuildFall()

	case isa.OpAdd:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAdd, rs1, rs2)).BuildFall()
	case isa.OpSub:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinarySub, rs1, rs2)).BuildFall()
	case isa.OpSll:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShl, rs1, maskShift(rs2, l.Width))).BuildFall()
	case isa.OpSlt:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryLtSigned, rs1, rs2)).BuildFall()
	case isa.OpSltu:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryLtUnsigned, rs1, rs2)).BuildFall()
	case isa.OpXor:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryXor, rs1, rs2)).BuildFall()
	case isa.OpSrl:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrLogical, rs1, maskShift(rs2, l.Width))).BuildFall()
	case isa.OpSra:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryShrArith, rs1, maskShift(rs2, l.Width))).BuildFall()
	case isa.OpOr:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryOr, rs1, rs2)).BuildFall()
	case isa.OpAnd:
		return b.WriteReg(a.Rd, ir.Bin(ir.BinaryAnd, rs1, rs2)).BuildFall()

	case isa.OpFence:
		return b.BuildFall()
	case isa.OpEcall:
		return l.liftEcall(b)
	case isa.OpEbreak:
		return b.BuildTrap("ebreak")

	case isa.OpAddiw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(int64(a.Imm)))), 32)).BuildFall()
	case isa.OpSlliw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShl, rs1, ir.Const(uint64(a.Shamt))), 32)).BuildFall()
	case isa.OpSrliw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShrLogical, ir.ZeroExtend(rs1, 32), ir.Const(uint64(a.Shamt))), 32)).BuildFall()
	case isa.OpSraiw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShrArith, ir.SignExtend(rs1, 32), ir.Const(uint64(a.Shamt))), 32)).BuildFall()
	case isa.OpAddw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryAdd, rs1, rs2), 32)).BuildFall()
	case isa.OpSubw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinarySub, rs1, rs2), 32)).BuildFall()
	case isa.OpSllw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShl, rs1, ir.Bin(ir.BinaryAnd, rs2, ir.Const(0x1F))), 32)).BuildFall()
	case isa.OpSrlw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShrLogical, ir.ZeroExtend(rs1, 32), ir.Bin(ir.BinaryAnd, rs2, ir.Const(0x1F))), 32)).BuildFall()
	case isa.OpSraw:
		return b.WriteReg(a.Rd, ir.SignExtend(ir.Bin(ir.BinaryShrArith, ir.SignExtend(rs1, 32), ir.Bin(ir.BinaryAnd, rs2, ir.Const(0x1F))), 32)).BuildFall()
	}

	return b.BuildTrap(fmt.Sprintf("unhandled base opcode %v", instr.OpId))
}

func maskShift(amount *ir.Expr, w xlen.Width) *ir.Expr {
	return ir.Bin(ir.BinaryAnd, amount, ir.Const(uint64(w.ShiftMask())))
}

func liftBranch(b *ir.Builder, instr *isa.DecodedInstruction, op ir.BinaryOp) ir.InstrIR {
	a := instr.Args
	rs1 := b.ReadReg(a.Rs1)
	rs2 := b.ReadReg(a.Rs2)
	target := uint64(int64(instr.Pc) + a.Imm)
	hint := ir.HintNone
	if a.Imm < 0 {
		hint = ir.HintTaken // backward branches are predicted taken (loop convention)
	}
	return b.BuildBranch(ir.Bin(op, rs1, rs2), target, hint)
}

func liftLoad(b *ir.Builder, a isa.Args, rs1 *ir.Expr, w ir.MemWidth, signed bool) ir.InstrIR {
	addr := ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(int64(a.Imm))))
	loaded := ir.Load(addr, w)
	bits := uint8(w) * 8
	if bits < 64 {
		if signed {
			loaded = ir.SignExtend(loaded, bits)
		} else {
			loaded = ir.ZeroExtend(loaded, bits)
		}
	}
	return b.WriteReg(a.Rd, loaded).BuildFall()
}

func liftStore(b *ir.Builder, a isa.Args, rs1, rs2 *ir.Expr, w ir.MemWidth) ir.InstrIR {
	addr := ir.Bin(ir.BinaryAdd, rs1, ir.Const(uint64(int64(a.Imm))))
	return b.WriteMem(addr, rs2, w).BuildFall()
}

// syscallNumReg is the register holding the syscall number for ECALL:
// a7 (x17) on the standard 32-register ABI, t0 (x5) on RV32E/RV64E
// (spec §4.B), since x17 doesn't exist in the embedded variant's
// 16-register file.
func (l *Lifter) syscallNumReg() uint8 {
	if l.Embedded {
		return 5
	}
	return 17
}

// liftEcall lowers the default (bare-metal/HTIF) ECALL semantics: exit
// with the code in a0 (spec §4.C). A registered OverrideExtern routes
// it through an extern call instead (Linux syscall ABI: syscall number
// in a7, or t0 on an embedded build, a0-a5=args, return value back in a0).
func (l *Lifter) liftEcall(b *ir.Builder) ir.InstrIR {
	if o, ok := l.Registry.Lookup(isa.OpEcall); ok && o.Kind == isa.OverrideExtern {
		args := make([]*ir.Expr, 0, 7)
		args = append(args, b.ReadReg(l.syscallNumReg()))
		for _, r := range []uint8{10, 11, 12, 13, 14, 15} {
			args = append(args, b.ReadReg(r))
		}
		b.ExternCallToReg("rv_syscall", 10, args...)
		return b.BuildFall()
	}
	return b.BuildExit(b.ReadReg(10))
}
