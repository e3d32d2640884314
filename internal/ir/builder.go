package ir

import "github.com/rvrecompiler/rvr/internal/xlen"

// Builder assembles one InstrIR at a time in the teacher's fluent
// style (grounded on the original IRBuilder): a lift function creates
// one per instruction, appends statements, then finishes with exactly
// one terminator-building call.
type Builder struct {
	width      xlen.Width
	pc         uint64
	size       uint8
	statements []Stmt
	loc        SourceLoc
}

// NewBuilder starts a builder for the instruction at pc with the given
// encoded size (2 for compressed, 4 otherwise).
func NewBuilder(w xlen.Width, pc uint64, size uint8, loc SourceLoc) *Builder {
	return &Builder{width: w, pc: pc, size: size, loc: loc}
}

// ReadReg builds a register-read expression, folding x0 to Const(0)
// per invariant I-X0 so downstream passes never need to special-case
// it.
func (b *Builder) ReadReg(r uint8) *Expr {
	if r == 0 {
		return Const(0)
	}
	return Reg(r)
}

// WriteReg appends a register-write statement, silently dropping
// writes to x0 (I-X0: x0 is always 0, writes to it are no-ops).
func (b *Builder) WriteReg(rd uint8, value *Expr) *Builder {
	if rd == 0 {
		return b
	}
	b.statements = append(b.statements, WriteReg(rd, value))
	return b
}

// WriteMem appends a memory-write statement.
func (b *Builder) WriteMem(addr, value *Expr, w MemWidth) *Builder {
	b.statements = append(b.statements, WriteMem(addr, value, w))
	return b
}

// WriteCsr appends a CSR-write statement.
func (b *Builder) WriteCsr(csr uint16, value *Expr) *Builder {
	b.statements = append(b.statements, WriteCsr(csr, value))
	return b
}

// ExternCall appends a bare extern-call statement.
func (b *Builder) ExternCall(fnName string, args ...*Expr) *Builder {
	b.statements = append(b.statements, ExternCall(fnName, args...))
	return b
}

// ExternCallToReg appends an extern-call statement whose result is
// written to dest (eliding the write if dest is x0).
func (b *Builder) ExternCallToReg(fnName string, dest uint8, args ...*Expr) *Builder {
	if dest == 0 {
		b.statements = append(b.statements, ExternCall(fnName, args...))
		return b
	}
	b.statements = append(b.statements, ExternCallToReg(fnName, dest, args...))
	return b
}

// IfThen appends a conditional statement with no else branch.
func (b *Builder) IfThen(cond *Expr, then []Stmt) *Builder {
	b.statements = append(b.statements, IfThen(cond, then))
	return b
}

// IfThenElse appends a two-armed conditional statement.
func (b *Builder) IfThenElse(cond *Expr, then, els []Stmt) *Builder {
	b.statements = append(b.statements, IfThenElse(cond, then, els))
	return b
}

// PcValue returns the address of the instruction under construction,
// width-masked the way an ExprPc read would resolve at runtime.
func (b *Builder) PcValue() uint64 { return b.width.FromU64(b.pc) }

// NextPc returns the fallthrough address.
func (b *Builder) NextPc() uint64 { return b.pc + uint64(b.size) }

func (b *Builder) build(term Terminator) InstrIR {
	return InstrIR{
		Pc:         b.pc,
		Size:       b.size,
		Statements: b.statements,
		Terminator: term,
		SourceLoc:  b.loc,
	}
}

// BuildFall finishes the instruction with a fallthrough terminator.
func (b *Builder) BuildFall() InstrIR { return b.build(Fall()) }

// BuildJump finishes the instruction with an unconditional jump.
func (b *Builder) BuildJump(target uint64) InstrIR { return b.build(Jump(target)) }

// BuildJumpDyn finishes the instruction with an indirect jump.
func (b *Builder) BuildJumpDyn(addr *Expr, resolved []uint64) InstrIR {
	return b.build(JumpDyn(addr, resolved))
}

// BuildBranch finishes the instruction with a conditional branch.
func (b *Builder) BuildBranch(cond *Expr, target uint64, hint BranchHint) InstrIR {
	return b.build(Branch(cond, target, hint))
}

// BuildExit finishes the instruction with an exit.
func (b *Builder) BuildExit(code *Expr) InstrIR { return b.build(Exit(code)) }

// BuildTrap finishes the instruction with a trap.
func (b *Builder) BuildTrap(message string) InstrIR { return b.build(Trap(message)) }
