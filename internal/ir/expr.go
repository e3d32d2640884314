// Package ir defines the recompiler's intermediate representation
// (spec §5): pure Expression trees, side-effecting Statements, and
// block Terminators. Unlike the Rust original (crates/rvr-ir), which
// parameterizes every type over an Xlen trait bound, this package
// carries the register width as a plain xlen.Width value threaded
// through the builder -- idiomatic Go favors a value field over a
// generic type parameter here, since nothing about the IR's shape
// actually varies with width, only the constants folded into it.
package ir

import "fmt"

// ExprKind discriminates the Expression tagged union.
type ExprKind uint8

const (
	// ExprConst is a compile-time-known constant.
	ExprConst ExprKind = iota
	// ExprReg reads a register by index (x0 always folds to ExprConst 0
	// at build time, per spec §5 invariant I-X0).
	ExprReg
	// ExprPc reads the address of the instruction currently being lifted.
	ExprPc
	// ExprLoad reads Width bytes from memory at Addr.
	ExprLoad
	// ExprCsr reads a CSR by address.
	ExprCsr
	// ExprInstret reads the live retired-instruction counter out of
	// MachineState directly (spec §4.C: cycle/instret/time CSR reads
	// must observe the counter the block prologue increments, not the
	// generic CSR file, which is never kept in sync with it).
	ExprInstret
	// ExprUnary applies a unary operator to Operands[0].
	ExprUnary
	// ExprBinary applies a binary operator to Operands[0], Operands[1].
	ExprBinary
	// ExprSext sign-extends Operands[0] from FromBits to the register width.
	ExprSext
	// ExprZext zero-extends Operands[0] from FromBits to the register width.
	ExprZext
	// ExprSelect is a ternary: Operands[0] ? Operands[1] : Operands[2].
	ExprSelect
)

// UnaryOp enumerates Expression unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

// BinaryOp enumerates Expression binary operators.
type BinaryOp uint8

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryShl
	BinaryShrLogical
	BinaryShrArith
	BinaryMul
	BinaryMulHigh // high bits of a signed*signed multiply
	BinaryMulHighSU
	BinaryMulHighUU
	BinaryDivSigned
	BinaryDivUnsigned
	BinaryRemSigned
	BinaryRemUnsigned
	BinaryEq
	BinaryNe
	BinaryLtSigned
	BinaryLtUnsigned
	BinaryGeSigned
	BinaryGeUnsigned
)

// MemWidth is the access width of a load/store, in bytes.
type MemWidth uint8

const (
	Width1 MemWidth = 1
	Width2 MemWidth = 2
	Width4 MemWidth = 4
	Width8 MemWidth = 8
)

// Expr is a node in a pure (side-effect-free) expression tree (spec
// §5 "Expression"). Exactly the fields relevant to Kind are
// meaningful.
type Expr struct {
	Kind     ExprKind
	Const    uint64
	Reg      uint8
	CsrAddr  uint16
	MemWidth MemWidth
	Unary    UnaryOp
	Binary   BinaryOp
	FromBits uint8
	Operands []*Expr
}

// Const builds a constant expression.
func Const(v uint64) *Expr { return &Expr{Kind: ExprConst, Const: v} }

// Reg builds a register-read expression. Callers should prefer
// Builder.ReadReg, which folds x0 to a Const(0) per I-X0.
func Reg(r uint8) *Expr { return &Expr{Kind: ExprReg, Reg: r} }

// Pc builds a PC-read expression (address of the instruction being lifted).
func Pc() *Expr { return &Expr{Kind: ExprPc} }

// Load builds a memory-read expression.
func Load(addr *Expr, w MemWidth) *Expr {
	return &Expr{Kind: ExprLoad, MemWidth: w, Operands: []*Expr{addr}}
}

// Csr builds a CSR-read expression.
func Csr(addr uint16) *Expr { return &Expr{Kind: ExprCsr, CsrAddr: addr} }

// Instret builds an expression reading the live retired-instruction
// counter, for cycle/instret/time CSR reads (see ExprInstret).
func Instret() *Expr { return &Expr{Kind: ExprInstret} }

// Un builds a unary expression.
func Un(op UnaryOp, x *Expr) *Expr { return &Expr{Kind: ExprUnary, Unary: op, Operands: []*Expr{x}} }

// Bin builds a binary expression.
func Bin(op BinaryOp, a, b *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Binary: op, Operands: []*Expr{a, b}}
}

// SignExtend builds a sign-extension expression.
func SignExtend(x *Expr, fromBits uint8) *Expr {
	return &Expr{Kind: ExprSext, FromBits: fromBits, Operands: []*Expr{x}}
}

// ZeroExtend builds a zero-extension expression.
func ZeroExtend(x *Expr, fromBits uint8) *Expr {
	return &Expr{Kind: ExprZext, FromBits: fromBits, Operands: []*Expr{x}}
}

// Select builds a ternary-select expression.
func Select(cond, ifTrue, ifFalse *Expr) *Expr {
	return &Expr{Kind: ExprSelect, Operands: []*Expr{cond, ifTrue, ifFalse}}
}

func (e *Expr) String() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ExprConst:
		return fmt.Sprintf("%#x", e.Const)
	case ExprReg:
		return fmt.Sprintf("x%d", e.Reg)
	case ExprPc:
		return "pc"
	case ExprLoad:
		return fmt.Sprintf("load%d(%s)", e.MemWidth, e.Operands[0])
	case ExprCsr:
		return fmt.Sprintf("csr(%#x)", e.CsrAddr)
	case ExprInstret:
		return "instret"
	case ExprUnary:
		return fmt.Sprintf("(%d %s)", e.Unary, e.Operands[0])
	case ExprBinary:
		return fmt.Sprintf("(%s %d %s)", e.Operands[0], e.Binary, e.Operands[1])
	case ExprSext:
		return fmt.Sprintf("sext%d(%s)", e.FromBits, e.Operands[0])
	case ExprZext:
		return fmt.Sprintf("zext%d(%s)", e.FromBits, e.Operands[0])
	case ExprSelect:
		return fmt.Sprintf("(%s ? %s : %s)", e.Operands[0], e.Operands[1], e.Operands[2])
	default:
		return "?"
	}
}
