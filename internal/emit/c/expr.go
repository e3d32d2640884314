// Package c implements the primary code-generation backend: one C
// function per merged basic block, compiled by the host C compiler
// into the shared library the runtime dlopens (spec §7 "C backend",
// grounded on original_source/crates/rvr-emit/src/c).
package c

import (
	"fmt"

	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/xlen"
)

// cIntType is the C scalar type used for every register-width value.
const cIntType = "uint64_t"

func regExpr(r uint8, hotRegs map[uint8]int) string {
	if r == 0 {
		return "0ULL"
	}
	if slot, ok := hotRegs[r]; ok {
		return fmt.Sprintf("hot%d", slot)
	}
	return fmt.Sprintf("st->x[%d]", r)
}

// exprC renders an Expr as a C expression, reading registers either
// from the explicit hot-register parameters (when promoted) or from
// the MachineState register file.
func exprC(e *ir.Expr, hotRegs map[uint8]int) string {
	if e == nil {
		return "0ULL"
	}
	switch e.Kind {
	case ir.ExprConst:
		return fmt.Sprintf("%#xULL", e.Const)
	case ir.ExprReg:
		return regExpr(e.Reg, hotRegs)
	case ir.ExprPc:
		return "pc"
	case ir.ExprLoad:
		return fmt.Sprintf("rv_load%d(st, %s)", int(e.MemWidth)*8, exprC(e.Operands[0], hotRegs))
	case ir.ExprCsr:
		return fmt.Sprintf("rv_csr_read(st, %#x)", e.CsrAddr)
	case ir.ExprInstret:
		return "st->instret"
	case ir.ExprUnary:
		return fmt.Sprintf("(%s(%s))", unaryOpC(e.Unary), exprC(e.Operands[0], hotRegs))
	case ir.ExprBinary:
		return binaryOpC(e, hotRegs)
	case ir.ExprSext:
		return fmt.Sprintf("rv_sext(%s, %d)", exprC(e.Operands[0], hotRegs), e.FromBits)
	case ir.ExprZext:
		return fmt.Sprintf("rv_zext(%s, %d)", exprC(e.Operands[0], hotRegs), e.FromBits)
	case ir.ExprSelect:
		return fmt.Sprintf("((%s) ? (%s) : (%s))",
			exprC(e.Operands[0], hotRegs), exprC(e.Operands[1], hotRegs), exprC(e.Operands[2], hotRegs))
	default:
		return "0ULL"
	}
}

func unaryOpC(op ir.UnaryOp) string {
	switch op {
	case ir.UnaryNeg:
		return "-"
	case ir.UnaryNot:
		return "~"
	default:
		return ""
	}
}

func binaryOpC(e *ir.Expr, hotRegs map[uint8]int) string {
	a := exprC(e.Operands[0], hotRegs)
	b := exprC(e.Operands[1], hotRegs)
	switch e.Binary {
	case ir.BinaryAdd:
		return fmt.Sprintf("((%s) + (%s))", a, b)
	case ir.BinarySub:
		return fmt.Sprintf("((%s) - (%s))", a, b)
	case ir.BinaryAnd:
		return fmt.Sprintf("((%s) & (%s))", a, b)
	case ir.BinaryOr:
		return fmt.Sprintf("((%s) | (%s))", a, b)
	case ir.BinaryXor:
		return fmt.Sprintf("((%s) ^ (%s))", a, b)
	case ir.BinaryShl:
		return fmt.Sprintf("((%s) << (%s))", a, b)
	case ir.BinaryShrLogical:
		return fmt.Sprintf("((%s) >> (%s))", a, b)
	case ir.BinaryShrArith:
		return fmt.Sprintf("rv_sra(%s, %s)", a, b)
	case ir.BinaryMul:
		return fmt.Sprintf("((%s) * (%s))", a, b)
	case ir.BinaryMulHigh:
		return fmt.Sprintf("rv_mulh(%s, %s)", a, b)
	case ir.BinaryMulHighSU:
		return fmt.Sprintf("rv_mulhsu(%s, %s)", a, b)
	case ir.BinaryMulHighUU:
		return fmt.Sprintf("rv_mulhu(%s, %s)", a, b)
	case ir.BinaryDivSigned:
		return fmt.Sprintf("rv_divs(%s, %s)", a, b)
	case ir.BinaryDivUnsigned:
		return fmt.Sprintf("((%s) / (%s))", a, b)
	case ir.BinaryRemSigned:
		return fmt.Sprintf("rv_rems(%s, %s)", a, b)
	case ir.BinaryRemUnsigned:
		return fmt.Sprintf("((%s) %% (%s))", a, b)
	case ir.BinaryEq:
		return fmt.Sprintf("((%s) == (%s))", a, b)
	case ir.BinaryNe:
		return fmt.Sprintf("((%s) != (%s))", a, b)
	case ir.BinaryLtSigned:
		return fmt.Sprintf("rv_lts(%s, %s)", a, b)
	case ir.BinaryLtUnsigned:
		return fmt.Sprintf("((%s) < (%s))", a, b)
	case ir.BinaryGeSigned:
		return fmt.Sprintf("rv_ges(%s, %s)", a, b)
	case ir.BinaryGeUnsigned:
		return fmt.Sprintf("((%s) >= (%s))", a, b)
	default:
		return "0ULL"
	}
}

// xlenCType returns the register type name the generated header
// typedefs rv_reg_t to, tying the textual backend to the same width
// abstraction the lifter uses.
func xlenCType(w xlen.Width) string {
	if w == xlen.RV32 {
		return "uint32_t"
	}
	return "uint64_t"
}
