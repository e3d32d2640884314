package c

import (
	"fmt"
	"strings"

	"github.com/rvrecompiler/rvr/internal/ir"
)

func stmtC(s ir.Stmt, hotRegs map[uint8]int, indent string) string {
	switch s.Kind {
	case ir.StmtWrite:
		return writeStmtC(s, hotRegs, indent)
	case ir.StmtIf:
		return ifStmtC(s, hotRegs, indent)
	case ir.StmtExternCall:
		return externCallC(s, hotRegs, indent)
	default:
		return ""
	}
}

func writeStmtC(s ir.Stmt, hotRegs map[uint8]int, indent string) string {
	value := exprC(s.Value, hotRegs)
	switch s.Space {
	case ir.SpaceReg:
		reg := uint8(s.Addr.Const)
		if reg == 0 {
			return "" // x0 writes are elided by the builder, kept defensive here
		}
		if slot, ok := hotRegs[reg]; ok {
			return fmt.Sprintf("%shot%d = %s;\n", indent, slot, value)
		}
		return fmt.Sprintf("%sst->x[%d] = %s;\n", indent, reg, value)
	case ir.SpaceMem:
		addr := exprC(s.Addr, hotRegs)
		width := int(s.Width) * 8
		// Every guest store must check the HTIF tohost sentinel before
		// writing through (spec §4.E/§6 scenario S2): a store there is a
		// control-channel signal (exit or a proxied syscall), never
		// guest-visible memory. addr is evaluated once into a block-
		// scoped temporary since it may reference hot register locals.
		return fmt.Sprintf(
			"%s{ uint64_t rv_mem_addr = %s; if (rv_mem_addr == RV_HTIF_TOHOST_ADDR) { rv_handle_tohost_write(st, (uint64_t)(%s)); } else { rv_store%d(st, rv_mem_addr, %s); } }\n",
			indent, addr, value, width, value,
		)
	case ir.SpaceCsr:
		csr := s.Addr.Const
		return fmt.Sprintf("%srv_csr_write(st, %#x, %s);\n", indent, csr, value)
	default:
		return ""
	}
}

func ifStmtC(s ir.Stmt, hotRegs map[uint8]int, indent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sif (%s) {\n", indent, exprC(s.Cond, hotRegs))
	for _, inner := range s.Then {
		b.WriteString(stmtC(inner, hotRegs, indent+"  "))
	}
	if len(s.Else) > 0 {
		fmt.Fprintf(&b, "%s} else {\n", indent)
		for _, inner := range s.Else {
			b.WriteString(stmtC(inner, hotRegs, indent+"  "))
		}
	}
	fmt.Fprintf(&b, "%s}\n", indent)
	return b.String()
}

func externCallC(s ir.Stmt, hotRegs map[uint8]int, indent string) string {
	args := make([]string, 0, len(s.Args)+1)
	args = append(args, "st")
	for _, a := range s.Args {
		args = append(args, exprC(a, hotRegs))
	}
	call := fmt.Sprintf("%s(%s)", s.FnName, strings.Join(args, ", "))
	if !s.HasResult {
		return fmt.Sprintf("%s%s;\n", indent, call)
	}
	if s.ResultReg == 0 {
		return fmt.Sprintf("%s(void)%s;\n", indent, call)
	}
	if slot, ok := hotRegs[s.ResultReg]; ok {
		return fmt.Sprintf("%shot%d = %s;\n", indent, slot, call)
	}
	return fmt.Sprintf("%sst->x[%d] = %s;\n", indent, s.ResultReg, call)
}
