package lift

import (
	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
)

// isSyntheticCounterCsr reports whether csr is one of the pseudo-CSRs
// the base ISA defines as read-only views of machine-maintained
// counters (spec §4.C): cycle/instret/time. These never live in the
// generic CSR file -- rdcycle/rdinstret must observe the same counter
// the block prologue increments, not a value nothing ever writes.
func isSyntheticCounterCsr(csr uint16) bool {
	switch csr {
	case isa.CsrCycle, isa.CsrInstret, isa.CsrTime:
		return true
	default:
		return false
	}
}

// liftZicsr lowers the six CSR read/modify/write instructions. Each
// reads the old CSR value into rd, then conditionally writes a new
// value back -- conditionally because CSRRS/CSRRC (and their
// immediate forms) must not write when the mask operand is x0/zero
// (spec §4.C "CSR side-effect suppression"). cycle/instret/time read
// the live instruction counter instead of the CSR file and never
// accept a write-back: they are read-only counters, not storage.
func (l *Lifter) liftZicsr(b *ir.Builder, instr *isa.DecodedInstruction) ir.InstrIR {
	a := instr.Args
	synthetic := isSyntheticCounterCsr(a.Csr)

	var old *ir.Expr
	if synthetic {
		old = ir.Instret()
	} else {
		old = ir.Csr(a.Csr)
	}

	var operand *ir.Expr
	switch instr.OpId {
	case isa.OpCsrrwi, isa.OpCsrrsi, isa.OpCsrrci:
		operand = ir.Const(uint64(a.Rs1))
	default:
		operand = b.ReadReg(a.Rs1)
	}

	b.WriteReg(a.Rd, old)

	if synthetic {
		return b.BuildFall()
	}

	switch instr.OpId {
	case isa.OpCsrrw, isa.OpCsrrwi:
		b.WriteCsr(a.Csr, operand)
	case isa.OpCsrrs, isa.OpCsrrsi:
		if a.Rs1 == 0 {
			break
		}
		b.WriteCsr(a.Csr, ir.Bin(ir.BinaryOr, old, operand))
	case isa.OpCsrrc, isa.OpCsrrci:
		newVal := ir.Bin(ir.BinaryAnd, old, ir.Un(ir.UnaryNot, operand))
		if a.Rs1 == 0 {
			break
		}
		b.WriteCsr(a.Csr, newVal)
	}
	return b.BuildFall()
}
