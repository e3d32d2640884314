package emit

import (
	"sort"

	"github.com/rvrecompiler/rvr/internal/cfgbuild"
	"github.com/rvrecompiler/rvr/internal/ir"
)

// regUseCounts tallies how often each register is read or written
// across every block in the CFG, walking the same Expr/Stmt trees a
// textual emitter would. This is the frequency signal the cost model
// below scores against -- grounded on the teacher's Cost function
// (pkg/stoke/cost.go), repurposed from scoring candidate instruction
// sequences to scoring candidate hot-register subsets.
func regUseCounts(cfg *cfgbuild.CFG) map[uint8]int {
	counts := map[uint8]int{}
	var walkExpr func(e *ir.Expr)
	walkExpr = func(e *ir.Expr) {
		if e == nil {
			return
		}
		if e.Kind == ir.ExprReg {
			counts[e.Reg]++
		}
		for _, op := range e.Operands {
			walkExpr(op)
		}
	}
	var walkStmts func(stmts []ir.Stmt)
	walkStmts = func(stmts []ir.Stmt) {
		for _, s := range stmts {
			switch s.Kind {
			case ir.StmtWrite:
				if s.Space == ir.SpaceReg && s.Addr.Kind == ir.ExprConst {
					counts[uint8(s.Addr.Const)]++
				}
				walkExpr(s.Value)
			case ir.StmtIf:
				walkExpr(s.Cond)
				walkStmts(s.Then)
				walkStmts(s.Else)
			case ir.StmtExternCall:
				for _, a := range s.Args {
					walkExpr(a)
				}
				if s.HasResult {
					counts[s.ResultReg]++
				}
			}
		}
	}
	for _, blk := range cfg.Blocks {
		for _, instr := range blk.Instructions {
			walkStmts(instr.Statements)
			walkExpr(instr.Terminator.Cond)
			walkExpr(instr.Terminator.Addr)
			walkExpr(instr.Terminator.Code)
		}
	}
	return counts
}

// SelectHotRegs picks the n most frequently touched registers across
// the whole module to pass as explicit native parameters
// between block functions (spec §7 "hot registers"), instead of
// threading every register through the shared MachineState struct on
// every block boundary. x0 is never selected: it is always the
// constant zero and never needs a slot.
func SelectHotRegs(cfg *cfgbuild.CFG, n int) []uint8 {
	counts := regUseCounts(cfg)
	delete(counts, 0)

	type scored struct {
		reg   uint8
		count int
	}
	var candidates []scored
	for r, c := range counts {
		candidates = append(candidates, scored{reg: r, count: c})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].reg < candidates[j].reg // deterministic tiebreak
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]uint8, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, candidates[i].reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
