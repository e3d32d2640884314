// Package cfgbuild discovers basic blocks and control-flow edges from
// a decoded instruction stream (spec §6 "CFG construction"). It works
// in three passes: (1) a worklist decodes every reachable instruction
// exactly once, memoized by address; (2) block leaders are identified
// from the resulting instruction-level edge set; (3) an absorption
// pass merges straight-line single-predecessor/single-successor chains
// of leader blocks into one emitted function, recording the
// address remapping dispatch tables need (spec §6 "absorption").
package cfgbuild

import (
	"fmt"
	"sort"

	"github.com/rvrecompiler/rvr/internal/ir"
	"github.com/rvrecompiler/rvr/internal/isa"
	"github.com/rvrecompiler/rvr/internal/lift"
)

// Segment is one loadable, executable range of guest bytes (spec §3
// "ELF import") the builder may decode from.
type Segment struct {
	VAddr uint64
	Data  []byte
}

// CFG is the discovered, absorbed control-flow graph.
type CFG struct {
	// Blocks maps a merged block's start address to its instructions.
	Blocks map[uint64]*ir.BlockIR
	// Successors maps a merged block's start address to the start
	// addresses of its successor blocks (already remapped through
	// absorption).
	Successors map[uint64][]uint64
	// AbsorbedToMerged maps every address that used to be a distinct
	// block's start, but was folded into a predecessor during
	// absorption, to the start address of the block it now lives in.
	// Dynamic-jump dispatch tables must resolve through this map so a
	// guest indirect jump into a former (now-absorbed) leader still
	// lands in the right emitted function (spec §6 invariant).
	AbsorbedToMerged map[uint64]uint64
}

// Resolve maps a raw guest address to the start address of the merged
// block that now contains it, following AbsorbedToMerged.
func (c *CFG) Resolve(addr uint64) (uint64, bool) {
	if _, ok := c.Blocks[addr]; ok {
		return addr, true
	}
	if merged, ok := c.AbsorbedToMerged[addr]; ok {
		return merged, true
	}
	return 0, false
}

type edgeKind uint8

const (
	edgeFall edgeKind = iota
	edgeOther
)

type edge struct {
	to   uint64
	kind edgeKind
}

// Builder constructs a CFG from one or more code segments.
type Builder struct {
	decoder *isa.CompositeDecoder
	lifter  *lift.Lifter
	segs    []Segment
}

// NewBuilder constructs a CFG builder over the given segments.
func NewBuilder(decoder *isa.CompositeDecoder, lifter *lift.Lifter, segs []Segment) *Builder {
	return &Builder{decoder: decoder, lifter: lifter, segs: segs}
}

func (b *Builder) bytesAt(addr uint64) []byte {
	for _, s := range b.segs {
		if addr >= s.VAddr && addr < s.VAddr+uint64(len(s.Data)) {
			return s.Data[addr-s.VAddr:]
		}
	}
	return nil
}

func (b *Builder) inRange(addr uint64) bool {
	for _, s := range b.segs {
		if addr >= s.VAddr && addr < s.VAddr+uint64(len(s.Data)) {
			return true
		}
	}
	return false
}

func edgesOf(instr ir.InstrIR) []edge {
	t := instr.Terminator
	switch t.Kind {
	case ir.TermFall:
		return []edge{{to: instr.Pc + uint64(instr.Size), kind: edgeFall}}
	case ir.TermJump:
		return []edge{{to: t.Target, kind: edgeOther}}
	case ir.TermBranch:
		return []edge{
			{to: t.Target, kind: edgeOther},
			{to: instr.Pc + uint64(instr.Size), kind: edgeFall},
		}
	case ir.TermJumpDyn:
		out := make([]edge, 0, len(t.Resolved))
		for _, r := range t.Resolved {
			out = append(out, edge{to: r, kind: edgeOther})
		}
		return out
	default: // Exit, Trap
		return nil
	}
}

// Build runs the three-pass algorithm starting from entry.
func (b *Builder) Build(entry uint64) (*CFG, error) {
	instrAt := map[uint64]ir.InstrIR{}
	worklist := []uint64{entry}
	seen := map[uint64]bool{}

	for len(worklist) > 0 {
		pc := worklist[0]
		worklist = worklist[1:]
		if seen[pc] {
			continue
		}
		seen[pc] = true

		if !b.inRange(pc) {
			return nil, fmt.Errorf("cfgbuild: address %#x is outside every loaded segment", pc)
		}
		raw := b.bytesAt(pc)
		decoded, ok := b.decoder.Decode(raw, pc)
		var instr ir.InstrIR
		if !ok {
			instr = ir.InstrIR{Pc: pc, Size: 2, Terminator: ir.Trap(fmt.Sprintf("illegal encoding at %#x", pc))}
		} else {
			instr = b.lifter.Lift(decoded)
		}
		instrAt[pc] = instr
		for _, e := range edgesOf(instr) {
			if !seen[e.to] {
				worklist = append(worklist, e.to)
			}
		}
	}

	// Pass 2: leader identification from the instruction-level edge set.
	inDegree := map[uint64]int{}
	nonFallIn := map[uint64]bool{}
	for pc, instr := range instrAt {
		_ = pc
		for _, e := range edgesOf(instr) {
			inDegree[e.to]++
			if e.kind != edgeFall || instr.Terminator.Kind != ir.TermFall {
				nonFallIn[e.to] = true
			}
		}
	}
	leaders := map[uint64]bool{entry: true}
	for pc := range instrAt {
		if nonFallIn[pc] || inDegree[pc] > 1 || inDegree[pc] == 0 && pc != entry {
			leaders[pc] = true
		}
	}

	// Pass 3: assemble one BlockIR per leader by following fallthrough
	// chains until the next leader or a non-fall terminator.
	blocks := map[uint64]*ir.BlockIR{}
	successors := map[uint64][]uint64{}
	for leader := range leaders {
		if _, ok := instrAt[leader]; !ok {
			continue // leader discovered only as an unresolved jump target
		}
		blk := ir.NewBlockIR(leader)
		pc := leader
		for {
			instr, ok := instrAt[pc]
			if !ok {
				break
			}
			blk.Push(instr)
			if instr.Terminator.Kind == ir.TermFall {
				next := instr.Pc + uint64(instr.Size)
				if leaders[next] {
					successors[leader] = []uint64{next}
					break
				}
				pc = next
				continue
			}
			targets := map[uint64]bool{}
			var ordered []uint64
			for _, e := range edgesOf(instr) {
				if !targets[e.to] {
					targets[e.to] = true
					ordered = append(ordered, e.to)
				}
			}
			successors[leader] = ordered
			break
		}
		blocks[leader] = blk
	}

	cfg := &CFG{Blocks: blocks, Successors: successors, AbsorbedToMerged: map[uint64]uint64{}}
	cfg.absorb(entry)
	return cfg, nil
}

// absorb repeatedly merges a block B into A when B is A's unique
// successor and A is B's only predecessor, until no such pair remains
// (spec §6 "absorption"). entry is never absorbed into a predecessor
// (it must stay independently callable), but it may absorb its own
// successor.
func (c *CFG) absorb(entry uint64) {
	predCount := func() map[uint64]int {
		pc := map[uint64]int{}
		for _, succs := range c.Successors {
			for _, s := range succs {
				pc[s]++
			}
		}
		return pc
	}

	for {
		preds := predCount()
		merged := false
		for a, succs := range c.Successors {
			if len(succs) != 1 {
				continue
			}
			bAddr := succs[0]
			if bAddr == a || bAddr == entry {
				continue // self-loop or entry, never absorb
			}
			if preds[bAddr] != 1 {
				continue
			}
			bBlock, ok := c.Blocks[bAddr]
			if !ok {
				continue
			}
			aBlock := c.Blocks[a]
			aBlock.Instructions = append(aBlock.Instructions, bBlock.Instructions...)
			c.Successors[a] = c.Successors[bAddr]
			delete(c.Successors, bAddr)
			delete(c.Blocks, bAddr)
			c.AbsorbedToMerged[bAddr] = a
			for from, to := range c.AbsorbedToMerged {
				if to == bAddr {
					c.AbsorbedToMerged[from] = a
				}
			}
			merged = true
			break
		}
		if !merged {
			return
		}
	}
}

// SortedBlockStarts returns every merged block's start address in
// ascending order, for deterministic emission.
func (c *CFG) SortedBlockStarts() []uint64 {
	out := make([]uint64, 0, len(c.Blocks))
	for addr := range c.Blocks {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
