// Package flow builds control-flow graphs over decoded method bodies and
// synthesizes stack-map frames from them.
//
// This package contains:
//   - Basic-block partitioning with fall-through, jump and exception edges
//   - The verification-type lattice and its merge rules
//   - Per-instruction stack/local transfer functions
//   - Worklist fixed-point frame synthesis and frame delta classification
package flow

import (
	"fmt"

	"github.com/x4e/classfile/classfile"
)

// Edge is one successor edge. Handler is -1 for normal control flow,
// otherwise the index of the exception handler record that induces the edge.
type Edge struct {
	To      int
	Handler int
}

// BasicBlock is a maximal straight-line run of instructions. Start and End
// index the code's entry sequence, half-open. Blocks refer to instructions
// by range and own nothing.
type BasicBlock struct {
	Index int
	Start int
	End   int
	Entry classfile.Label

	Succs []Edge
	Preds []int

	// Covered lists the exception handlers whose try range spans this
	// block. Blocks are split at range boundaries, so coverage is
	// all-or-nothing per block.
	Covered []int

	Reachable bool
}

// Graph is the control-flow graph of one method body.
type Graph struct {
	Code   *classfile.Code
	Blocks []*BasicBlock

	blockOf map[classfile.Label]int
}

// Options configures graph construction.
type Options struct {
	// PruneUnreachable drops blocks no path from the entry reaches.
	// The default keeps them, flagged, so malformed files survive a
	// round trip.
	PruneUnreachable bool
}

// BlockAt returns the index of the block whose entry is the given label, or
// -1.
func (g *Graph) BlockAt(l classfile.Label) int {
	if b, ok := g.blockOf[l]; ok {
		return b
	}
	return -1
}

// Entry returns the entry block.
func (g *Graph) Entry() *BasicBlock {
	return g.Blocks[0]
}

// Insns returns the instruction entries of a block.
func (g *Graph) Insns(b *BasicBlock) []classfile.Entry {
	return g.Code.Entries[b.Start:b.End]
}

// BuildGraph partitions a decoded method body into basic blocks and computes
// the successor relation. A block boundary falls at every branch or handler
// target, after every control transfer, and at every handler range bound.
func BuildGraph(code *classfile.Code, opts Options) (*Graph, error) {
	if len(code.Entries) == 0 {
		return nil, fmt.Errorf("%w: empty code", classfile.ErrTruncatedInput)
	}
	pos := make(map[classfile.Label]int, len(code.Entries))
	for i, e := range code.Entries {
		pos[e.Label] = i
	}

	entryIndexOf := func(l classfile.Label, what string) (int, error) {
		i, ok := pos[l]
		if !ok {
			return 0, fmt.Errorf("%w: %s %s is not an instruction", classfile.ErrInvalidJumpTarget, what, l)
		}
		return i, nil
	}

	leader := make([]bool, len(code.Entries))
	leader[0] = true
	var targets []classfile.Label
	for i, e := range code.Entries {
		targets = classfile.BranchTargets(e.Insn, targets[:0])
		for _, t := range targets {
			j, err := entryIndexOf(t, "branch target")
			if err != nil {
				return nil, err
			}
			leader[j] = true
		}
		if len(targets) > 0 || classfile.IsTerminator(e.Insn) {
			if i+1 < len(code.Entries) {
				leader[i+1] = true
			}
		}
	}
	for _, h := range code.Handlers {
		for _, l := range []classfile.Label{h.Start, h.Handler} {
			j, err := entryIndexOf(l, "handler bound")
			if err != nil {
				return nil, err
			}
			leader[j] = true
		}
		if h.End != code.EndLabel {
			j, err := entryIndexOf(h.End, "handler bound")
			if err != nil {
				return nil, err
			}
			leader[j] = true
		}
	}

	g := &Graph{Code: code, blockOf: make(map[classfile.Label]int)}
	for i := range code.Entries {
		if leader[i] {
			b := &BasicBlock{Index: len(g.Blocks), Start: i, Entry: code.Entries[i].Label}
			if len(g.Blocks) > 0 {
				g.Blocks[len(g.Blocks)-1].End = i
			}
			g.Blocks = append(g.Blocks, b)
			g.blockOf[b.Entry] = b.Index
		}
	}
	g.Blocks[len(g.Blocks)-1].End = len(code.Entries)

	// blockAtEntry maps an entry index to the block that starts there.
	blockAtEntry := func(i int) int {
		return g.blockOf[code.Entries[i].Label]
	}

	addEdge := func(from, to, handler int) {
		b := g.Blocks[from]
		for _, e := range b.Succs {
			if e.To == to && e.Handler == handler {
				return
			}
		}
		b.Succs = append(b.Succs, Edge{To: to, Handler: handler})
		g.Blocks[to].Preds = append(g.Blocks[to].Preds, from)
	}

	for _, b := range g.Blocks {
		last := code.Entries[b.End-1].Insn
		targets = classfile.BranchTargets(last, targets[:0])
		for _, t := range targets {
			addEdge(b.Index, g.blockOf[t], -1)
		}
		if !classfile.IsTerminator(last) && b.End < len(code.Entries) {
			addEdge(b.Index, blockAtEntry(b.End), -1)
		}
	}
	for hi, h := range code.Handlers {
		start := pos[h.Start]
		end := len(code.Entries)
		if h.End != code.EndLabel {
			end = pos[h.End]
		}
		target := g.blockOf[h.Handler]
		for _, b := range g.Blocks {
			if b.Start >= start && b.Start < end {
				b.Covered = append(b.Covered, hi)
				addEdge(b.Index, target, hi)
			}
		}
	}

	markReachable(g)
	if opts.PruneUnreachable {
		prune(g)
	}
	return g, nil
}

// markReachable flags every block a path from the entry reaches, following
// both normal and exception edges.
func markReachable(g *Graph) {
	stack := []int{0}
	g.Blocks[0].Reachable = true
	for len(stack) > 0 {
		b := g.Blocks[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		for _, e := range b.Succs {
			if s := g.Blocks[e.To]; !s.Reachable {
				s.Reachable = true
				stack = append(stack, e.To)
			}
		}
	}
}

// prune removes unreachable blocks and renumbers the survivors.
func prune(g *Graph) {
	remap := make([]int, len(g.Blocks))
	var kept []*BasicBlock
	for _, b := range g.Blocks {
		if b.Reachable {
			remap[b.Index] = len(kept)
			kept = append(kept, b)
		} else {
			remap[b.Index] = -1
			delete(g.blockOf, b.Entry)
		}
	}
	for _, b := range kept {
		b.Index = remap[b.Index]
		g.blockOf[b.Entry] = b.Index
		succs := b.Succs[:0]
		for _, e := range b.Succs {
			if to := remap[e.To]; to >= 0 {
				succs = append(succs, Edge{To: to, Handler: e.Handler})
			}
		}
		b.Succs = succs
		preds := b.Preds[:0]
		for _, p := range b.Preds {
			if np := remap[p]; np >= 0 {
				preds = append(preds, np)
			}
		}
		b.Preds = preds
	}
	g.Blocks = kept
}
