package flow

import (
	"testing"

	"github.com/x4e/classfile/classfile"
)

// ---------------------------------------------------------------------------
// Test Helpers: Building method bodies
// ---------------------------------------------------------------------------

// mkCode assembles a Code value with one label per instruction, the way the
// decoder lays out a method with no shared offsets.
func mkCode(maxStack, maxLocals uint16, insns []classfile.Insn,
	handlers ...classfile.ExceptionHandler) *classfile.Code {

	entries := make([]classfile.Entry, len(insns))
	for i, insn := range insns {
		entries[i] = classfile.Entry{Label: classfile.Label(i), Insn: insn}
	}
	return &classfile.Code{
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		Entries:   entries,
		Handlers:  handlers,
		EndLabel:  classfile.Label(len(insns)),
	}
}

func mkMethod(t *testing.T, access classfile.AccessFlags, name, desc string,
	code *classfile.Code) *classfile.Method {

	t.Helper()
	d, err := classfile.ParseMethodDescriptor(desc)
	if err != nil {
		t.Fatalf("bad descriptor %q: %v", desc, err)
	}
	return &classfile.Method{Access: access, Name: name, Descriptor: d, Code: code}
}

func hasEdge(b *BasicBlock, to, handler int) bool {
	for _, e := range b.Succs {
		if e.To == to && e.Handler == handler {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Block partitioning
// ---------------------------------------------------------------------------

func TestGraphLinear(t *testing.T) {
	code := mkCode(0, 1, []classfile.Insn{
		&classfile.Nop{},
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	if len(g.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(g.Blocks))
	}
	b := g.Entry()
	if b.Start != 0 || b.End != 3 {
		t.Errorf("block range [%d, %d), want [0, 3)", b.Start, b.End)
	}
	if len(b.Succs) != 0 {
		t.Errorf("terminal block has %d successors", len(b.Succs))
	}
	if !b.Reachable {
		t.Errorf("entry block not reachable")
	}
}

func TestGraphCondBranch(t *testing.T) {
	// 0: iload_0, 1: ifne -> 3, 2: nop, 3: return
	code := mkCode(1, 1, []classfile.Insn{
		&classfile.LocalLoad{Kind: classfile.KindInt},
		&classfile.CondJump{Cond: classfile.CondIntNotEqZero, Target: 3},
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	if len(g.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(g.Blocks))
	}
	join := g.BlockAt(3)
	fall := g.BlockAt(2)
	if join < 0 || fall < 0 {
		t.Fatalf("missing blocks: join %d fall %d", join, fall)
	}
	if !hasEdge(g.Entry(), join, -1) || !hasEdge(g.Entry(), fall, -1) {
		t.Errorf("entry edges wrong: %+v", g.Entry().Succs)
	}
	if !hasEdge(g.Blocks[fall], join, -1) {
		t.Errorf("fall-through edge missing: %+v", g.Blocks[fall].Succs)
	}
	if len(g.Blocks[join].Preds) != 2 {
		t.Errorf("join preds: expected 2, got %v", g.Blocks[join].Preds)
	}
}

func TestGraphUnconditionalJumpSkipsFallthrough(t *testing.T) {
	// 0: goto -> 2, 1: nop, 2: return
	code := mkCode(0, 1, []classfile.Insn{
		&classfile.Jump{Target: 2},
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	skipped := g.BlockAt(1)
	if skipped < 0 {
		t.Fatalf("skipped block missing")
	}
	if g.Blocks[skipped].Reachable {
		t.Errorf("skipped block marked reachable")
	}
	if hasEdge(g.Entry(), skipped, -1) {
		t.Errorf("goto block has a fall-through edge")
	}
}

func TestGraphPruneUnreachable(t *testing.T) {
	code := mkCode(0, 1, []classfile.Insn{
		&classfile.Jump{Target: 2},
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
	})
	g, err := BuildGraph(code, Options{PruneUnreachable: true})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	if len(g.Blocks) != 2 {
		t.Fatalf("expected 2 blocks after pruning, got %d", len(g.Blocks))
	}
	if g.BlockAt(1) != -1 {
		t.Errorf("pruned block still resolvable")
	}
	for i, b := range g.Blocks {
		if b.Index != i {
			t.Errorf("block %d renumbered to %d", i, b.Index)
		}
	}
	ret := g.BlockAt(2)
	if ret < 0 || !hasEdge(g.Entry(), ret, -1) {
		t.Errorf("entry edge not remapped: %+v", g.Entry().Succs)
	}
	if got := g.Blocks[ret].Preds; len(got) != 1 || got[0] != 0 {
		t.Errorf("preds not remapped: %v", got)
	}
}

func TestGraphSwitchEdges(t *testing.T) {
	// 0: iload_0, 1: tableswitch {default -> 2, cases -> 3, 2}, 2: return, 3: return
	code := mkCode(1, 1, []classfile.Insn{
		&classfile.LocalLoad{Kind: classfile.KindInt},
		&classfile.TableSwitch{Default: 2, Low: 0, Targets: []classfile.Label{3, 2}},
		&classfile.Return{Kind: classfile.TypeVoid},
		&classfile.Return{Kind: classfile.TypeVoid},
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	if len(g.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(g.Blocks))
	}
	// Duplicate targets collapse into one edge each.
	if len(g.Entry().Succs) != 2 {
		t.Errorf("expected 2 distinct successors, got %+v", g.Entry().Succs)
	}
}

func TestGraphHandlerCoverage(t *testing.T) {
	// try { 0: nop, 1: nop } 2: return, 3: athrow (handler)
	code := mkCode(1, 1, []classfile.Insn{
		&classfile.Nop{},
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
		&classfile.Throw{},
	}, classfile.ExceptionHandler{
		Start: 0, End: 2, Handler: 3, CatchType: "java/lang/Exception",
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	covered := g.Blocks[g.BlockAt(0)]
	after := g.Blocks[g.BlockAt(2)]
	handler := g.BlockAt(3)
	if handler < 0 {
		t.Fatalf("handler block missing")
	}
	if len(covered.Covered) != 1 || covered.Covered[0] != 0 {
		t.Errorf("try block coverage: %v", covered.Covered)
	}
	if len(after.Covered) != 0 {
		t.Errorf("block after try range covered: %v", after.Covered)
	}
	if !hasEdge(covered, handler, 0) {
		t.Errorf("exception edge missing: %+v", covered.Succs)
	}
	if !g.Blocks[handler].Reachable {
		t.Errorf("handler not reachable through exception edge")
	}
}

// A handler range closing on the end of the code array covers through the
// last instruction.
func TestGraphHandlerToCodeEnd(t *testing.T) {
	code := mkCode(1, 1, []classfile.Insn{
		&classfile.Nop{},
		&classfile.Return{Kind: classfile.TypeVoid},
	}, classfile.ExceptionHandler{
		Start: 0, End: 2, Handler: 1, CatchType: "",
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	for _, b := range g.Blocks {
		if len(b.Covered) != 1 {
			t.Errorf("block at %s not covered: %v", b.Entry, b.Covered)
		}
	}
}

func TestGraphEmptyCode(t *testing.T) {
	if _, err := BuildGraph(mkCode(0, 0, nil), Options{}); err == nil {
		t.Errorf("expected error for empty code")
	}
}

func TestGraphInsns(t *testing.T) {
	code := mkCode(0, 1, []classfile.Insn{
		&classfile.Nop{},
		&classfile.Jump{Target: 0},
	})
	g, err := BuildGraph(code, Options{})
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	insns := g.Insns(g.Entry())
	if len(insns) != 2 {
		t.Errorf("expected 2 instructions in loop block, got %d", len(insns))
	}
}
