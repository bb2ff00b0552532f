package flow

import (
	"fmt"

	"github.com/x4e/classfile/classfile"
)

// FrameKind is the delta classification of an emitted frame against the one
// before it, mirroring the StackMapTable encodings.
type FrameKind uint8

const (
	FrameSame FrameKind = iota
	FrameSameLocals1Stack
	FrameChop
	FrameAppend
	FrameFull
)

func (k FrameKind) String() string {
	switch k {
	case FrameSame:
		return "same"
	case FrameSameLocals1Stack:
		return "same_locals_1_stack_item"
	case FrameChop:
		return "chop"
	case FrameAppend:
		return "append"
	case FrameFull:
		return "full"
	default:
		return fmt.Sprintf("FrameKind(%d)", uint8(k))
	}
}

// EmittedFrame is one stack-map frame: the full verification state at a
// label the format requires a frame at, plus its delta classification so a
// writer can pick the compact encoding. Locals and Stack are in units: wide
// types occupy one entry, trailing Top locals are trimmed.
type EmittedFrame struct {
	Label  classfile.Label
	Locals []VerificationType
	Stack  []VerificationType
	Kind   FrameKind

	// Delta is the unit count chopped or appended for those kinds.
	Delta int
}

// Analysis is the result of frame synthesis over one method.
type Analysis struct {
	// Frames holds the emitted stack-map frames in instruction order.
	Frames []EmittedFrame

	// BlockEntry holds the fixed-point entry state per block index; nil
	// for blocks no path reaches.
	BlockEntry []*Frame
}

// Synthesize runs forward dataflow over the graph and emits the stack-map
// frame sequence for the method. className is the internal name of the
// declaring class; h may be nil, in which case any merge of two distinct
// object types fails with ErrNoHierarchy.
func Synthesize(g *Graph, className string, method *classfile.Method, h Hierarchy) (*Analysis, error) {
	code := g.Code
	m := &machine{className: className, maxStack: int(code.MaxStack)}

	initial, err := initialFrame(className, method, int(code.MaxLocals))
	if err != nil {
		return nil, err
	}

	in := make([]*Frame, len(g.Blocks))
	in[0] = initial
	queued := make([]bool, len(g.Blocks))
	worklist := []int{0}
	queued[0] = true

	enqueue := func(b int) {
		if !queued[b] {
			queued[b] = true
			worklist = append(worklist, b)
		}
	}
	propagate := func(to int, f *Frame) error {
		if in[to] == nil {
			in[to] = f.Clone()
			enqueue(to)
			return nil
		}
		changed, err := MergeInto(in[to], f, h)
		if err != nil {
			return err
		}
		if changed {
			enqueue(to)
		}
		return nil
	}

	for len(worklist) > 0 {
		bi := worklist[0]
		worklist = worklist[1:]
		queued[bi] = false
		b := g.Blocks[bi]
		f := in[bi].Clone()

		for _, e := range g.Insns(b) {
			// An exception can be raised before any effect of the
			// instruction lands, so handlers merge the pre-state.
			for _, hi := range b.Covered {
				hd := code.Handlers[hi]
				catch := hd.CatchType
				if catch == "" {
					catch = "java/lang/Throwable"
				}
				hframe := &Frame{
					Locals: append([]VerificationType(nil), f.Locals...),
					Stack:  []VerificationType{Object(catch)},
				}
				if err := propagate(g.blockOf[hd.Handler], hframe); err != nil {
					return nil, fmt.Errorf("handler at %s: %w", hd.Handler, err)
				}
			}
			if err := m.step(f, e); err != nil {
				return nil, fmt.Errorf("at %s: %w", e.Label, err)
			}
		}
		for _, edge := range b.Succs {
			if edge.Handler >= 0 {
				continue
			}
			if err := propagate(edge.To, f); err != nil {
				return nil, fmt.Errorf("at %s: %w", g.Blocks[edge.To].Entry, err)
			}
		}
	}

	return emit(g, initial, in)
}

// initialFrame builds the method entry state from the receiver and
// descriptor.
func initialFrame(className string, method *classfile.Method, maxLocals int) (*Frame, error) {
	f := &Frame{Locals: make([]VerificationType, maxLocals)}
	for i := range f.Locals {
		f.Locals[i] = Top
	}
	idx := 0
	put := func(t VerificationType) error {
		width := 1
		if t.Wide() {
			width = 2
		}
		if idx+width > maxLocals {
			return mismatch("parameters need %d slots, max_locals is %d", idx+width, maxLocals)
		}
		f.Locals[idx] = t
		if t.Wide() {
			f.Locals[idx+1] = Top
		}
		idx += width
		return nil
	}
	if !method.Access.Has(classfile.AccStatic) {
		this := Object(className)
		if method.IsConstructor() && className != "java/lang/Object" {
			this = UninitThis
		}
		if err := put(this); err != nil {
			return nil, err
		}
	}
	for _, p := range method.Descriptor.Params {
		if err := put(typeOf(p)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// emit selects the labels the format requires frames at (branch targets and
// handler entries), in instruction order, classified against the previous
// emitted frame.
func emit(g *Graph, initial *Frame, in []*Frame) (*Analysis, error) {
	needed := make(map[classfile.Label]bool)
	var targets []classfile.Label
	for _, e := range g.Code.Entries {
		targets = classfile.BranchTargets(e.Insn, targets[:0])
		for _, t := range targets {
			needed[t] = true
		}
	}
	for _, h := range g.Code.Handlers {
		needed[h.Handler] = true
	}

	a := &Analysis{BlockEntry: in}
	prevLocals := compressLocals(initial.Locals)
	for _, b := range g.Blocks {
		if !needed[b.Entry] || in[b.Index] == nil {
			continue
		}
		f := in[b.Index]
		ef := EmittedFrame{
			Label:  b.Entry,
			Locals: compressLocals(f.Locals),
			Stack:  append([]VerificationType(nil), f.Stack...),
		}
		ef.Kind, ef.Delta = classify(prevLocals, ef.Locals, ef.Stack)
		prevLocals = ef.Locals
		a.Frames = append(a.Frames, ef)
	}
	return a, nil
}

// compressLocals converts slot-indexed locals to frame units: the second
// slot of a wide type disappears and trailing Top units are trimmed.
func compressLocals(slots []VerificationType) []VerificationType {
	var units []VerificationType
	for i := 0; i < len(slots); i++ {
		t := slots[i]
		units = append(units, t)
		if t.Wide() {
			i++
		}
	}
	for len(units) > 0 && units[len(units)-1] == Top {
		units = units[:len(units)-1]
	}
	return units
}

func classify(prev, locals, stack []VerificationType) (FrameKind, int) {
	if len(stack) == 0 && equalTypes(prev, locals) {
		return FrameSame, 0
	}
	if len(stack) == 1 && equalTypes(prev, locals) {
		return FrameSameLocals1Stack, 0
	}
	if len(stack) == 0 {
		if d := len(prev) - len(locals); d >= 1 && d <= 3 && equalTypes(prev[:len(locals)], locals) {
			return FrameChop, d
		}
		if d := len(locals) - len(prev); d >= 1 && d <= 3 && equalTypes(locals[:len(prev)], prev) {
			return FrameAppend, d
		}
	}
	return FrameFull, 0
}

func equalTypes(a, b []VerificationType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
