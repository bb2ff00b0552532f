package flow

import (
	"errors"
	"testing"

	"github.com/x4e/classfile/classfile"
)

func stepOn(t *testing.T, m *machine, f *Frame, insn classfile.Insn) {
	t.Helper()
	if err := m.step(f, classfile.Entry{Insn: insn}); err != nil {
		t.Fatalf("step %s failed: %v", insn, err)
	}
}

func wantStack(t *testing.T, f *Frame, want ...VerificationType) {
	t.Helper()
	if len(f.Stack) != len(want) {
		t.Fatalf("stack %v, want %v", f.Stack, want)
	}
	for i := range want {
		if f.Stack[i] != want[i] {
			t.Fatalf("stack %v, want %v", f.Stack, want)
		}
	}
}

func TestStepDupVariants(t *testing.T) {
	m := &machine{maxStack: 6}

	// dup_x1: value2 value1 -> value1 value2 value1
	f := &Frame{Stack: []VerificationType{Float, Integer}}
	stepOn(t, m, f, &classfile.Dup{Num: 1, Down: 1})
	wantStack(t, f, Integer, Float, Integer)

	// dup2 over one two-slot value duplicates it whole.
	f = &Frame{Stack: []VerificationType{Long}}
	stepOn(t, m, f, &classfile.Dup{Num: 2})
	wantStack(t, f, Long, Long)

	// dup2_x1: value3 value2 value1 -> value2 value1 value3 value2 value1
	f = &Frame{Stack: []VerificationType{Null, Integer, Float}}
	stepOn(t, m, f, &classfile.Dup{Num: 2, Down: 1})
	wantStack(t, f, Integer, Float, Null, Integer, Float)
}

func TestStepDupCannotSplitWide(t *testing.T) {
	m := &machine{maxStack: 6}
	f := &Frame{Stack: []VerificationType{Integer, Long}}
	err := m.step(f, classfile.Entry{Insn: &classfile.Dup{Num: 1}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}
}

func TestStepPop2TakesOneWide(t *testing.T) {
	m := &machine{maxStack: 4}
	f := &Frame{Stack: []VerificationType{Integer, Double}}
	stepOn(t, m, f, &classfile.Pop{Two: true})
	wantStack(t, f, Integer)
}

func TestStepSwapRejectsWide(t *testing.T) {
	m := &machine{maxStack: 4}
	f := &Frame{Stack: []VerificationType{Long, Integer}}
	err := m.step(f, classfile.Entry{Insn: &classfile.Swap{}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}
}

func TestStepMaxStackEnforced(t *testing.T) {
	m := &machine{maxStack: 1}
	f := &Frame{Stack: []VerificationType{Integer}}
	err := m.step(f, classfile.Entry{Insn: &classfile.LoadConst{Value: &classfile.IntegerConst{Value: 1}}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}
	// A wide constant needs two free slots.
	m = &machine{maxStack: 1}
	f = &Frame{}
	err = m.step(f, classfile.Entry{Insn: &classfile.LoadConst{Value: &classfile.LongConst{Value: 1}}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("wide push: expected ErrStackFrameMismatch, got %v", err)
	}
}

func TestStepLocalLoadChecksKind(t *testing.T) {
	m := &machine{maxStack: 2}
	f := &Frame{Locals: []VerificationType{Float}}
	err := m.step(f, classfile.Entry{Insn: &classfile.LocalLoad{Kind: classfile.KindInt}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}

	// Any reference category satisfies an aload, including null.
	f = &Frame{Locals: []VerificationType{Null}}
	stepOn(t, m, f, &classfile.LocalLoad{Kind: classfile.KindRef})
	wantStack(t, f, Null)
}

// Storing a one-slot value over the second half of a wide local invalidates
// the wide value.
func TestStepStoreInvalidatesWideLocal(t *testing.T) {
	m := &machine{maxStack: 2}
	f := &Frame{
		Locals: []VerificationType{Long, Top},
		Stack:  []VerificationType{Integer},
	}
	stepOn(t, m, f, &classfile.LocalStore{Kind: classfile.KindInt, Index: 1})
	if f.Locals[0] != Top {
		t.Errorf("first half of cut long still %s", f.Locals[0])
	}
	if f.Locals[1] != Integer {
		t.Errorf("stored slot holds %s", f.Locals[1])
	}
}

func TestStepArrayElementTypes(t *testing.T) {
	m := &machine{maxStack: 3}

	// aaload on String[] produces String.
	f := &Frame{Stack: []VerificationType{Object("[Ljava/lang/String;"), Integer}}
	stepOn(t, m, f, &classfile.ArrayLoad{Kind: classfile.KindRef})
	wantStack(t, f, Object("java/lang/String"))

	// iaload produces int regardless of array name.
	f = &Frame{Stack: []VerificationType{Object("[I"), Integer}}
	stepOn(t, m, f, &classfile.ArrayLoad{Kind: classfile.KindInt})
	wantStack(t, f, Integer)
}

func TestStepInvokeSignature(t *testing.T) {
	m := &machine{maxStack: 4}
	f := &Frame{Stack: []VerificationType{
		Object("java/lang/String"),
		Integer,
		Integer,
	}}
	stepOn(t, m, f, &classfile.Invoke{
		Kind:       classfile.InvokeVirtual,
		Class:      "java/lang/String",
		Name:       "substring",
		Descriptor: "(II)Ljava/lang/String;",
	})
	wantStack(t, f, Object("java/lang/String"))

	// Missing an argument is a frame error, not an index panic.
	f = &Frame{Stack: []VerificationType{Integer}}
	err := m.step(f, classfile.Entry{Insn: &classfile.Invoke{
		Kind:       classfile.InvokeStatic,
		Class:      "java/lang/Math",
		Name:       "max",
		Descriptor: "(II)I",
	}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}
}

func TestStepConstructRewritesCopies(t *testing.T) {
	m := &machine{className: "test/Foo", maxStack: 4}
	site := Uninitialized(7)
	f := &Frame{
		Locals: []VerificationType{site},
		Stack:  []VerificationType{site, site},
	}
	stepOn(t, m, f, &classfile.Invoke{
		Kind:       classfile.InvokeSpecial,
		Class:      "test/Bar",
		Name:       "<init>",
		Descriptor: "()V",
	})
	want := Object("test/Bar")
	if f.Locals[0] != want {
		t.Errorf("local copy not rewritten: %s", f.Locals[0])
	}
	wantStack(t, f, want)
}

func TestStepConstructOnInitialized(t *testing.T) {
	m := &machine{className: "test/Foo", maxStack: 2}
	f := &Frame{Stack: []VerificationType{Object("test/Bar")}}
	err := m.step(f, classfile.Entry{Insn: &classfile.Invoke{
		Kind:       classfile.InvokeSpecial,
		Class:      "test/Bar",
		Name:       "<init>",
		Descriptor: "()V",
	}})
	if !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("expected ErrStackFrameMismatch, got %v", err)
	}
}
