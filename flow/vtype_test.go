package flow

import (
	"errors"
	"testing"

	"github.com/x4e/classfile/classfile"
	"github.com/x4e/classfile/hierarchy"
)

func TestMergeRules(t *testing.T) {
	h := hierarchy.Base()
	str := Object("java/lang/String")
	tests := []struct {
		name string
		a, b VerificationType
		want VerificationType
	}{
		{"identity", Integer, Integer, Integer},
		{"object identity", str, str, str},
		{"bottom absorbs left", Bottom, Long, Long},
		{"bottom absorbs right", Float, Bottom, Float},
		{"top wins", Top, Integer, Top},
		{"null widens to object", Null, str, str},
		{"object keeps over null", str, Null, str},
		{"siblings meet at superclass", Object("java/lang/Integer"), Object("java/lang/Long"), Object("java/lang/Number")},
		{"unrelated objects meet at Object", str, Object("java/lang/Thread"), Object("java/lang/Object")},
		{"cross category", Integer, Float, Top},
		{"primitive with object", Long, str, Top},
		{"uninitialized with object", UninitThis, str, Top},
		{"uninitialized sites differ", Uninitialized(1), Uninitialized(2), Top},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.a, tt.b, h)
			if err != nil {
				t.Fatalf("Merge failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Merge(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
			// The lattice join is symmetric.
			swapped, err := Merge(tt.b, tt.a, h)
			if err != nil {
				t.Fatalf("swapped Merge failed: %v", err)
			}
			if swapped != got {
				t.Errorf("Merge not commutative: %s vs %s", got, swapped)
			}
		})
	}
}

func TestMergeWithoutHierarchy(t *testing.T) {
	_, err := Merge(Object("a/A"), Object("b/B"), nil)
	if !errors.Is(err, ErrNoHierarchy) {
		t.Errorf("expected ErrNoHierarchy, got %v", err)
	}
	// Same name needs no oracle.
	if _, err := Merge(Object("a/A"), Object("a/A"), nil); err != nil {
		t.Errorf("identical objects should merge without oracle: %v", err)
	}
}

func TestMergeIntoShapeMismatch(t *testing.T) {
	dst := &Frame{Locals: []VerificationType{Integer}}
	src := &Frame{Locals: []VerificationType{Integer, Integer}}
	if _, err := MergeInto(dst, src, nil); !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("locals mismatch: expected ErrStackFrameMismatch, got %v", err)
	}

	dst = &Frame{Stack: []VerificationType{Integer}}
	src = &Frame{Stack: nil}
	if _, err := MergeInto(dst, src, nil); !errors.Is(err, classfile.ErrStackFrameMismatch) {
		t.Errorf("stack mismatch: expected ErrStackFrameMismatch, got %v", err)
	}
}

func TestMergeIntoReachesFixpoint(t *testing.T) {
	h := hierarchy.Base()
	dst := &Frame{Locals: []VerificationType{Object("java/lang/Integer")}}
	src := &Frame{Locals: []VerificationType{Object("java/lang/Long")}}

	changed, err := MergeInto(dst, src, h)
	if err != nil {
		t.Fatalf("MergeInto failed: %v", err)
	}
	if !changed {
		t.Errorf("first merge reported no change")
	}
	if dst.Locals[0] != Object("java/lang/Number") {
		t.Errorf("expected Number, got %s", dst.Locals[0])
	}

	changed, err = MergeInto(dst, src, h)
	if err != nil {
		t.Fatalf("second MergeInto failed: %v", err)
	}
	if changed {
		t.Errorf("merge past the fixpoint reported a change")
	}
}

func TestFrameClone(t *testing.T) {
	f := &Frame{
		Locals: []VerificationType{Long, Top},
		Stack:  []VerificationType{Object("java/lang/String")},
	}
	c := f.Clone()
	c.Locals[0] = Integer
	c.Stack[0] = Null
	if f.Locals[0] != Long || f.Stack[0] != Object("java/lang/String") {
		t.Errorf("Clone shares storage with original: %s", f)
	}
}

func TestSlotDepth(t *testing.T) {
	f := &Frame{Stack: []VerificationType{Integer, Long, Double, Null}}
	if got := f.SlotDepth(); got != 6 {
		t.Errorf("SlotDepth = %d, want 6", got)
	}
}
