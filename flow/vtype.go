package flow

import (
	"errors"
	"fmt"

	"github.com/x4e/classfile/classfile"
)

// ErrNoHierarchy is returned when a frame merge needs the class-hierarchy
// oracle and none was supplied. Guessing a supertype would silently accept
// code the JVM rejects.
var ErrNoHierarchy = errors.New("class hierarchy oracle required")

// Hierarchy answers subtype questions about class names the analysis cannot
// decide on its own. Implementations must return ErrUnknown-style errors or
// widen to java/lang/Object rather than loop on cyclic input.
type Hierarchy interface {
	// IsAssignable reports whether sub is assignable to super. Names are
	// internal ("java/lang/String") or array descriptors ("[I").
	IsAssignable(sub, super string) (bool, error)

	// CommonSupertype returns the nearest class both a and b are
	// assignable to.
	CommonSupertype(a, b string) (string, error)
}

// VKind discriminates verification types.
type VKind uint8

const (
	VBottom VKind = iota
	VInteger
	VFloat
	VLong
	VDouble
	VNull
	VUninitThis
	VUninit
	VObject
	VOneWord
	VTwoWord
	VTop
)

// VerificationType is one element of the verification-type lattice.
// ClassName is set for VObject; NewLabel for VUninit, identifying the
// allocation site.
type VerificationType struct {
	Kind      VKind
	ClassName string
	NewLabel  classfile.Label
}

var (
	Top        = VerificationType{Kind: VTop}
	Bottom     = VerificationType{Kind: VBottom}
	Integer    = VerificationType{Kind: VInteger}
	Float      = VerificationType{Kind: VFloat}
	Long       = VerificationType{Kind: VLong}
	Double     = VerificationType{Kind: VDouble}
	Null       = VerificationType{Kind: VNull}
	UninitThis = VerificationType{Kind: VUninitThis}
)

// Object returns the verification type of a class or array reference.
func Object(name string) VerificationType {
	return VerificationType{Kind: VObject, ClassName: name}
}

// Uninitialized returns the type of a freshly allocated, unconstructed
// instance. The label identifies the allocating instruction.
func Uninitialized(at classfile.Label) VerificationType {
	return VerificationType{Kind: VUninit, NewLabel: at}
}

// Wide reports whether the type occupies two local/stack slots.
func (t VerificationType) Wide() bool {
	return t.Kind == VLong || t.Kind == VDouble
}

// IsReference reports whether the type is a reference category value.
func (t VerificationType) IsReference() bool {
	switch t.Kind {
	case VObject, VNull, VUninitThis, VUninit:
		return true
	default:
		return false
	}
}

func (t VerificationType) String() string {
	switch t.Kind {
	case VBottom:
		return "bottom"
	case VInteger:
		return "int"
	case VFloat:
		return "float"
	case VLong:
		return "long"
	case VDouble:
		return "double"
	case VNull:
		return "null"
	case VUninitThis:
		return "uninitializedThis"
	case VUninit:
		return fmt.Sprintf("uninitialized(%s)", t.NewLabel)
	case VObject:
		return t.ClassName
	case VOneWord:
		return "oneWord"
	case VTwoWord:
		return "twoWord"
	case VTop:
		return "top"
	default:
		return fmt.Sprintf("VKind(%d)", uint8(t.Kind))
	}
}

// Merge computes the least upper bound of two verification types. Same
// concrete types are unchanged, distinct object types go to their common
// supertype, and any cross-category pairing collapses to Top.
func Merge(a, b VerificationType, h Hierarchy) (VerificationType, error) {
	if a == b {
		return a, nil
	}
	if a.Kind == VBottom {
		return b, nil
	}
	if b.Kind == VBottom {
		return a, nil
	}
	if a.Kind == VTop || b.Kind == VTop {
		return Top, nil
	}
	if a.Kind == VNull && b.Kind == VObject {
		return b, nil
	}
	if a.Kind == VObject && b.Kind == VNull {
		return a, nil
	}
	if a.Kind == VObject && b.Kind == VObject {
		if h == nil {
			return Top, fmt.Errorf("%w: merging %s with %s", ErrNoHierarchy, a.ClassName, b.ClassName)
		}
		super, err := h.CommonSupertype(a.ClassName, b.ClassName)
		if err != nil {
			return Top, err
		}
		return Object(super), nil
	}
	return Top, nil
}

// Frame is the analysis state at one point: local variable slots and the
// operand stack. Locals are slot-indexed with wide types occupying two
// slots; the stack holds one element per value regardless of width.
type Frame struct {
	Locals []VerificationType
	Stack  []VerificationType
}

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Locals: make([]VerificationType, len(f.Locals)),
		Stack:  make([]VerificationType, len(f.Stack)),
	}
	copy(c.Locals, f.Locals)
	copy(c.Stack, f.Stack)
	return c
}

// SlotDepth returns the stack depth in slots, wide values counting double.
func (f *Frame) SlotDepth() int {
	n := 0
	for _, t := range f.Stack {
		if t.Wide() {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func (f *Frame) String() string {
	return fmt.Sprintf("{locals: %v, stack: %v}", f.Locals, f.Stack)
}

// MergeInto folds src into dst pointwise and reports whether dst changed.
// Slot and stack length disagreements between merge inputs only arise from
// malformed code and fail with ErrStackFrameMismatch.
func MergeInto(dst, src *Frame, h Hierarchy) (bool, error) {
	if len(dst.Locals) != len(src.Locals) {
		return false, fmt.Errorf("%w: %d locals merged with %d",
			classfile.ErrStackFrameMismatch, len(src.Locals), len(dst.Locals))
	}
	if len(dst.Stack) != len(src.Stack) {
		return false, fmt.Errorf("%w: stack depth %d merged with %d",
			classfile.ErrStackFrameMismatch, len(src.Stack), len(dst.Stack))
	}
	changed := false
	for i := range dst.Locals {
		m, err := Merge(dst.Locals[i], src.Locals[i], h)
		if err != nil {
			return changed, fmt.Errorf("local %d: %w", i, err)
		}
		if m != dst.Locals[i] {
			dst.Locals[i] = m
			changed = true
		}
	}
	for i := range dst.Stack {
		m, err := Merge(dst.Stack[i], src.Stack[i], h)
		if err != nil {
			return changed, fmt.Errorf("stack %d: %w", i, err)
		}
		if m != dst.Stack[i] {
			dst.Stack[i] = m
			changed = true
		}
	}
	return changed, nil
}

// typeOf maps a descriptor type onto its verification type. Small ints
// widen to Integer; arrays keep their full descriptor as the object name.
func typeOf(t classfile.Type) VerificationType {
	switch t.Kind {
	case classfile.TypeBoolean, classfile.TypeByte, classfile.TypeChar,
		classfile.TypeShort, classfile.TypeInt:
		return Integer
	case classfile.TypeFloat:
		return Float
	case classfile.TypeLong:
		return Long
	case classfile.TypeDouble:
		return Double
	case classfile.TypeReference:
		return Object(t.ClassName)
	case classfile.TypeArray:
		return Object(t.Descriptor())
	default:
		return Top
	}
}

// kindType maps an instruction's operand category onto the verification
// type it produces.
func kindType(k classfile.PrimKind) VerificationType {
	switch k {
	case classfile.KindLong:
		return Long
	case classfile.KindFloat:
		return Float
	case classfile.KindDouble:
		return Double
	case classfile.KindRef:
		return Object("java/lang/Object")
	default:
		return Integer
	}
}
