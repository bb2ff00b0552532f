package flow

import (
	"fmt"

	"github.com/x4e/classfile/classfile"
)

// machine applies instruction effects to analysis frames. It checks operand
// categories strictly: a mismatch means the bytecode could never pass
// verification, so analysis stops with ErrStackFrameMismatch rather than
// guessing.
type machine struct {
	className string
	maxStack  int
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{classfile.ErrStackFrameMismatch}, args...)...)
}

func (m *machine) push(f *Frame, t VerificationType) error {
	f.Stack = append(f.Stack, t)
	if f.SlotDepth() > m.maxStack {
		return mismatch("operand stack exceeds max_stack %d", m.maxStack)
	}
	return nil
}

func (m *machine) pop(f *Frame) (VerificationType, error) {
	if len(f.Stack) == 0 {
		return Top, mismatch("pop from empty operand stack")
	}
	t := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return t, nil
}

// popKind pops one value and checks it against an instruction's operand
// category.
func (m *machine) popKind(f *Frame, k classfile.PrimKind) (VerificationType, error) {
	t, err := m.pop(f)
	if err != nil {
		return t, err
	}
	if k == classfile.KindRef {
		if !t.IsReference() {
			return t, mismatch("expected reference, found %s", t)
		}
		return t, nil
	}
	if want := kindType(k); t != want {
		return t, mismatch("expected %s, found %s", want, t)
	}
	return t, nil
}

// popType pops one value and checks it against a descriptor type's
// category.
func (m *machine) popType(f *Frame, want VerificationType) error {
	t, err := m.pop(f)
	if err != nil {
		return err
	}
	if want.Kind == VObject {
		if !t.IsReference() {
			return mismatch("expected reference, found %s", t)
		}
		return nil
	}
	if t != want {
		return mismatch("expected %s, found %s", want, t)
	}
	return nil
}

// takeSlots pops values until exactly the given number of stack slots has
// been consumed, returning them bottom-first. A wide value straddling the
// slot boundary is malformed.
func (m *machine) takeSlots(f *Frame, slots int) ([]VerificationType, error) {
	var units []VerificationType
	for slots > 0 {
		t, err := m.pop(f)
		if err != nil {
			return nil, err
		}
		w := 1
		if t.Wide() {
			w = 2
		}
		if w > slots {
			return nil, mismatch("stack operation splits a two-slot value")
		}
		slots -= w
		units = append(units, Top)
		copy(units[1:], units)
		units[0] = t
	}
	return units, nil
}

// setLocal writes a local slot, invalidating any two-slot value the write
// cuts in half.
func (m *machine) setLocal(f *Frame, idx int, v VerificationType) error {
	width := 1
	if v.Wide() {
		width = 2
	}
	if idx+width > len(f.Locals) {
		return mismatch("local %d out of range (max_locals %d)", idx, len(f.Locals))
	}
	if idx > 0 && f.Locals[idx-1].Wide() {
		f.Locals[idx-1] = Top
	}
	if f.Locals[idx].Wide() && idx+1 < len(f.Locals) {
		f.Locals[idx+1] = Top
	}
	f.Locals[idx] = v
	if v.Wide() {
		f.Locals[idx+1] = Top
	}
	return nil
}

// constType maps a loadable constant onto the verification type it pushes.
func constType(c classfile.Constant) (VerificationType, error) {
	switch v := c.(type) {
	case *classfile.IntegerConst:
		return Integer, nil
	case *classfile.FloatConst:
		return Float, nil
	case *classfile.LongConst:
		return Long, nil
	case *classfile.DoubleConst:
		return Double, nil
	case *classfile.StringConst:
		return Object("java/lang/String"), nil
	case *classfile.ClassConst:
		return Object("java/lang/Class"), nil
	case *classfile.MethodTypeConst:
		return Object("java/lang/invoke/MethodType"), nil
	case *classfile.MethodHandleConst:
		return Object("java/lang/invoke/MethodHandle"), nil
	case *classfile.NullConst:
		return Null, nil
	case *classfile.DynamicConst:
		t, err := classfile.ParseType(v.Descriptor)
		if err != nil {
			return Top, err
		}
		return typeOf(t), nil
	default:
		return Top, mismatch("constant %s is not loadable", c)
	}
}

// elementType returns what loading from an array of the given verification
// type pushes.
func elementType(arr VerificationType) VerificationType {
	if arr.Kind == VNull {
		return Null
	}
	if arr.Kind == VObject && len(arr.ClassName) > 0 && arr.ClassName[0] == '[' {
		if t, err := classfile.ParseType(arr.ClassName); err == nil && t.Elem != nil {
			return typeOf(*t.Elem)
		}
	}
	return Object("java/lang/Object")
}

// step applies one instruction's effect to the frame in place.
func (m *machine) step(f *Frame, e classfile.Entry) error {
	switch insn := e.Insn.(type) {
	case *classfile.Nop, *classfile.Breakpoint, *classfile.ImpDep1, *classfile.ImpDep2:
		return nil

	case *classfile.LoadConst:
		t, err := constType(insn.Value)
		if err != nil {
			return err
		}
		return m.push(f, t)

	case *classfile.LocalLoad:
		idx := int(insn.Index)
		if idx >= len(f.Locals) {
			return mismatch("local %d out of range (max_locals %d)", idx, len(f.Locals))
		}
		t := f.Locals[idx]
		if insn.Kind == classfile.KindRef {
			if !t.IsReference() {
				return mismatch("local %d holds %s, expected reference", idx, t)
			}
			return m.push(f, t)
		}
		if want := kindType(insn.Kind); t != want {
			return mismatch("local %d holds %s, expected %s", idx, t, want)
		}
		return m.push(f, t)

	case *classfile.LocalStore:
		t, err := m.popKind(f, insn.Kind)
		if err != nil {
			return err
		}
		return m.setLocal(f, int(insn.Index), t)

	case *classfile.ArrayLoad:
		if _, err := m.popKind(f, classfile.KindInt); err != nil {
			return err
		}
		arr, err := m.popKind(f, classfile.KindRef)
		if err != nil {
			return err
		}
		if insn.Kind == classfile.KindRef {
			return m.push(f, elementType(arr))
		}
		return m.push(f, kindType(insn.Kind))

	case *classfile.ArrayStore:
		if _, err := m.popKind(f, insn.Kind); err != nil {
			return err
		}
		if _, err := m.popKind(f, classfile.KindInt); err != nil {
			return err
		}
		_, err := m.popKind(f, classfile.KindRef)
		return err

	case *classfile.Arith:
		switch insn.Op {
		case classfile.OpNeg:
			if _, err := m.popKind(f, insn.Kind); err != nil {
				return err
			}
		case classfile.OpShl, classfile.OpShr, classfile.OpUshr:
			if _, err := m.popKind(f, classfile.KindInt); err != nil {
				return err
			}
			if _, err := m.popKind(f, insn.Kind); err != nil {
				return err
			}
		default:
			for i := 0; i < 2; i++ {
				if _, err := m.popKind(f, insn.Kind); err != nil {
					return err
				}
			}
		}
		return m.push(f, kindType(insn.Kind))

	case *classfile.Compare:
		for i := 0; i < 2; i++ {
			if _, err := m.popKind(f, insn.Kind); err != nil {
				return err
			}
		}
		return m.push(f, Integer)

	case *classfile.Convert:
		if _, err := m.popKind(f, insn.From); err != nil {
			return err
		}
		return m.push(f, kindType(insn.To))

	case *classfile.Dup:
		top, err := m.takeSlots(f, int(insn.Num))
		if err != nil {
			return err
		}
		below, err := m.takeSlots(f, int(insn.Down))
		if err != nil {
			return err
		}
		f.Stack = append(f.Stack, top...)
		f.Stack = append(f.Stack, below...)
		f.Stack = append(f.Stack, top...)
		if f.SlotDepth() > m.maxStack {
			return mismatch("operand stack exceeds max_stack %d", m.maxStack)
		}
		return nil

	case *classfile.Pop:
		slots := 1
		if insn.Two {
			slots = 2
		}
		_, err := m.takeSlots(f, slots)
		return err

	case *classfile.Swap:
		a, err := m.pop(f)
		if err != nil {
			return err
		}
		b, err := m.pop(f)
		if err != nil {
			return err
		}
		if a.Wide() || b.Wide() {
			return mismatch("swap on a two-slot value")
		}
		f.Stack = append(f.Stack, a, b)
		return nil

	case *classfile.GetField:
		if insn.Instance {
			if _, err := m.popKind(f, classfile.KindRef); err != nil {
				return err
			}
		}
		t, err := classfile.ParseType(insn.Descriptor)
		if err != nil {
			return err
		}
		return m.push(f, typeOf(t))

	case *classfile.PutField:
		t, err := classfile.ParseType(insn.Descriptor)
		if err != nil {
			return err
		}
		if err := m.popType(f, typeOf(t)); err != nil {
			return err
		}
		if insn.Instance {
			if _, err := m.popKind(f, classfile.KindRef); err != nil {
				return err
			}
		}
		return nil

	case *classfile.Invoke:
		desc, err := classfile.ParseMethodDescriptor(insn.Descriptor)
		if err != nil {
			return err
		}
		for i := len(desc.Params) - 1; i >= 0; i-- {
			if err := m.popType(f, typeOf(desc.Params[i])); err != nil {
				return err
			}
		}
		if insn.Kind != classfile.InvokeStatic {
			recv, err := m.popKind(f, classfile.KindRef)
			if err != nil {
				return err
			}
			if insn.Kind == classfile.InvokeSpecial && insn.Name == "<init>" {
				if err := m.construct(f, recv, insn.Class); err != nil {
					return err
				}
			}
		}
		if desc.Return.Kind != classfile.TypeVoid {
			return m.push(f, typeOf(desc.Return))
		}
		return nil

	case *classfile.InvokeDynamic:
		desc, err := classfile.ParseMethodDescriptor(insn.Descriptor)
		if err != nil {
			return err
		}
		for i := len(desc.Params) - 1; i >= 0; i-- {
			if err := m.popType(f, typeOf(desc.Params[i])); err != nil {
				return err
			}
		}
		if desc.Return.Kind != classfile.TypeVoid {
			return m.push(f, typeOf(desc.Return))
		}
		return nil

	case *classfile.NewObject:
		return m.push(f, Uninitialized(e.Label))

	case *classfile.NewArray:
		if _, err := m.popKind(f, classfile.KindInt); err != nil {
			return err
		}
		return m.push(f, Object("["+insn.Elem.Descriptor()))

	case *classfile.MultiNewArray:
		for i := 0; i < int(insn.Dims); i++ {
			if _, err := m.popKind(f, classfile.KindInt); err != nil {
				return err
			}
		}
		return m.push(f, Object(insn.ClassName))

	case *classfile.ArrayLength:
		if _, err := m.popKind(f, classfile.KindRef); err != nil {
			return err
		}
		return m.push(f, Integer)

	case *classfile.CheckCast:
		if _, err := m.popKind(f, classfile.KindRef); err != nil {
			return err
		}
		return m.push(f, Object(insn.ClassName))

	case *classfile.InstanceOf:
		if _, err := m.popKind(f, classfile.KindRef); err != nil {
			return err
		}
		return m.push(f, Integer)

	case *classfile.IncrementInt:
		idx := int(insn.Index)
		if idx >= len(f.Locals) || f.Locals[idx] != Integer {
			return mismatch("iinc on local %d", idx)
		}
		return nil

	case *classfile.Jump:
		return nil

	case *classfile.CondJump:
		kind := classfile.KindInt
		if insn.Cond.OnReference() {
			kind = classfile.KindRef
		}
		for i := 0; i < insn.Cond.PopCount(); i++ {
			if _, err := m.popKind(f, kind); err != nil {
				return err
			}
		}
		return nil

	case *classfile.TableSwitch, *classfile.LookupSwitch:
		_, err := m.popKind(f, classfile.KindInt)
		return err

	case *classfile.Return:
		switch insn.Kind {
		case classfile.TypeVoid:
			return nil
		case classfile.TypeReference:
			_, err := m.popKind(f, classfile.KindRef)
			return err
		case classfile.TypeLong:
			_, err := m.popKind(f, classfile.KindLong)
			return err
		case classfile.TypeFloat:
			_, err := m.popKind(f, classfile.KindFloat)
			return err
		case classfile.TypeDouble:
			_, err := m.popKind(f, classfile.KindDouble)
			return err
		default:
			_, err := m.popKind(f, classfile.KindInt)
			return err
		}

	case *classfile.Throw, *classfile.MonitorEnter, *classfile.MonitorExit:
		_, err := m.popKind(f, classfile.KindRef)
		return err

	default:
		return mismatch("unhandled instruction %s", e.Insn)
	}
}

// construct rewrites every copy of an uninitialized reference to its
// initialized type once its <init> has been observed.
func (m *machine) construct(f *Frame, recv VerificationType, class string) error {
	var init VerificationType
	switch recv.Kind {
	case VUninitThis:
		init = Object(m.className)
	case VUninit:
		init = Object(class)
	default:
		return mismatch("<init> on initialized %s", recv)
	}
	for i, t := range f.Locals {
		if t == recv {
			f.Locals[i] = init
		}
	}
	for i, t := range f.Stack {
		if t == recv {
			f.Stack[i] = init
		}
	}
	return nil
}
