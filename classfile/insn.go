package classfile

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

// Label is an opaque stand-in for a bytecode offset. Labels are dense,
// zero-based, and scoped to one method: the decoder materializes exactly one
// label per offset that is an instruction boundary or a jump/handler/switch
// target, and never reuses labels across methods.
type Label uint32

func (l Label) String() string {
	return fmt.Sprintf("L%d", uint32(l))
}

// ---------------------------------------------------------------------------
// Instruction set
// ---------------------------------------------------------------------------

// Insn is one semantic instruction. The decoder collapses the ~200 raw
// opcodes into this closed set; families like iconst/bipush/sipush/ldc all
// become LoadConst. Jump-bearing variants hold Labels, never raw offsets.
type Insn interface {
	String() string
	insn()
}

// PrimKind is the operand category an instruction acts on.
type PrimKind uint8

const (
	KindRef PrimKind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
)

func (k PrimKind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindBoolean:
		return "boolean"
	case KindByte:
		return "byte"
	case KindChar:
		return "char"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("PrimKind(%d)", uint8(k))
	}
}

// Wide reports whether the kind occupies two stack/local slots.
func (k PrimKind) Wide() bool {
	return k == KindLong || k == KindDouble
}

// ArithOp is the operator of an Arith instruction.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr  // arithmetic shift right
	OpUshr // logical shift right
)

func (op ArithOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpRem:
		return "rem"
	case OpNeg:
		return "neg"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpShl:
		return "shl"
	case OpShr:
		return "shr"
	case OpUshr:
		return "ushr"
	default:
		return fmt.Sprintf("ArithOp(%d)", uint8(op))
	}
}

// JumpCondition is the comparison of a CondJump.
type JumpCondition uint8

const (
	// Single reference operand.
	CondIsNull JumpCondition = iota
	CondNotNull
	// Two reference operands.
	CondRefsEqual
	CondRefsNotEqual
	// Two int operands.
	CondIntsEq
	CondIntsNotEq
	CondIntsLessThan
	CondIntsLessThanOrEq
	CondIntsGreaterThan
	CondIntsGreaterThanOrEq
	// Single int operand compared against zero.
	CondIntEqZero
	CondIntNotEqZero
	CondIntLessThanZero
	CondIntLessThanOrEqZero
	CondIntGreaterThanZero
	CondIntGreaterThanOrEqZero
)

func (c JumpCondition) String() string {
	switch c {
	case CondIsNull:
		return "ifnull"
	case CondNotNull:
		return "ifnonnull"
	case CondRefsEqual:
		return "if_acmpeq"
	case CondRefsNotEqual:
		return "if_acmpne"
	case CondIntsEq:
		return "if_icmpeq"
	case CondIntsNotEq:
		return "if_icmpne"
	case CondIntsLessThan:
		return "if_icmplt"
	case CondIntsLessThanOrEq:
		return "if_icmple"
	case CondIntsGreaterThan:
		return "if_icmpgt"
	case CondIntsGreaterThanOrEq:
		return "if_icmpge"
	case CondIntEqZero:
		return "ifeq"
	case CondIntNotEqZero:
		return "ifne"
	case CondIntLessThanZero:
		return "iflt"
	case CondIntLessThanOrEqZero:
		return "ifle"
	case CondIntGreaterThanZero:
		return "ifgt"
	case CondIntGreaterThanOrEqZero:
		return "ifge"
	default:
		return fmt.Sprintf("JumpCondition(%d)", uint8(c))
	}
}

// PopCount returns how many stack operands the condition consumes.
func (c JumpCondition) PopCount() int {
	switch c {
	case CondIsNull, CondNotNull, CondIntEqZero, CondIntNotEqZero,
		CondIntLessThanZero, CondIntLessThanOrEqZero,
		CondIntGreaterThanZero, CondIntGreaterThanOrEqZero:
		return 1
	default:
		return 2
	}
}

// OnReference reports whether the condition compares references rather than
// ints.
func (c JumpCondition) OnReference() bool {
	switch c {
	case CondIsNull, CondNotNull, CondRefsEqual, CondRefsNotEqual:
		return true
	default:
		return false
	}
}

// InvokeKind is the dispatch kind of an Invoke instruction.
type InvokeKind uint8

const (
	InvokeVirtual InvokeKind = iota
	InvokeSpecial
	InvokeStatic
	InvokeInterface
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeVirtual:
		return "invokevirtual"
	case InvokeSpecial:
		return "invokespecial"
	case InvokeStatic:
		return "invokestatic"
	case InvokeInterface:
		return "invokeinterface"
	default:
		return fmt.Sprintf("InvokeKind(%d)", uint8(k))
	}
}

// NullConst is the value loaded by aconst_null. It implements Constant so
// LoadConst can carry every loadable value uniformly, though it never
// appears in a constant pool.
type NullConst struct{}

func (c *NullConst) Tag() ConstantTag { return 0 }
func (c *NullConst) String() string   { return "null" }

// Nop does nothing.
type Nop struct{}

// LoadConst pushes a constant value. Covers aconst_null, iconst_*, lconst_*,
// fconst_*, dconst_*, bipush, sipush, ldc, ldc_w and ldc2_w.
type LoadConst struct {
	Value Constant
}

// LocalLoad pushes a local variable slot.
type LocalLoad struct {
	Kind  PrimKind
	Index uint16
}

// LocalStore pops into a local variable slot.
type LocalStore struct {
	Kind  PrimKind
	Index uint16
}

// ArrayLoad pops index and array and pushes the element.
type ArrayLoad struct {
	Kind PrimKind
}

// ArrayStore pops value, index and array.
type ArrayStore struct {
	Kind PrimKind
}

// NewArray allocates a one-dimensional array. Covers newarray and anewarray;
// Elem is the element type.
type NewArray struct {
	Elem Type
}

// MultiNewArray allocates a multi-dimensional array. ClassName is the full
// array descriptor from the pool; Dims counts the dimensions popped off the
// stack.
type MultiNewArray struct {
	ClassName string
	Dims      uint8
}

// NewObject allocates an uninitialized instance.
type NewObject struct {
	ClassName string
}

// ArrayLength pops an array and pushes its length.
type ArrayLength struct{}

// Arith applies a binary or unary (OpNeg) arithmetic operator.
type Arith struct {
	Op   ArithOp
	Kind PrimKind
}

// Compare is the three-way comparison of lcmp/fcmpl/fcmpg/dcmpl/dcmpg.
// NaNIsPositive selects the *g forms, which push 1 rather than -1 when
// either operand is NaN.
type Compare struct {
	Kind          PrimKind
	NaNIsPositive bool
}

// Convert changes the numeric category of the stack top.
type Convert struct {
	From PrimKind
	To   PrimKind
}

// Dup duplicates Num stack slots and inserts them Down slots below the top.
// dup is {1,0}, dup_x1 {1,1}, dup2_x2 {2,2}.
type Dup struct {
	Num  uint8
	Down uint8
}

// Pop discards the top slot, or the top two slots (one two-word value or two
// one-word values) when Two is set.
type Pop struct {
	Two bool
}

// Swap exchanges the two one-word values on top of the stack.
type Swap struct{}

// GetField pushes a field's value. Instance distinguishes getfield from
// getstatic.
type GetField struct {
	Instance   bool
	Class      string
	Name       string
	Descriptor string
}

// PutField pops a value into a field.
type PutField struct {
	Instance   bool
	Class      string
	Name       string
	Descriptor string
}

// Jump transfers control unconditionally.
type Jump struct {
	Target Label
}

// CondJump transfers control when Cond holds, otherwise falls through.
type CondJump struct {
	Cond   JumpCondition
	Target Label
}

// SwitchCase is one lookupswitch pairing.
type SwitchCase struct {
	Match  int32
	Target Label
}

// TableSwitch dispatches on a dense int range: key k jumps to
// Targets[k-Low], anything outside to Default.
type TableSwitch struct {
	Default Label
	Low     int32
	Targets []Label
}

// LookupSwitch dispatches on sparse int keys. Cases preserve file order.
type LookupSwitch struct {
	Default Label
	Cases   []SwitchCase
}

// IncrementInt adds Amount to an int local in place.
type IncrementInt struct {
	Index  uint16
	Amount int16
}

// Invoke calls a method through a resolved method reference.
// InterfaceMethod records whether the reference was an InterfaceMethodRef,
// which matters for re-serialization but not dispatch.
type Invoke struct {
	Kind            InvokeKind
	Class           string
	Name            string
	Descriptor      string
	InterfaceMethod bool
}

// InvokeDynamic calls through a dynamically computed call site.
// BootstrapIndex points into the class-level BootstrapMethods attribute.
type InvokeDynamic struct {
	Name           string
	Descriptor     string
	BootstrapIndex uint16
}

// Return leaves the method. Kind is TypeVoid for return, TypeReference for
// areturn, and the numeric kinds for the rest.
type Return struct {
	Kind TypeKind
}

// Throw pops a throwable and raises it.
type Throw struct{}

// CheckCast asserts the stack top is assignable to ClassName.
type CheckCast struct {
	ClassName string
}

// InstanceOf pops a reference and pushes an int type-test result.
type InstanceOf struct {
	ClassName string
}

// MonitorEnter pops a reference and acquires its monitor.
type MonitorEnter struct{}

// MonitorExit pops a reference and releases its monitor.
type MonitorExit struct{}

// Breakpoint is the reserved debugger opcode 0xca.
type Breakpoint struct{}

// ImpDep1 is the reserved implementation-dependent opcode 0xfe.
type ImpDep1 struct{}

// ImpDep2 is the reserved implementation-dependent opcode 0xff.
type ImpDep2 struct{}

func (*Nop) insn()           {}
func (*LoadConst) insn()     {}
func (*LocalLoad) insn()     {}
func (*LocalStore) insn()    {}
func (*ArrayLoad) insn()     {}
func (*ArrayStore) insn()    {}
func (*NewArray) insn()      {}
func (*MultiNewArray) insn() {}
func (*NewObject) insn()     {}
func (*ArrayLength) insn()   {}
func (*Arith) insn()         {}
func (*Compare) insn()       {}
func (*Convert) insn()       {}
func (*Dup) insn()           {}
func (*Pop) insn()           {}
func (*Swap) insn()          {}
func (*GetField) insn()      {}
func (*PutField) insn()      {}
func (*Jump) insn()          {}
func (*CondJump) insn()      {}
func (*TableSwitch) insn()   {}
func (*LookupSwitch) insn()  {}
func (*IncrementInt) insn()  {}
func (*Invoke) insn()        {}
func (*InvokeDynamic) insn() {}
func (*Return) insn()        {}
func (*Throw) insn()         {}
func (*CheckCast) insn()     {}
func (*InstanceOf) insn()    {}
func (*MonitorEnter) insn()  {}
func (*MonitorExit) insn()   {}
func (*Breakpoint) insn()    {}
func (*ImpDep1) insn()       {}
func (*ImpDep2) insn()       {}

func (i *Nop) String() string { return "nop" }
func (i *LoadConst) String() string {
	return fmt.Sprintf("ldc %s", i.Value)
}
func (i *LocalLoad) String() string {
	return fmt.Sprintf("load.%s %d", i.Kind, i.Index)
}
func (i *LocalStore) String() string {
	return fmt.Sprintf("store.%s %d", i.Kind, i.Index)
}
func (i *ArrayLoad) String() string {
	return fmt.Sprintf("arrayload.%s", i.Kind)
}
func (i *ArrayStore) String() string {
	return fmt.Sprintf("arraystore.%s", i.Kind)
}
func (i *NewArray) String() string {
	return fmt.Sprintf("newarray %s", i.Elem)
}
func (i *MultiNewArray) String() string {
	return fmt.Sprintf("multianewarray %s dims=%d", i.ClassName, i.Dims)
}
func (i *NewObject) String() string {
	return "new " + i.ClassName
}
func (i *ArrayLength) String() string { return "arraylength" }
func (i *Arith) String() string {
	return fmt.Sprintf("%s.%s", i.Op, i.Kind)
}
func (i *Compare) String() string {
	suffix := "l"
	if i.NaNIsPositive {
		suffix = "g"
	}
	if i.Kind == KindLong {
		suffix = ""
	}
	return fmt.Sprintf("cmp%s.%s", suffix, i.Kind)
}
func (i *Convert) String() string {
	return fmt.Sprintf("convert.%s.%s", i.From, i.To)
}
func (i *Dup) String() string {
	return fmt.Sprintf("dup num=%d down=%d", i.Num, i.Down)
}
func (i *Pop) String() string {
	if i.Two {
		return "pop2"
	}
	return "pop"
}
func (i *Swap) String() string { return "swap" }
func (i *GetField) String() string {
	op := "getfield"
	if !i.Instance {
		op = "getstatic"
	}
	return fmt.Sprintf("%s %s.%s:%s", op, i.Class, i.Name, i.Descriptor)
}
func (i *PutField) String() string {
	op := "putfield"
	if !i.Instance {
		op = "putstatic"
	}
	return fmt.Sprintf("%s %s.%s:%s", op, i.Class, i.Name, i.Descriptor)
}
func (i *Jump) String() string {
	return fmt.Sprintf("goto %s", i.Target)
}
func (i *CondJump) String() string {
	return fmt.Sprintf("%s %s", i.Cond, i.Target)
}
func (i *TableSwitch) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tableswitch default=%s", i.Default)
	for n, t := range i.Targets {
		fmt.Fprintf(&b, " %d=%s", i.Low+int32(n), t)
	}
	return b.String()
}
func (i *LookupSwitch) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "lookupswitch default=%s", i.Default)
	for _, c := range i.Cases {
		fmt.Fprintf(&b, " %d=%s", c.Match, c.Target)
	}
	return b.String()
}
func (i *IncrementInt) String() string {
	return fmt.Sprintf("iinc %d %+d", i.Index, i.Amount)
}
func (i *Invoke) String() string {
	return fmt.Sprintf("%s %s.%s%s", i.Kind, i.Class, i.Name, i.Descriptor)
}
func (i *InvokeDynamic) String() string {
	return fmt.Sprintf("invokedynamic %s%s bootstrap=%d", i.Name, i.Descriptor, i.BootstrapIndex)
}
func (i *Return) String() string {
	if i.Kind == TypeVoid {
		return "return"
	}
	return fmt.Sprintf("return.%s", i.Kind)
}
func (i *Throw) String() string { return "athrow" }
func (i *CheckCast) String() string {
	return "checkcast " + i.ClassName
}
func (i *InstanceOf) String() string {
	return "instanceof " + i.ClassName
}
func (i *MonitorEnter) String() string { return "monitorenter" }
func (i *MonitorExit) String() string  { return "monitorexit" }
func (i *Breakpoint) String() string   { return "breakpoint" }
func (i *ImpDep1) String() string      { return "impdep1" }
func (i *ImpDep2) String() string      { return "impdep2" }

// IsTerminator reports whether the instruction unconditionally transfers
// control away, ending a basic block with no fall-through.
func IsTerminator(i Insn) bool {
	switch i.(type) {
	case *Jump, *TableSwitch, *LookupSwitch, *Return, *Throw:
		return true
	default:
		return false
	}
}

// BranchTargets appends every label the instruction may transfer control to
// (excluding fall-through) and returns the extended slice.
func BranchTargets(i Insn, dst []Label) []Label {
	switch v := i.(type) {
	case *Jump:
		dst = append(dst, v.Target)
	case *CondJump:
		dst = append(dst, v.Target)
	case *TableSwitch:
		dst = append(dst, v.Default)
		dst = append(dst, v.Targets...)
	case *LookupSwitch:
		dst = append(dst, v.Default)
		for _, c := range v.Cases {
			dst = append(dst, c.Target)
		}
	}
	return dst
}
