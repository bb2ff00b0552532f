package classfile

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Constant pool tags
// ---------------------------------------------------------------------------

// ConstantTag identifies a constant pool entry kind.
type ConstantTag uint8

const (
	TagUtf8               ConstantTag = 1
	TagInteger            ConstantTag = 3
	TagFloat              ConstantTag = 4
	TagLong               ConstantTag = 5
	TagDouble             ConstantTag = 6
	TagClass              ConstantTag = 7
	TagString             ConstantTag = 8
	TagFieldRef           ConstantTag = 9
	TagMethodRef          ConstantTag = 10
	TagInterfaceMethodRef ConstantTag = 11
	TagNameAndType        ConstantTag = 12
	TagMethodHandle       ConstantTag = 15
	TagMethodType         ConstantTag = 16
	TagDynamic            ConstantTag = 17
	TagInvokeDynamic      ConstantTag = 18
	TagModule             ConstantTag = 19
	TagPackage            ConstantTag = 20
)

func (t ConstantTag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldRef:
		return "FieldRef"
	case TagMethodRef:
		return "MethodRef"
	case TagInterfaceMethodRef:
		return "InterfaceMethodRef"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// MethodHandleKind is the reference_kind of a MethodHandle constant.
type MethodHandleKind uint8

const (
	RefGetField         MethodHandleKind = 1
	RefGetStatic        MethodHandleKind = 2
	RefPutField         MethodHandleKind = 3
	RefPutStatic        MethodHandleKind = 4
	RefInvokeVirtual    MethodHandleKind = 5
	RefInvokeStatic     MethodHandleKind = 6
	RefInvokeSpecial    MethodHandleKind = 7
	RefNewInvokeSpecial MethodHandleKind = 8
	RefInvokeInterface  MethodHandleKind = 9
)

func (k MethodHandleKind) String() string {
	switch k {
	case RefGetField:
		return "getField"
	case RefGetStatic:
		return "getStatic"
	case RefPutField:
		return "putField"
	case RefPutStatic:
		return "putStatic"
	case RefInvokeVirtual:
		return "invokeVirtual"
	case RefInvokeStatic:
		return "invokeStatic"
	case RefInvokeSpecial:
		return "invokeSpecial"
	case RefNewInvokeSpecial:
		return "newInvokeSpecial"
	case RefInvokeInterface:
		return "invokeInterface"
	default:
		return fmt.Sprintf("refKind(%d)", uint8(k))
	}
}

// ---------------------------------------------------------------------------
// Resolved constants
// ---------------------------------------------------------------------------

// Constant is a fully resolved constant pool entry: every index has been
// replaced by a direct value. Constants are immutable after resolution.
// Referenced strings are shared Go string headers, not copies, so memory
// stays proportional to pool size regardless of fan-out.
type Constant interface {
	Tag() ConstantTag
	String() string
}

// Utf8Const is a decoded Utf8 entry.
type Utf8Const struct {
	Value string
}

// IntegerConst is an Integer entry.
type IntegerConst struct {
	Value int32
}

// FloatConst is a Float entry.
type FloatConst struct {
	Value float32
}

// LongConst is a Long entry. It occupies two pool slots.
type LongConst struct {
	Value int64
}

// DoubleConst is a Double entry. It occupies two pool slots.
type DoubleConst struct {
	Value float64
}

// ClassConst is a Class entry holding its internal name directly.
type ClassConst struct {
	Name string
}

// StringConst is a String entry holding the referenced Utf8 value.
type StringConst struct {
	Value string
}

// NameAndTypeConst is a NameAndType entry.
type NameAndTypeConst struct {
	Name       string
	Descriptor string
}

// FieldRefConst is a FieldRef entry with class, name and descriptor
// dereferenced.
type FieldRefConst struct {
	Class      string
	Name       string
	Descriptor string
}

// MethodRefConst covers MethodRef and InterfaceMethodRef entries; Interface
// distinguishes the two tags.
type MethodRefConst struct {
	Class      string
	Name       string
	Descriptor string
	Interface  bool
}

// MethodHandleConst is a MethodHandle entry. Ref is the resolved field or
// method reference the handle points at.
type MethodHandleConst struct {
	Kind MethodHandleKind
	Ref  Constant
}

// MethodTypeConst is a MethodType entry.
type MethodTypeConst struct {
	Descriptor string
}

// DynamicConst covers Dynamic and InvokeDynamic entries. BootstrapIndex
// points into the class-level BootstrapMethods attribute, which is resolved
// at the ClassFile layer since the attribute follows the method table in the
// file.
type DynamicConst struct {
	BootstrapIndex uint16
	Name           string
	Descriptor     string
	Invoke         bool // true for InvokeDynamic, false for Dynamic
}

// ModuleConst is a Module entry.
type ModuleConst struct {
	Name string
}

// PackageConst is a Package entry.
type PackageConst struct {
	Name string
}

func (c *Utf8Const) Tag() ConstantTag        { return TagUtf8 }
func (c *IntegerConst) Tag() ConstantTag     { return TagInteger }
func (c *FloatConst) Tag() ConstantTag       { return TagFloat }
func (c *LongConst) Tag() ConstantTag        { return TagLong }
func (c *DoubleConst) Tag() ConstantTag      { return TagDouble }
func (c *ClassConst) Tag() ConstantTag       { return TagClass }
func (c *StringConst) Tag() ConstantTag      { return TagString }
func (c *NameAndTypeConst) Tag() ConstantTag { return TagNameAndType }
func (c *FieldRefConst) Tag() ConstantTag    { return TagFieldRef }
func (c *MethodRefConst) Tag() ConstantTag {
	if c.Interface {
		return TagInterfaceMethodRef
	}
	return TagMethodRef
}
func (c *MethodHandleConst) Tag() ConstantTag { return TagMethodHandle }
func (c *MethodTypeConst) Tag() ConstantTag   { return TagMethodType }
func (c *DynamicConst) Tag() ConstantTag {
	if c.Invoke {
		return TagInvokeDynamic
	}
	return TagDynamic
}
func (c *ModuleConst) Tag() ConstantTag  { return TagModule }
func (c *PackageConst) Tag() ConstantTag { return TagPackage }

func (c *Utf8Const) String() string    { return fmt.Sprintf("Utf8 %q", c.Value) }
func (c *IntegerConst) String() string { return fmt.Sprintf("Integer %d", c.Value) }
func (c *FloatConst) String() string   { return fmt.Sprintf("Float %g", c.Value) }
func (c *LongConst) String() string    { return fmt.Sprintf("Long %d", c.Value) }
func (c *DoubleConst) String() string  { return fmt.Sprintf("Double %g", c.Value) }
func (c *ClassConst) String() string   { return "Class " + c.Name }
func (c *StringConst) String() string  { return fmt.Sprintf("String %q", c.Value) }
func (c *NameAndTypeConst) String() string {
	return fmt.Sprintf("NameAndType %s:%s", c.Name, c.Descriptor)
}
func (c *FieldRefConst) String() string {
	return fmt.Sprintf("FieldRef %s.%s:%s", c.Class, c.Name, c.Descriptor)
}
func (c *MethodRefConst) String() string {
	kind := "MethodRef"
	if c.Interface {
		kind = "InterfaceMethodRef"
	}
	return fmt.Sprintf("%s %s.%s%s", kind, c.Class, c.Name, c.Descriptor)
}
func (c *MethodHandleConst) String() string {
	return fmt.Sprintf("MethodHandle %s %s", c.Kind, c.Ref)
}
func (c *MethodTypeConst) String() string { return "MethodType " + c.Descriptor }
func (c *DynamicConst) String() string {
	kind := "Dynamic"
	if c.Invoke {
		kind = "InvokeDynamic"
	}
	return fmt.Sprintf("%s #%d %s:%s", kind, c.BootstrapIndex, c.Name, c.Descriptor)
}
func (c *ModuleConst) String() string  { return "Module " + c.Name }
func (c *PackageConst) String() string { return "Package " + c.Name }

// ---------------------------------------------------------------------------
// ConstantPool
// ---------------------------------------------------------------------------

// ConstantPool is the resolved, index-free constant table of one class file.
// Indices are 1-based as in the format; slot 0 and the phantom second slot
// of every Long/Double entry hold nil.
type ConstantPool struct {
	entries []Constant
}

// Size returns the pool's declared slot count, including slot 0 and phantom
// slots.
func (cp *ConstantPool) Size() int {
	return len(cp.entries)
}

// Get returns the entry at index, or ErrInvalidPoolRef if the index is zero,
// out of range, or a phantom slot.
func (cp *ConstantPool) Get(index uint16) (Constant, error) {
	if int(index) >= len(cp.entries) || cp.entries[index] == nil {
		return nil, fmt.Errorf("%w: no entry at index %d", ErrInvalidPoolRef, index)
	}
	return cp.entries[index], nil
}

// Entries iterates the occupied pool slots in index order.
func (cp *ConstantPool) Entries(fn func(index uint16, c Constant)) {
	for i, c := range cp.entries {
		if c != nil {
			fn(uint16(i), c)
		}
	}
}

// Utf8 returns the Utf8 string at index.
func (cp *ConstantPool) Utf8(index uint16) (string, error) {
	c, err := cp.Get(index)
	if err != nil {
		return "", err
	}
	u, ok := c.(*Utf8Const)
	if !ok {
		return "", wrongTag(TagUtf8, c, index)
	}
	return u.Value, nil
}

// Class returns the Class constant at index.
func (cp *ConstantPool) Class(index uint16) (*ClassConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	cc, ok := c.(*ClassConst)
	if !ok {
		return nil, wrongTag(TagClass, c, index)
	}
	return cc, nil
}

// ClassName returns the name of the Class constant at index. Index zero maps
// to the empty string, the format's encoding for "no class" (the superclass
// slot of java/lang/Object and catch-all handler entries).
func (cp *ConstantPool) ClassName(index uint16) (string, error) {
	if index == 0 {
		return "", nil
	}
	cc, err := cp.Class(index)
	if err != nil {
		return "", err
	}
	return cc.Name, nil
}

// FieldRef returns the FieldRef constant at index.
func (cp *ConstantPool) FieldRef(index uint16) (*FieldRefConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	f, ok := c.(*FieldRefConst)
	if !ok {
		return nil, wrongTag(TagFieldRef, c, index)
	}
	return f, nil
}

// AnyMethodRef returns the MethodRef or InterfaceMethodRef constant at
// index.
func (cp *ConstantPool) AnyMethodRef(index uint16) (*MethodRefConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	m, ok := c.(*MethodRefConst)
	if !ok {
		return nil, wrongTag(TagMethodRef, c, index)
	}
	return m, nil
}

// NameAndType returns the NameAndType constant at index.
func (cp *ConstantPool) NameAndType(index uint16) (*NameAndTypeConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	nt, ok := c.(*NameAndTypeConst)
	if !ok {
		return nil, wrongTag(TagNameAndType, c, index)
	}
	return nt, nil
}

// InvokeDynamic returns the InvokeDynamic constant at index.
func (cp *ConstantPool) InvokeDynamic(index uint16) (*DynamicConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	d, ok := c.(*DynamicConst)
	if !ok || !d.Invoke {
		return nil, wrongTag(TagInvokeDynamic, c, index)
	}
	return d, nil
}

// MethodHandle returns the MethodHandle constant at index.
func (cp *ConstantPool) MethodHandle(index uint16) (*MethodHandleConst, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	h, ok := c.(*MethodHandleConst)
	if !ok {
		return nil, wrongTag(TagMethodHandle, c, index)
	}
	return h, nil
}

// Loadable returns the constant at index if it is loadable by an ldc-family
// instruction of the given operand width.
func (cp *ConstantPool) Loadable(index uint16, wide bool) (Constant, error) {
	c, err := cp.Get(index)
	if err != nil {
		return nil, err
	}
	switch c.(type) {
	case *LongConst, *DoubleConst:
		if !wide {
			return nil, fmt.Errorf("%w: two-word constant %s at index %d needs ldc2_w",
				ErrInvalidPoolRef, c.Tag(), index)
		}
		return c, nil
	case *IntegerConst, *FloatConst, *StringConst, *ClassConst, *MethodTypeConst, *MethodHandleConst:
		if wide {
			return nil, fmt.Errorf("%w: one-word constant %s at index %d under ldc2_w",
				ErrInvalidPoolRef, c.Tag(), index)
		}
		return c, nil
	case *DynamicConst:
		// Dynamic is loadable at either width since its category depends on
		// the resolved descriptor; InvokeDynamic is never loadable.
		if c.(*DynamicConst).Invoke {
			return nil, fmt.Errorf("%w: InvokeDynamic at index %d is not loadable",
				ErrInvalidPoolRef, index)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: constant %s at index %d is not loadable",
			ErrInvalidPoolRef, c.Tag(), index)
	}
}

func wrongTag(want ConstantTag, found Constant, index uint16) error {
	return fmt.Errorf("%w: expected %s at index %d, found %s",
		ErrInvalidPoolRef, want, index, found.Tag())
}

// ---------------------------------------------------------------------------
// Raw pass
// ---------------------------------------------------------------------------

// rawConstant is a pool entry as read off the wire, indices unresolved. Raw
// entries only live for the duration of resolution.
type rawConstant struct {
	tag  ConstantTag
	idx1 uint16 // first index operand, when present
	idx2 uint16 // second index operand, when present
	bits uint64 // numeric payload for Integer/Float/Long/Double
	str  string // decoded payload for Utf8
	kind MethodHandleKind
}

func readRawConstant(r *Reader) (rawConstant, error) {
	tag, err := r.ReadU8()
	if err != nil {
		return rawConstant{}, err
	}
	raw := rawConstant{tag: ConstantTag(tag)}
	switch raw.tag {
	case TagUtf8:
		length, err := r.ReadU16()
		if err != nil {
			return rawConstant{}, err
		}
		bytes, err := r.ReadBytes(int(length))
		if err != nil {
			return rawConstant{}, err
		}
		raw.str = decodeMUTF8(bytes)
	case TagInteger, TagFloat:
		v, err := r.ReadU32()
		if err != nil {
			return rawConstant{}, err
		}
		raw.bits = uint64(v)
	case TagLong, TagDouble:
		v, err := r.ReadU64()
		if err != nil {
			return rawConstant{}, err
		}
		raw.bits = v
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		v, err := r.ReadU16()
		if err != nil {
			return rawConstant{}, err
		}
		raw.idx1 = v
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef, TagNameAndType,
		TagDynamic, TagInvokeDynamic:
		v1, err := r.ReadU16()
		if err != nil {
			return rawConstant{}, err
		}
		v2, err := r.ReadU16()
		if err != nil {
			return rawConstant{}, err
		}
		raw.idx1, raw.idx2 = v1, v2
	case TagMethodHandle:
		kind, err := r.ReadU8()
		if err != nil {
			return rawConstant{}, err
		}
		if kind < uint8(RefGetField) || kind > uint8(RefInvokeInterface) {
			return rawConstant{}, fmt.Errorf("%w: method handle kind %d",
				ErrInvalidPoolRef, kind)
		}
		ref, err := r.ReadU16()
		if err != nil {
			return rawConstant{}, err
		}
		raw.kind = MethodHandleKind(kind)
		raw.idx1 = ref
	default:
		return rawConstant{}, fmt.Errorf("%w: unknown constant tag %d at offset %d",
			ErrInvalidPoolRef, tag, r.Offset()-1)
	}
	return raw, nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

type resolveState uint8

const (
	stateUnresolved resolveState = iota
	stateResolving
	stateResolved
)

// poolResolver turns raw entries into resolved constants. Resolution is
// memoized by original index; a tri-state mark catches self-referential and
// mutually-cyclic chains instead of recursing forever. Legitimate dependency
// chains are short (a MethodRef reaches a Utf8 in three hops) because every
// hop is tag-checked, so recursion depth stays bounded even on adversarial
// pools.
type poolResolver struct {
	raw   []rawConstant
	out   []Constant
	state []resolveState
}

// parseConstantPool reads pool_count slots and resolves every entry. The
// result is returned whole: on any failure the caller observes no partially
// resolved pool.
func parseConstantPool(r *Reader) (*ConstantPool, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: pool count 0", ErrInvalidPoolRef)
	}

	res := &poolResolver{
		raw:   make([]rawConstant, count),
		out:   make([]Constant, count),
		state: make([]resolveState, count),
	}

	// First pass: materialize raw entries. Long and Double occupy two index
	// slots; the second slot stays vacant.
	for i := 1; i < int(count); i++ {
		raw, err := readRawConstant(r)
		if err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, err)
		}
		res.raw[i] = raw
		if raw.tag == TagLong || raw.tag == TagDouble {
			i++
		}
	}

	// Second pass: resolve in index order, memoized.
	for i := 1; i < int(count); i++ {
		if res.raw[i].tag == 0 {
			continue
		}
		if _, err := res.resolve(uint16(i)); err != nil {
			return nil, err
		}
	}
	return &ConstantPool{entries: res.out}, nil
}

func (res *poolResolver) resolve(index uint16) (Constant, error) {
	if int(index) >= len(res.raw) || index == 0 || res.raw[index].tag == 0 {
		return nil, fmt.Errorf("%w: index %d out of range or vacant",
			ErrInvalidPoolRef, index)
	}
	switch res.state[index] {
	case stateResolved:
		return res.out[index], nil
	case stateResolving:
		return nil, fmt.Errorf("%w: cyclic reference through index %d",
			ErrInvalidPoolRef, index)
	}
	res.state[index] = stateResolving

	c, err := res.resolveRaw(index)
	if err != nil {
		return nil, err
	}
	res.out[index] = c
	res.state[index] = stateResolved
	return c, nil
}

func (res *poolResolver) utf8(index uint16) (string, error) {
	c, err := res.resolve(index)
	if err != nil {
		return "", err
	}
	u, ok := c.(*Utf8Const)
	if !ok {
		return "", wrongTag(TagUtf8, c, index)
	}
	return u.Value, nil
}

func (res *poolResolver) className(index uint16) (string, error) {
	c, err := res.resolve(index)
	if err != nil {
		return "", err
	}
	cc, ok := c.(*ClassConst)
	if !ok {
		return "", wrongTag(TagClass, c, index)
	}
	return cc.Name, nil
}

func (res *poolResolver) nameAndType(index uint16) (*NameAndTypeConst, error) {
	c, err := res.resolve(index)
	if err != nil {
		return nil, err
	}
	nt, ok := c.(*NameAndTypeConst)
	if !ok {
		return nil, wrongTag(TagNameAndType, c, index)
	}
	return nt, nil
}

func (res *poolResolver) resolveRaw(index uint16) (Constant, error) {
	raw := res.raw[index]
	switch raw.tag {
	case TagUtf8:
		return &Utf8Const{Value: raw.str}, nil
	case TagInteger:
		return &IntegerConst{Value: int32(uint32(raw.bits))}, nil
	case TagFloat:
		return &FloatConst{Value: math.Float32frombits(uint32(raw.bits))}, nil
	case TagLong:
		return &LongConst{Value: int64(raw.bits)}, nil
	case TagDouble:
		return &DoubleConst{Value: math.Float64frombits(raw.bits)}, nil
	case TagClass:
		name, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		return &ClassConst{Name: name}, nil
	case TagString:
		value, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		return &StringConst{Value: value}, nil
	case TagNameAndType:
		name, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		desc, err := res.utf8(raw.idx2)
		if err != nil {
			return nil, err
		}
		return &NameAndTypeConst{Name: name, Descriptor: desc}, nil
	case TagFieldRef:
		class, err := res.className(raw.idx1)
		if err != nil {
			return nil, err
		}
		nt, err := res.nameAndType(raw.idx2)
		if err != nil {
			return nil, err
		}
		return &FieldRefConst{Class: class, Name: nt.Name, Descriptor: nt.Descriptor}, nil
	case TagMethodRef, TagInterfaceMethodRef:
		class, err := res.className(raw.idx1)
		if err != nil {
			return nil, err
		}
		nt, err := res.nameAndType(raw.idx2)
		if err != nil {
			return nil, err
		}
		return &MethodRefConst{
			Class:      class,
			Name:       nt.Name,
			Descriptor: nt.Descriptor,
			Interface:  raw.tag == TagInterfaceMethodRef,
		}, nil
	case TagMethodHandle:
		ref, err := res.resolve(raw.idx1)
		if err != nil {
			return nil, err
		}
		switch raw.kind {
		case RefGetField, RefGetStatic, RefPutField, RefPutStatic:
			if _, ok := ref.(*FieldRefConst); !ok {
				return nil, wrongTag(TagFieldRef, ref, raw.idx1)
			}
		default:
			if _, ok := ref.(*MethodRefConst); !ok {
				return nil, wrongTag(TagMethodRef, ref, raw.idx1)
			}
		}
		return &MethodHandleConst{Kind: raw.kind, Ref: ref}, nil
	case TagMethodType:
		desc, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		return &MethodTypeConst{Descriptor: desc}, nil
	case TagDynamic, TagInvokeDynamic:
		nt, err := res.nameAndType(raw.idx2)
		if err != nil {
			return nil, err
		}
		return &DynamicConst{
			BootstrapIndex: raw.idx1,
			Name:           nt.Name,
			Descriptor:     nt.Descriptor,
			Invoke:         raw.tag == TagInvokeDynamic,
		}, nil
	case TagModule:
		name, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		return &ModuleConst{Name: name}, nil
	case TagPackage:
		name, err := res.utf8(raw.idx1)
		if err != nil {
			return nil, err
		}
		return &PackageConst{Name: name}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %d at index %d",
			ErrInvalidPoolRef, raw.tag, index)
	}
}
