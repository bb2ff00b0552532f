package classfile

import "fmt"

// ---------------------------------------------------------------------------
// Label interning
// ---------------------------------------------------------------------------

// labelTable maps bytecode offsets to labels for one method. Labels are
// handed out densely in interning order; boundary records which offsets
// start an instruction.
type labelTable struct {
	byOffset map[uint32]Label
	boundary map[uint32]bool
}

func newLabelTable() *labelTable {
	return &labelTable{
		byOffset: make(map[uint32]Label),
		boundary: make(map[uint32]bool),
	}
}

func (t *labelTable) intern(off uint32) Label {
	if l, ok := t.byOffset[off]; ok {
		return l
	}
	l := Label(len(t.byOffset))
	t.byOffset[off] = l
	return l
}

func (t *labelTable) at(off uint32) (Label, bool) {
	l, ok := t.byOffset[off]
	return l, ok
}

// boundaryLabel maps a table entry's offset onto an existing boundary label.
// allowEnd admits the end-of-code offset, which handler ranges may close on.
func (t *labelTable) boundaryLabel(off, codeLen uint32, allowEnd bool) (Label, error) {
	if allowEnd && off == codeLen {
		return t.intern(off), nil
	}
	l, ok := t.at(off)
	if !ok || !t.boundary[off] {
		return 0, fmt.Errorf("%w: offset %d is not an instruction boundary", ErrInvalidJumpTarget, off)
	}
	return l, nil
}

// ---------------------------------------------------------------------------
// Instruction decoding
// ---------------------------------------------------------------------------

// codeDecoder walks one method's code array. start is the offset of the
// opcode currently being decoded; branch offsets are relative to it.
type codeDecoder struct {
	r       *Reader
	pool    *ConstantPool
	labels  *labelTable
	start   uint32
	codeLen uint32
}

// target interns the label for a branch displacement relative to the current
// opcode. Branches out of the code array, including to its end, are invalid.
func (d *codeDecoder) target(rel int64) (Label, error) {
	off := int64(d.start) + rel
	if off < 0 || off >= int64(d.codeLen) {
		return 0, fmt.Errorf("%w: branch to %d from offset %d", ErrInvalidJumpTarget, off, d.start)
	}
	return d.labels.intern(uint32(off)), nil
}

// decodeInstructions turns a raw code array into the semantic instruction
// stream. Every interned label is checked against the instruction boundaries
// once the stream ends.
func decodeInstructions(code []byte, pool *ConstantPool) ([]Entry, *labelTable, error) {
	d := &codeDecoder{
		r:       NewReader(code),
		pool:    pool,
		labels:  newLabelTable(),
		codeLen: uint32(len(code)),
	}
	var entries []Entry
	for d.r.Remaining() > 0 {
		d.start = uint32(d.r.Offset())
		d.labels.boundary[d.start] = true
		lbl := d.labels.intern(d.start)

		op, err := d.r.ReadU8()
		if err != nil {
			return nil, nil, err
		}
		fn := insnTable[op]
		if fn == nil {
			return nil, nil, fmt.Errorf("%w: opcode 0x%02x at offset %d", ErrUnknownOpcode, op, d.start)
		}
		insn, err := fn(d)
		if err != nil {
			return nil, nil, fmt.Errorf("offset %d: %w", d.start, err)
		}
		entries = append(entries, Entry{Label: lbl, Insn: insn})
	}
	for off := range d.labels.byOffset {
		if !d.labels.boundary[off] {
			return nil, nil, fmt.Errorf("%w: offset %d falls inside an instruction", ErrInvalidJumpTarget, off)
		}
	}
	return entries, d.labels, nil
}

// ---------------------------------------------------------------------------
// Code attribute
// ---------------------------------------------------------------------------

// parseCode decodes a Code attribute body: bounds, the code array, the
// exception table and nested attributes. Line and variable tables that point
// at offsets inside instructions are dropped rather than failing the method;
// they are debug data.
func parseCode(r *Reader, pool *ConstantPool) (*Code, error) {
	if err := r.Enter(); err != nil {
		return nil, err
	}
	defer r.Leave()

	maxStack, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	codeLen, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	codeBytes, err := r.ReadBytes(int(codeLen))
	if err != nil {
		return nil, err
	}
	entries, labels, err := decodeInstructions(codeBytes, pool)
	if err != nil {
		return nil, err
	}
	c := &Code{
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		Entries:   entries,
		EndLabel:  labels.intern(codeLen),
	}

	handlerCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(handlerCount); i++ {
		start, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		end, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		handler, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		catchIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		h := ExceptionHandler{}
		if h.Start, err = labels.boundaryLabel(uint32(start), codeLen, false); err != nil {
			return nil, fmt.Errorf("handler %d start: %w", i, err)
		}
		if h.End, err = labels.boundaryLabel(uint32(end), codeLen, true); err != nil {
			return nil, fmt.Errorf("handler %d end: %w", i, err)
		}
		if h.Handler, err = labels.boundaryLabel(uint32(handler), codeLen, false); err != nil {
			return nil, fmt.Errorf("handler %d target: %w", i, err)
		}
		if h.CatchType, err = pool.ClassName(catchIdx); err != nil {
			return nil, fmt.Errorf("handler %d catch type: %w", i, err)
		}
		c.Handlers = append(c.Handlers, h)
	}

	attrCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(attrCount); i++ {
		name, body, err := readAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		switch name {
		case "LineNumberTable":
			if err := parseLineNumbers(body, labels, c); err != nil {
				return nil, err
			}
		case "LocalVariableTable":
			if err := parseLocalVariables(body, pool, labels, codeLen, c); err != nil {
				return nil, err
			}
		default:
			attr, err := unknownAttribute(name, body)
			if err != nil {
				return nil, err
			}
			c.Attrs = append(c.Attrs, attr)
		}
	}
	return c, nil
}

func parseLineNumbers(r *Reader, labels *labelTable, c *Code) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		startPC, err := r.ReadU16()
		if err != nil {
			return err
		}
		line, err := r.ReadU16()
		if err != nil {
			return err
		}
		l, ok := labels.at(uint32(startPC))
		if !ok || !labels.boundary[uint32(startPC)] {
			continue
		}
		c.LineNumbers = append(c.LineNumbers, LineNumber{Start: l, Line: line})
	}
	return nil
}

func parseLocalVariables(r *Reader, pool *ConstantPool, labels *labelTable, codeLen uint32, c *Code) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		startPC, err := r.ReadU16()
		if err != nil {
			return err
		}
		length, err := r.ReadU16()
		if err != nil {
			return err
		}
		nameIdx, err := r.ReadU16()
		if err != nil {
			return err
		}
		descIdx, err := r.ReadU16()
		if err != nil {
			return err
		}
		index, err := r.ReadU16()
		if err != nil {
			return err
		}
		name, err := pool.Utf8(nameIdx)
		if err != nil {
			return err
		}
		desc, err := pool.Utf8(descIdx)
		if err != nil {
			return err
		}
		start, ok := labels.at(uint32(startPC))
		if !ok || !labels.boundary[uint32(startPC)] {
			continue
		}
		end, err := labels.boundaryLabel(uint32(startPC)+uint32(length), codeLen, true)
		if err != nil {
			continue
		}
		c.Locals = append(c.Locals, LocalVariable{
			Start:      start,
			End:        end,
			Name:       name,
			Descriptor: desc,
			Index:      index,
		})
	}
	return nil
}

// ---------------------------------------------------------------------------
// Opcode dispatch
// ---------------------------------------------------------------------------

type decodeFn func(d *codeDecoder) (Insn, error)

// insnTable maps each raw opcode to its operand-shape decoder. Nil slots are
// undefined opcodes.
var insnTable [256]decodeFn

var (
	nullValue = &NullConst{}

	insnNop          = &Nop{}
	insnSwap         = &Swap{}
	insnArrayLength  = &ArrayLength{}
	insnThrow        = &Throw{}
	insnMonitorEnter = &MonitorEnter{}
	insnMonitorExit  = &MonitorExit{}
	insnBreakpoint   = &Breakpoint{}
	insnImpDep1      = &ImpDep1{}
	insnImpDep2      = &ImpDep2{}
)

func fixed(i Insn) decodeFn {
	return func(*codeDecoder) (Insn, error) { return i, nil }
}

func loadInt(v int32) decodeFn {
	return fixed(&LoadConst{Value: &IntegerConst{Value: v}})
}

func loadLong(v int64) decodeFn {
	return fixed(&LoadConst{Value: &LongConst{Value: v}})
}

func loadFloat(v float32) decodeFn {
	return fixed(&LoadConst{Value: &FloatConst{Value: v}})
}

func loadDouble(v float64) decodeFn {
	return fixed(&LoadConst{Value: &DoubleConst{Value: v}})
}

func localLoadAt(kind PrimKind, index uint16) decodeFn {
	return fixed(&LocalLoad{Kind: kind, Index: index})
}

func localStoreAt(kind PrimKind, index uint16) decodeFn {
	return fixed(&LocalStore{Kind: kind, Index: index})
}

func localLoad(kind PrimKind) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		idx, err := d.r.ReadU8()
		if err != nil {
			return nil, err
		}
		return &LocalLoad{Kind: kind, Index: uint16(idx)}, nil
	}
}

func localStore(kind PrimKind) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		idx, err := d.r.ReadU8()
		if err != nil {
			return nil, err
		}
		return &LocalStore{Kind: kind, Index: uint16(idx)}, nil
	}
}

func arrayLoad(kind PrimKind) decodeFn  { return fixed(&ArrayLoad{Kind: kind}) }
func arrayStore(kind PrimKind) decodeFn { return fixed(&ArrayStore{Kind: kind}) }

func arith(op ArithOp, kind PrimKind) decodeFn {
	return fixed(&Arith{Op: op, Kind: kind})
}

func convert(from, to PrimKind) decodeFn {
	return fixed(&Convert{From: from, To: to})
}

func compare(kind PrimKind, nanPositive bool) decodeFn {
	return fixed(&Compare{Kind: kind, NaNIsPositive: nanPositive})
}

func dup(num, down uint8) decodeFn {
	return fixed(&Dup{Num: num, Down: down})
}

func returnOf(kind TypeKind) decodeFn {
	return fixed(&Return{Kind: kind})
}

func condJump(cond JumpCondition) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		rel, err := d.r.ReadI16()
		if err != nil {
			return nil, err
		}
		target, err := d.target(int64(rel))
		if err != nil {
			return nil, err
		}
		return &CondJump{Cond: cond, Target: target}, nil
	}
}

func fieldAccess(get, instance bool) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		ref, err := d.pool.FieldRef(idx)
		if err != nil {
			return nil, err
		}
		if get {
			return &GetField{Instance: instance, Class: ref.Class, Name: ref.Name, Descriptor: ref.Descriptor}, nil
		}
		return &PutField{Instance: instance, Class: ref.Class, Name: ref.Name, Descriptor: ref.Descriptor}, nil
	}
}

func invoke(kind InvokeKind, trailing int) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		ref, err := d.pool.AnyMethodRef(idx)
		if err != nil {
			return nil, err
		}
		if err := d.r.Skip(trailing); err != nil {
			return nil, err
		}
		return &Invoke{
			Kind:            kind,
			Class:           ref.Class,
			Name:            ref.Name,
			Descriptor:      ref.Descriptor,
			InterfaceMethod: ref.Interface,
		}, nil
	}
}

func classRef(make func(name string) Insn) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		cc, err := d.pool.Class(idx)
		if err != nil {
			return nil, err
		}
		return make(cc.Name), nil
	}
}

func ldc(wide, twoByte bool) decodeFn {
	return func(d *codeDecoder) (Insn, error) {
		var idx uint16
		if twoByte {
			v, err := d.r.ReadU16()
			if err != nil {
				return nil, err
			}
			idx = v
		} else {
			v, err := d.r.ReadU8()
			if err != nil {
				return nil, err
			}
			idx = uint16(v)
		}
		c, err := d.pool.Loadable(idx, wide)
		if err != nil {
			return nil, err
		}
		return &LoadConst{Value: c}, nil
	}
}

func rejectSubroutine(*codeDecoder) (Insn, error) {
	return nil, fmt.Errorf("%w: jsr/ret subroutines are not supported", ErrUnknownOpcode)
}

func decodeBipush(d *codeDecoder) (Insn, error) {
	v, err := d.r.ReadI8()
	if err != nil {
		return nil, err
	}
	return &LoadConst{Value: &IntegerConst{Value: int32(v)}}, nil
}

func decodeSipush(d *codeDecoder) (Insn, error) {
	v, err := d.r.ReadI16()
	if err != nil {
		return nil, err
	}
	return &LoadConst{Value: &IntegerConst{Value: int32(v)}}, nil
}

func decodeIinc(d *codeDecoder) (Insn, error) {
	idx, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	amount, err := d.r.ReadI8()
	if err != nil {
		return nil, err
	}
	return &IncrementInt{Index: uint16(idx), Amount: int16(amount)}, nil
}

func decodeGoto(d *codeDecoder) (Insn, error) {
	rel, err := d.r.ReadI16()
	if err != nil {
		return nil, err
	}
	target, err := d.target(int64(rel))
	if err != nil {
		return nil, err
	}
	return &Jump{Target: target}, nil
}

func decodeGotoW(d *codeDecoder) (Insn, error) {
	rel, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	target, err := d.target(int64(rel))
	if err != nil {
		return nil, err
	}
	return &Jump{Target: target}, nil
}

// alignSwitch skips the pad bytes that realign tableswitch/lookupswitch
// operands to a 4-byte boundary relative to the start of the code array.
func (d *codeDecoder) alignSwitch() error {
	pad := int((4 - (d.start+1)%4) % 4)
	return d.r.Skip(pad)
}

func decodeTableSwitch(d *codeDecoder) (Insn, error) {
	if err := d.alignSwitch(); err != nil {
		return nil, err
	}
	def, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	low, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	high, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if high < low {
		return nil, fmt.Errorf("%w: tableswitch range [%d, %d] is reversed", ErrInvalidJumpTarget, low, high)
	}
	count := int64(high) - int64(low) + 1
	if count > int64(d.r.Remaining())/4 {
		return nil, fmt.Errorf("%w: tableswitch declares %d cases", ErrTruncatedInput, count)
	}
	insn := &TableSwitch{Low: low, Targets: make([]Label, 0, count)}
	if insn.Default, err = d.target(int64(def)); err != nil {
		return nil, err
	}
	for i := int64(0); i < count; i++ {
		rel, err := d.r.ReadI32()
		if err != nil {
			return nil, err
		}
		target, err := d.target(int64(rel))
		if err != nil {
			return nil, err
		}
		insn.Targets = append(insn.Targets, target)
	}
	return insn, nil
}

func decodeLookupSwitch(d *codeDecoder) (Insn, error) {
	if err := d.alignSwitch(); err != nil {
		return nil, err
	}
	def, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	npairs, err := d.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if npairs < 0 {
		return nil, fmt.Errorf("%w: lookupswitch declares %d pairs", ErrTruncatedInput, npairs)
	}
	if int64(npairs) > int64(d.r.Remaining())/8 {
		return nil, fmt.Errorf("%w: lookupswitch declares %d pairs", ErrTruncatedInput, npairs)
	}
	insn := &LookupSwitch{Cases: make([]SwitchCase, 0, npairs)}
	if insn.Default, err = d.target(int64(def)); err != nil {
		return nil, err
	}
	for i := int32(0); i < npairs; i++ {
		match, err := d.r.ReadI32()
		if err != nil {
			return nil, err
		}
		rel, err := d.r.ReadI32()
		if err != nil {
			return nil, err
		}
		target, err := d.target(int64(rel))
		if err != nil {
			return nil, err
		}
		insn.Cases = append(insn.Cases, SwitchCase{Match: match, Target: target})
	}
	return insn, nil
}

func decodeInvokeDynamic(d *codeDecoder) (Insn, error) {
	idx, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	dyn, err := d.pool.InvokeDynamic(idx)
	if err != nil {
		return nil, err
	}
	if err := d.r.Skip(2); err != nil {
		return nil, err
	}
	return &InvokeDynamic{
		Name:           dyn.Name,
		Descriptor:     dyn.Descriptor,
		BootstrapIndex: dyn.BootstrapIndex,
	}, nil
}

func decodeNewarray(d *codeDecoder) (Insn, error) {
	atype, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	var kind TypeKind
	switch atype {
	case arrayTypeBoolean:
		kind = TypeBoolean
	case arrayTypeChar:
		kind = TypeChar
	case arrayTypeFloat:
		kind = TypeFloat
	case arrayTypeDouble:
		kind = TypeDouble
	case arrayTypeByte:
		kind = TypeByte
	case arrayTypeShort:
		kind = TypeShort
	case arrayTypeInt:
		kind = TypeInt
	case arrayTypeLong:
		kind = TypeLong
	default:
		return nil, fmt.Errorf("%w: newarray type %d", ErrUnknownOpcode, atype)
	}
	return &NewArray{Elem: Type{Kind: kind}}, nil
}

func decodeAnewarray(d *codeDecoder) (Insn, error) {
	idx, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := d.pool.ClassName(idx)
	if err != nil {
		return nil, err
	}
	// A Class constant naming an array holds the full descriptor rather
	// than an internal name.
	if len(name) > 0 && name[0] == '[' {
		elem, err := ParseType(name)
		if err != nil {
			return nil, err
		}
		return &NewArray{Elem: elem}, nil
	}
	return &NewArray{Elem: Type{Kind: TypeReference, ClassName: name}}, nil
}

func decodeMultianewarray(d *codeDecoder) (Insn, error) {
	idx, err := d.r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := d.pool.ClassName(idx)
	if err != nil {
		return nil, err
	}
	dims, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	return &MultiNewArray{ClassName: name, Dims: dims}, nil
}

// decodeWide handles the wide prefix: the modified opcode follows with
// 16-bit operands.
func decodeWide(d *codeDecoder) (Insn, error) {
	op, err := d.r.ReadU8()
	if err != nil {
		return nil, err
	}
	kindFor := func(base uint8) PrimKind {
		switch base {
		case OpIload, OpIstore:
			return KindInt
		case OpLload, OpLstore:
			return KindLong
		case OpFload, OpFstore:
			return KindFloat
		case OpDload, OpDstore:
			return KindDouble
		default:
			return KindRef
		}
	}
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload:
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &LocalLoad{Kind: kindFor(op), Index: idx}, nil
	case OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		return &LocalStore{Kind: kindFor(op), Index: idx}, nil
	case OpIinc:
		idx, err := d.r.ReadU16()
		if err != nil {
			return nil, err
		}
		amount, err := d.r.ReadI16()
		if err != nil {
			return nil, err
		}
		return &IncrementInt{Index: idx, Amount: amount}, nil
	case OpRet:
		return rejectSubroutine(d)
	default:
		return nil, fmt.Errorf("%w: wide prefix on opcode 0x%02x", ErrUnknownOpcode, op)
	}
}

func init() {
	t := &insnTable

	t[OpNop] = fixed(insnNop)
	t[OpAconstNull] = fixed(&LoadConst{Value: nullValue})
	t[OpIconstM1] = loadInt(-1)
	t[OpIconst0] = loadInt(0)
	t[OpIconst1] = loadInt(1)
	t[OpIconst2] = loadInt(2)
	t[OpIconst3] = loadInt(3)
	t[OpIconst4] = loadInt(4)
	t[OpIconst5] = loadInt(5)
	t[OpLconst0] = loadLong(0)
	t[OpLconst1] = loadLong(1)
	t[OpFconst0] = loadFloat(0)
	t[OpFconst1] = loadFloat(1)
	t[OpFconst2] = loadFloat(2)
	t[OpDconst0] = loadDouble(0)
	t[OpDconst1] = loadDouble(1)
	t[OpBipush] = decodeBipush
	t[OpSipush] = decodeSipush
	t[OpLdc] = ldc(false, false)
	t[OpLdcW] = ldc(false, true)
	t[OpLdc2W] = ldc(true, true)

	t[OpIload] = localLoad(KindInt)
	t[OpLload] = localLoad(KindLong)
	t[OpFload] = localLoad(KindFloat)
	t[OpDload] = localLoad(KindDouble)
	t[OpAload] = localLoad(KindRef)
	for i := uint16(0); i < 4; i++ {
		t[OpIload0+i] = localLoadAt(KindInt, i)
		t[OpLload0+i] = localLoadAt(KindLong, i)
		t[OpFload0+i] = localLoadAt(KindFloat, i)
		t[OpDload0+i] = localLoadAt(KindDouble, i)
		t[OpAload0+i] = localLoadAt(KindRef, i)
		t[OpIstore0+i] = localStoreAt(KindInt, i)
		t[OpLstore0+i] = localStoreAt(KindLong, i)
		t[OpFstore0+i] = localStoreAt(KindFloat, i)
		t[OpDstore0+i] = localStoreAt(KindDouble, i)
		t[OpAstore0+i] = localStoreAt(KindRef, i)
	}
	t[OpIstore] = localStore(KindInt)
	t[OpLstore] = localStore(KindLong)
	t[OpFstore] = localStore(KindFloat)
	t[OpDstore] = localStore(KindDouble)
	t[OpAstore] = localStore(KindRef)

	t[OpIaload] = arrayLoad(KindInt)
	t[OpLaload] = arrayLoad(KindLong)
	t[OpFaload] = arrayLoad(KindFloat)
	t[OpDaload] = arrayLoad(KindDouble)
	t[OpAaload] = arrayLoad(KindRef)
	t[OpBaload] = arrayLoad(KindByte)
	t[OpCaload] = arrayLoad(KindChar)
	t[OpSaload] = arrayLoad(KindShort)
	t[OpIastore] = arrayStore(KindInt)
	t[OpLastore] = arrayStore(KindLong)
	t[OpFastore] = arrayStore(KindFloat)
	t[OpDastore] = arrayStore(KindDouble)
	t[OpAastore] = arrayStore(KindRef)
	t[OpBastore] = arrayStore(KindByte)
	t[OpCastore] = arrayStore(KindChar)
	t[OpSastore] = arrayStore(KindShort)

	t[OpPop] = fixed(&Pop{})
	t[OpPop2] = fixed(&Pop{Two: true})
	t[OpDup] = dup(1, 0)
	t[OpDupX1] = dup(1, 1)
	t[OpDupX2] = dup(1, 2)
	t[OpDup2] = dup(2, 0)
	t[OpDup2X1] = dup(2, 1)
	t[OpDup2X2] = dup(2, 2)
	t[OpSwap] = fixed(insnSwap)

	t[OpIadd] = arith(OpAdd, KindInt)
	t[OpLadd] = arith(OpAdd, KindLong)
	t[OpFadd] = arith(OpAdd, KindFloat)
	t[OpDadd] = arith(OpAdd, KindDouble)
	t[OpIsub] = arith(OpSub, KindInt)
	t[OpLsub] = arith(OpSub, KindLong)
	t[OpFsub] = arith(OpSub, KindFloat)
	t[OpDsub] = arith(OpSub, KindDouble)
	t[OpImul] = arith(OpMul, KindInt)
	t[OpLmul] = arith(OpMul, KindLong)
	t[OpFmul] = arith(OpMul, KindFloat)
	t[OpDmul] = arith(OpMul, KindDouble)
	t[OpIdiv] = arith(OpDiv, KindInt)
	t[OpLdiv] = arith(OpDiv, KindLong)
	t[OpFdiv] = arith(OpDiv, KindFloat)
	t[OpDdiv] = arith(OpDiv, KindDouble)
	t[OpIrem] = arith(OpRem, KindInt)
	t[OpLrem] = arith(OpRem, KindLong)
	t[OpFrem] = arith(OpRem, KindFloat)
	t[OpDrem] = arith(OpRem, KindDouble)
	t[OpIneg] = arith(OpNeg, KindInt)
	t[OpLneg] = arith(OpNeg, KindLong)
	t[OpFneg] = arith(OpNeg, KindFloat)
	t[OpDneg] = arith(OpNeg, KindDouble)
	t[OpIshl] = arith(OpShl, KindInt)
	t[OpLshl] = arith(OpShl, KindLong)
	t[OpIshr] = arith(OpShr, KindInt)
	t[OpLshr] = arith(OpShr, KindLong)
	t[OpIushr] = arith(OpUshr, KindInt)
	t[OpLushr] = arith(OpUshr, KindLong)
	t[OpIand] = arith(OpAnd, KindInt)
	t[OpLand] = arith(OpAnd, KindLong)
	t[OpIor] = arith(OpOr, KindInt)
	t[OpLor] = arith(OpOr, KindLong)
	t[OpIxor] = arith(OpXor, KindInt)
	t[OpLxor] = arith(OpXor, KindLong)
	t[OpIinc] = decodeIinc

	t[OpI2l] = convert(KindInt, KindLong)
	t[OpI2f] = convert(KindInt, KindFloat)
	t[OpI2d] = convert(KindInt, KindDouble)
	t[OpL2i] = convert(KindLong, KindInt)
	t[OpL2f] = convert(KindLong, KindFloat)
	t[OpL2d] = convert(KindLong, KindDouble)
	t[OpF2i] = convert(KindFloat, KindInt)
	t[OpF2l] = convert(KindFloat, KindLong)
	t[OpF2d] = convert(KindFloat, KindDouble)
	t[OpD2i] = convert(KindDouble, KindInt)
	t[OpD2l] = convert(KindDouble, KindLong)
	t[OpD2f] = convert(KindDouble, KindFloat)
	t[OpI2b] = convert(KindInt, KindByte)
	t[OpI2c] = convert(KindInt, KindChar)
	t[OpI2s] = convert(KindInt, KindShort)

	t[OpLcmp] = compare(KindLong, false)
	t[OpFcmpl] = compare(KindFloat, false)
	t[OpFcmpg] = compare(KindFloat, true)
	t[OpDcmpl] = compare(KindDouble, false)
	t[OpDcmpg] = compare(KindDouble, true)

	t[OpIfeq] = condJump(CondIntEqZero)
	t[OpIfne] = condJump(CondIntNotEqZero)
	t[OpIflt] = condJump(CondIntLessThanZero)
	t[OpIfge] = condJump(CondIntGreaterThanOrEqZero)
	t[OpIfgt] = condJump(CondIntGreaterThanZero)
	t[OpIfle] = condJump(CondIntLessThanOrEqZero)
	t[OpIfIcmpeq] = condJump(CondIntsEq)
	t[OpIfIcmpne] = condJump(CondIntsNotEq)
	t[OpIfIcmplt] = condJump(CondIntsLessThan)
	t[OpIfIcmpge] = condJump(CondIntsGreaterThanOrEq)
	t[OpIfIcmpgt] = condJump(CondIntsGreaterThan)
	t[OpIfIcmple] = condJump(CondIntsLessThanOrEq)
	t[OpIfAcmpeq] = condJump(CondRefsEqual)
	t[OpIfAcmpne] = condJump(CondRefsNotEqual)
	t[OpIfnull] = condJump(CondIsNull)
	t[OpIfnonnull] = condJump(CondNotNull)
	t[OpGoto] = decodeGoto
	t[OpGotoW] = decodeGotoW
	t[OpJsr] = rejectSubroutine
	t[OpJsrW] = rejectSubroutine
	t[OpRet] = rejectSubroutine
	t[OpTableswitch] = decodeTableSwitch
	t[OpLookupswitch] = decodeLookupSwitch

	t[OpIreturn] = returnOf(TypeInt)
	t[OpLreturn] = returnOf(TypeLong)
	t[OpFreturn] = returnOf(TypeFloat)
	t[OpDreturn] = returnOf(TypeDouble)
	t[OpAreturn] = returnOf(TypeReference)
	t[OpReturn] = returnOf(TypeVoid)

	t[OpGetstatic] = fieldAccess(true, false)
	t[OpPutstatic] = fieldAccess(false, false)
	t[OpGetfield] = fieldAccess(true, true)
	t[OpPutfield] = fieldAccess(false, true)
	t[OpInvokevirtual] = invoke(InvokeVirtual, 0)
	t[OpInvokespecial] = invoke(InvokeSpecial, 0)
	t[OpInvokestatic] = invoke(InvokeStatic, 0)
	t[OpInvokeinterface] = invoke(InvokeInterface, 2)
	t[OpInvokedynamic] = decodeInvokeDynamic

	t[OpNew] = classRef(func(name string) Insn { return &NewObject{ClassName: name} })
	t[OpNewarray] = decodeNewarray
	t[OpAnewarray] = decodeAnewarray
	t[OpArraylength] = fixed(insnArrayLength)
	t[OpAthrow] = fixed(insnThrow)
	t[OpCheckcast] = classRef(func(name string) Insn { return &CheckCast{ClassName: name} })
	t[OpInstanceof] = classRef(func(name string) Insn { return &InstanceOf{ClassName: name} })
	t[OpMonitorenter] = fixed(insnMonitorEnter)
	t[OpMonitorexit] = fixed(insnMonitorExit)
	t[OpWide] = decodeWide
	t[OpMultianewarray] = decodeMultianewarray
	t[OpBreakpoint] = fixed(insnBreakpoint)
	t[OpImpdep1] = fixed(insnImpDep1)
	t[OpImpdep2] = fixed(insnImpDep2)
}
