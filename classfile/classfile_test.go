package classfile

import (
	"bytes"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Test Helpers: Building class files
// ---------------------------------------------------------------------------

// testClassBuilder helps construct synthetic class files for parser tests.
// Pool helpers return the 1-based index of the entry they append.
type testClassBuilder struct {
	pool     bytes.Buffer
	poolNext uint16

	major      uint16
	access     uint16
	thisIdx    uint16
	superIdx   uint16
	interfaces []uint16
	fields     [][]byte
	methods    [][]byte
	attrs      [][]byte
}

func newTestClassBuilder() *testClassBuilder {
	return &testClassBuilder{poolNext: 1, major: MajorJava8, access: uint16(AccPublic)}
}

func be16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// rawEntry appends one pool entry verbatim and returns its index.
func (b *testClassBuilder) rawEntry(data ...byte) uint16 {
	idx := b.poolNext
	b.pool.Write(data)
	b.poolNext++
	return idx
}

func (b *testClassBuilder) utf8(s string) uint16 {
	entry := []byte{byte(TagUtf8)}
	entry = append(entry, be16(uint16(len(s)))...)
	entry = append(entry, s...)
	return b.rawEntry(entry...)
}

func (b *testClassBuilder) classAt(nameIdx uint16) uint16 {
	return b.rawEntry(append([]byte{byte(TagClass)}, be16(nameIdx)...)...)
}

func (b *testClassBuilder) class(name string) uint16 {
	return b.classAt(b.utf8(name))
}

func (b *testClassBuilder) integer(v int32) uint16 {
	return b.rawEntry(append([]byte{byte(TagInteger)}, be32(uint32(v))...)...)
}

func (b *testClassBuilder) long(v int64) uint16 {
	entry := []byte{byte(TagLong)}
	entry = append(entry, be32(uint32(uint64(v)>>32))...)
	entry = append(entry, be32(uint32(uint64(v)))...)
	idx := b.rawEntry(entry...)
	b.poolNext++ // phantom second slot
	return idx
}

func (b *testClassBuilder) str(s string) uint16 {
	return b.rawEntry(append([]byte{byte(TagString)}, be16(b.utf8(s))...)...)
}

func (b *testClassBuilder) nameAndType(name, desc string) uint16 {
	entry := []byte{byte(TagNameAndType)}
	entry = append(entry, be16(b.utf8(name))...)
	entry = append(entry, be16(b.utf8(desc))...)
	return b.rawEntry(entry...)
}

func (b *testClassBuilder) methodRef(class, name, desc string) uint16 {
	entry := []byte{byte(TagMethodRef)}
	entry = append(entry, be16(b.class(class))...)
	entry = append(entry, be16(b.nameAndType(name, desc))...)
	return b.rawEntry(entry...)
}

func (b *testClassBuilder) fieldRef(class, name, desc string) uint16 {
	entry := []byte{byte(TagFieldRef)}
	entry = append(entry, be16(b.class(class))...)
	entry = append(entry, be16(b.nameAndType(name, desc))...)
	return b.rawEntry(entry...)
}

func (b *testClassBuilder) setClass(this, super string) {
	b.thisIdx = b.class(this)
	if super != "" {
		b.superIdx = b.class(super)
	}
}

func (b *testClassBuilder) implement(name string) {
	b.interfaces = append(b.interfaces, b.class(name))
}

// attr assembles a named attribute: name index, length, body.
func (b *testClassBuilder) attr(name string, body []byte) []byte {
	out := be16(b.utf8(name))
	out = append(out, be32(uint32(len(body)))...)
	return append(out, body...)
}

type testHandler struct {
	start, end, handler, catchType uint16
}

// codeAttr assembles a Code attribute body around the given code array.
func (b *testClassBuilder) codeAttr(maxStack, maxLocals uint16, code []byte,
	handlers []testHandler, nested ...[]byte) []byte {

	var body []byte
	body = append(body, be16(maxStack)...)
	body = append(body, be16(maxLocals)...)
	body = append(body, be32(uint32(len(code)))...)
	body = append(body, code...)
	body = append(body, be16(uint16(len(handlers)))...)
	for _, h := range handlers {
		body = append(body, be16(h.start)...)
		body = append(body, be16(h.end)...)
		body = append(body, be16(h.handler)...)
		body = append(body, be16(h.catchType)...)
	}
	body = append(body, be16(uint16(len(nested)))...)
	for _, a := range nested {
		body = append(body, a...)
	}
	return b.attr("Code", body)
}

func memberBytes(access uint16, nameIdx, descIdx uint16, attrs [][]byte) []byte {
	var out []byte
	out = append(out, be16(access)...)
	out = append(out, be16(nameIdx)...)
	out = append(out, be16(descIdx)...)
	out = append(out, be16(uint16(len(attrs)))...)
	for _, a := range attrs {
		out = append(out, a...)
	}
	return out
}

func (b *testClassBuilder) addMethod(access uint16, name, desc string, attrs ...[]byte) {
	b.methods = append(b.methods, memberBytes(access, b.utf8(name), b.utf8(desc), attrs))
}

func (b *testClassBuilder) addField(access uint16, name, desc string, attrs ...[]byte) {
	b.fields = append(b.fields, memberBytes(access, b.utf8(name), b.utf8(desc), attrs))
}

func (b *testClassBuilder) addAttr(a []byte) {
	b.attrs = append(b.attrs, a)
}

func (b *testClassBuilder) bytes() []byte {
	var out []byte
	out = append(out, be32(Magic)...)
	out = append(out, be16(0)...) // minor
	out = append(out, be16(b.major)...)
	out = append(out, be16(b.poolNext)...)
	out = append(out, b.pool.Bytes()...)
	out = append(out, be16(b.access)...)
	out = append(out, be16(b.thisIdx)...)
	out = append(out, be16(b.superIdx)...)
	out = append(out, be16(uint16(len(b.interfaces)))...)
	for _, i := range b.interfaces {
		out = append(out, be16(i)...)
	}
	out = append(out, be16(uint16(len(b.fields)))...)
	for _, f := range b.fields {
		out = append(out, f...)
	}
	out = append(out, be16(uint16(len(b.methods)))...)
	for _, m := range b.methods {
		out = append(out, m...)
	}
	out = append(out, be16(uint16(len(b.attrs)))...)
	for _, a := range b.attrs {
		out = append(out, a...)
	}
	return out
}

// buildConstructorClass builds test/Foo with an empty <init>()V body:
// aload_0, invokespecial Object.<init>, return.
func buildConstructorClass() []byte {
	b := newTestClassBuilder()
	initRef := b.methodRef("java/lang/Object", "<init>", "()V")
	b.setClass("test/Foo", "java/lang/Object")
	code := []byte{OpAload0, OpInvokespecial}
	code = append(code, be16(initRef)...)
	code = append(code, OpReturn)
	b.addMethod(uint16(AccPublic), "<init>", "()V", b.codeAttr(1, 1, code, nil))
	return b.bytes()
}

// ---------------------------------------------------------------------------
// Class structure
// ---------------------------------------------------------------------------

func TestParseConstructorClass(t *testing.T) {
	cf, err := Parse(buildConstructorClass())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cf.Name != "test/Foo" {
		t.Errorf("expected name test/Foo, got %s", cf.Name)
	}
	if cf.SuperName != "java/lang/Object" {
		t.Errorf("expected super java/lang/Object, got %s", cf.SuperName)
	}
	if cf.Version.Major != MajorJava8 {
		t.Errorf("expected major %d, got %d", MajorJava8, cf.Version.Major)
	}
	if !cf.Access.Has(AccPublic) {
		t.Errorf("expected public access, got %s", cf.Access)
	}

	m := cf.Method("<init>", "()V")
	if m == nil {
		t.Fatalf("constructor not found")
	}
	if !m.IsConstructor() {
		t.Errorf("IsConstructor returned false for <init>")
	}
	if m.Code == nil {
		t.Fatalf("constructor has no code")
	}
	if len(m.Code.Entries) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(m.Code.Entries))
	}
	load, ok := m.Code.Entries[0].Insn.(*LocalLoad)
	if !ok || load.Kind != KindRef || load.Index != 0 {
		t.Errorf("expected aload_0, got %s", m.Code.Entries[0].Insn)
	}
	inv, ok := m.Code.Entries[1].Insn.(*Invoke)
	if !ok {
		t.Fatalf("expected invoke, got %s", m.Code.Entries[1].Insn)
	}
	if inv.Kind != InvokeSpecial || inv.Class != "java/lang/Object" ||
		inv.Name != "<init>" || inv.Descriptor != "()V" {
		t.Errorf("unexpected invoke: %s", inv)
	}
	ret, ok := m.Code.Entries[2].Insn.(*Return)
	if !ok || ret.Kind != TypeVoid {
		t.Errorf("expected return, got %s", m.Code.Entries[2].Insn)
	}
}

func TestParseLabelsDense(t *testing.T) {
	cf, err := Parse(buildConstructorClass())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	code := cf.Method("<init>", "()V").Code

	seen := make(map[Label]bool)
	for _, e := range code.Entries {
		if seen[e.Label] {
			t.Errorf("label %s assigned twice", e.Label)
		}
		seen[e.Label] = true
		if int(e.Label) >= code.Labels() {
			t.Errorf("label %s outside Labels() bound %d", e.Label, code.Labels())
		}
	}
	if seen[code.EndLabel] {
		t.Errorf("end label %s collides with an instruction label", code.EndLabel)
	}
}

func TestParseBadMagic(t *testing.T) {
	data := buildConstructorClass()
	data[0] = 0xde
	if _, err := Parse(data); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestParseUnsupportedVersion(t *testing.T) {
	for _, major := range []uint16{MinSupportedMajor - 1, MaxSupportedMajor + 1, 9999} {
		data := buildConstructorClass()
		data[6] = byte(major >> 8)
		data[7] = byte(major)
		if _, err := Parse(data); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("major %d: expected ErrUnsupportedVersion, got %v", major, err)
		}
	}
}

func TestParseTruncated(t *testing.T) {
	data := buildConstructorClass()
	for _, cut := range []int{3, 9, len(data) / 2, len(data) - 1} {
		if _, err := Parse(data[:cut]); err == nil {
			t.Errorf("cut at %d: expected error, got nil", cut)
		}
	}
}

func TestParseTrailingBytes(t *testing.T) {
	data := append(buildConstructorClass(), 0x00)
	if _, err := Parse(data); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestParseZeroThisClass(t *testing.T) {
	b := newTestClassBuilder()
	b.class("java/lang/Object")
	b.thisIdx = 0
	if _, err := Parse(b.bytes()); !errors.Is(err, ErrInvalidPoolRef) {
		t.Errorf("expected ErrInvalidPoolRef, got %v", err)
	}
}

func TestParseReaderMatchesParse(t *testing.T) {
	data := buildConstructorClass()
	cf, err := ParseReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseReader failed: %v", err)
	}
	if cf.Name != "test/Foo" {
		t.Errorf("expected name test/Foo, got %s", cf.Name)
	}
}

func TestParseInfo(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Impl", "java/lang/Object")
	b.implement("java/lang/Runnable")
	b.implement("java/io/Serializable")
	b.addMethod(uint16(AccPublic), "run", "()V", b.codeAttr(0, 1, []byte{OpReturn}, nil))

	info, err := ParseInfo(b.bytes())
	if err != nil {
		t.Fatalf("ParseInfo failed: %v", err)
	}
	if info.Name != "test/Impl" || info.SuperName != "java/lang/Object" {
		t.Errorf("unexpected names: %s / %s", info.Name, info.SuperName)
	}
	want := []string{"java/lang/Runnable", "java/io/Serializable"}
	if len(info.Interfaces) != len(want) {
		t.Fatalf("expected %d interfaces, got %d", len(want), len(info.Interfaces))
	}
	for i, name := range want {
		if info.Interfaces[i] != name {
			t.Errorf("interface %d: expected %s, got %s", i, name, info.Interfaces[i])
		}
	}
}

// ParseInfo stops after the interface list, so method bodies may be garbage.
func TestParseInfoIgnoresBody(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Broken", "java/lang/Object")
	data := append(b.bytes(), 0xff, 0xff, 0xff)
	if _, err := Parse(data); err == nil {
		t.Fatalf("Parse should reject trailing garbage")
	}
	info, err := ParseInfo(data)
	if err != nil {
		t.Fatalf("ParseInfo failed: %v", err)
	}
	if info.Name != "test/Broken" {
		t.Errorf("expected name test/Broken, got %s", info.Name)
	}
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

func TestSourceFileAttribute(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	b.addAttr(b.attr("SourceFile", be16(b.utf8("Foo.java"))))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := cf.SourceFile(); got != "Foo.java" {
		t.Errorf("expected SourceFile Foo.java, got %q", got)
	}
}

func TestConstantValueAttribute(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	b.addField(uint16(AccPublic|AccStatic|AccFinal), "LIMIT", "I",
		b.attr("ConstantValue", be16(b.integer(42))))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	f := cf.Field("LIMIT")
	if f == nil {
		t.Fatalf("field LIMIT not found")
	}
	cv := f.ConstantValue()
	if cv == nil {
		t.Fatalf("ConstantValue missing")
	}
	iv, ok := cv.(*IntegerConst)
	if !ok || iv.Value != 42 {
		t.Errorf("expected Integer 42, got %s", cv)
	}
}

func TestConstantValueWrongTag(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	nameIdx := b.utf8("not a loadable constant")
	b.addField(uint16(AccStatic), "BAD", "I", b.attr("ConstantValue", be16(nameIdx)))

	if _, err := Parse(b.bytes()); !errors.Is(err, ErrInvalidPoolRef) {
		t.Errorf("expected ErrInvalidPoolRef, got %v", err)
	}
}

func TestUnknownAttributeKept(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	b.addAttr(b.attr("Deprecated", nil))
	b.addAttr(b.attr("MadeUpAttribute", []byte{1, 2, 3}))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	var found *UnknownAttribute
	for _, a := range cf.Attrs {
		if u, ok := a.(*UnknownAttribute); ok && u.Name == "MadeUpAttribute" {
			found = u
		}
	}
	if found == nil {
		t.Fatalf("MadeUpAttribute not preserved")
	}
	if !bytes.Equal(found.Data, []byte{1, 2, 3}) {
		t.Errorf("attribute payload corrupted: %v", found.Data)
	}
}

func TestExceptionHandlers(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	ioexc := b.class("java/io/IOException")
	// 0: nop, 1: nop, 2: return, 3: athrow (handler)
	code := []byte{OpNop, OpNop, OpReturn, OpAthrow}
	handlers := []testHandler{
		{start: 0, end: 2, handler: 3, catchType: ioexc},
		{start: 0, end: 4, handler: 3, catchType: 0},
	}
	b.addMethod(uint16(AccPublic), "work", "()V", b.codeAttr(1, 1, code, handlers))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c := cf.Method("work", "()V").Code
	if len(c.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(c.Handlers))
	}
	if c.Handlers[0].CatchType != "java/io/IOException" {
		t.Errorf("expected IOException catch type, got %q", c.Handlers[0].CatchType)
	}
	if c.Handlers[1].CatchType != "" {
		t.Errorf("expected catch-all, got %q", c.Handlers[1].CatchType)
	}
	// The second handler closes on the end of the code array.
	if c.Handlers[1].End != c.EndLabel {
		t.Errorf("expected handler end %s, got %s", c.EndLabel, c.Handlers[1].End)
	}
}

func TestExceptionHandlerInsideInstruction(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	// bipush spans offsets 0-1, so offset 1 is not a boundary.
	code := []byte{OpBipush, 7, OpReturn}
	handlers := []testHandler{{start: 1, end: 2, handler: 2, catchType: 0}}
	b.addMethod(uint16(AccPublic), "bad", "()V", b.codeAttr(1, 1, code, handlers))

	if _, err := Parse(b.bytes()); !errors.Is(err, ErrInvalidJumpTarget) {
		t.Errorf("expected ErrInvalidJumpTarget, got %v", err)
	}
}

func TestLineNumberTableLenient(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	code := []byte{OpBipush, 7, OpPop, OpReturn}
	// Two entries: one valid at offset 0, one inside the bipush operand.
	var lnt []byte
	lnt = append(lnt, be16(2)...)
	lnt = append(lnt, be16(0)...)
	lnt = append(lnt, be16(10)...)
	lnt = append(lnt, be16(1)...)
	lnt = append(lnt, be16(11)...)
	b.addMethod(uint16(AccPublic), "lines", "()V",
		b.codeAttr(1, 1, code, nil, b.attr("LineNumberTable", lnt)))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	c := cf.Method("lines", "()V").Code
	if len(c.LineNumbers) != 1 {
		t.Fatalf("expected 1 surviving line entry, got %d", len(c.LineNumbers))
	}
	if c.LineNumbers[0].Line != 10 {
		t.Errorf("expected line 10, got %d", c.LineNumbers[0].Line)
	}
}

func TestMethodExceptions(t *testing.T) {
	b := newTestClassBuilder()
	b.setClass("test/Foo", "java/lang/Object")
	var body []byte
	body = append(body, be16(1)...)
	body = append(body, be16(b.class("java/io/IOException"))...)
	b.addMethod(uint16(AccPublic|AccAbstract), "read", "()I", b.attr("Exceptions", body))

	cf, err := Parse(b.bytes())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	m := cf.Method("read", "()I")
	if m == nil {
		t.Fatalf("method read not found")
	}
	if m.Code != nil {
		t.Errorf("abstract method should have no code")
	}
	exc := m.Exceptions()
	if len(exc) != 1 || exc[0] != "java/io/IOException" {
		t.Errorf("unexpected throws clause: %v", exc)
	}
}
