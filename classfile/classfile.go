package classfile

import (
	"fmt"
	"io"
)

// Magic is the four-byte signature every class file starts with.
const Magic uint32 = 0xCAFEBABE

// ClassFile is a fully decoded class file. Everything index-shaped in the
// format has been resolved: pool entries hold values, instructions hold
// labels, names are strings.
type ClassFile struct {
	Version    Version
	Pool       *ConstantPool
	Access     AccessFlags
	Name       string
	SuperName  string // "" for java/lang/Object and module-info
	Interfaces []string
	Fields     []*Field
	Methods    []*Method
	Attrs      []Attribute
}

// Info is the identity header of a class file, cheap to extract without
// decoding method bodies. ParseInfo fills it.
type Info struct {
	Version    Version
	Access     AccessFlags
	Name       string
	SuperName  string
	Interfaces []string
}

// Parse decodes a complete class file from raw bytes.
func Parse(data []byte) (*ClassFile, error) {
	return parseClass(NewReader(data), false)
}

// ParseReader decodes a complete class file from an io.Reader by buffering
// it first; class files are small and operand sizes are only known after
// reading, so streaming buys nothing.
func ParseReader(src io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// ParseInfo decodes only the class identity: version, access flags, class,
// superclass and interface names. The constant pool is still parsed in full
// since the names live there, but fields, methods and attributes are never
// touched.
func ParseInfo(data []byte) (*Info, error) {
	cf, err := parseClass(NewReader(data), true)
	if err != nil {
		return nil, err
	}
	return &Info{
		Version:    cf.Version,
		Access:     cf.Access,
		Name:       cf.Name,
		SuperName:  cf.SuperName,
		Interfaces: cf.Interfaces,
	}, nil
}

func parseClass(r *Reader, headerOnly bool) (*ClassFile, error) {
	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidMagic, magic)
	}
	version, err := readVersion(r)
	if err != nil {
		return nil, err
	}
	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, fmt.Errorf("constant pool: %w", err)
	}
	access, err := readAccessFlags(r)
	if err != nil {
		return nil, err
	}
	thisIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := pool.ClassName(thisIdx)
	if err != nil || name == "" {
		if err == nil {
			err = fmt.Errorf("%w: this_class index is zero", ErrInvalidPoolRef)
		}
		return nil, fmt.Errorf("this_class: %w", err)
	}
	superIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	superName, err := pool.ClassName(superIdx)
	if err != nil {
		return nil, fmt.Errorf("super_class: %w", err)
	}

	cf := &ClassFile{
		Version:   version,
		Pool:      pool,
		Access:    access,
		Name:      name,
		SuperName: superName,
	}
	ifaceCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]string, 0, ifaceCount)
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		iface, err := pool.ClassName(idx)
		if err != nil {
			return nil, fmt.Errorf("interface %d: %w", i, err)
		}
		cf.Interfaces = append(cf.Interfaces, iface)
	}
	if headerOnly {
		return cf, nil
	}

	fieldCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cf.Fields = make([]*Field, 0, fieldCount)
	for i := 0; i < int(fieldCount); i++ {
		f, err := parseField(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Fields = append(cf.Fields, f)
	}

	methodCount, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	cf.Methods = make([]*Method, 0, methodCount)
	for i := 0; i < int(methodCount); i++ {
		m, err := parseMethod(r, pool)
		if err != nil {
			return nil, err
		}
		cf.Methods = append(cf.Methods, m)
	}

	cf.Attrs, err = parseAttributes(r, pool, siteClass)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingBytes, r.Remaining())
	}
	return cf, nil
}

// SourceFile returns the class's SourceFile attribute value, or "".
func (cf *ClassFile) SourceFile() string {
	for _, a := range cf.Attrs {
		if s, ok := a.(*SourceFileAttribute); ok {
			return s.Value
		}
	}
	return ""
}

// BootstrapMethods returns the class's bootstrap method table, or nil.
func (cf *ClassFile) BootstrapMethods() []BootstrapMethod {
	for _, a := range cf.Attrs {
		if b, ok := a.(*BootstrapMethodsAttribute); ok {
			return b.Methods
		}
	}
	return nil
}

// Method returns the first method matching name and descriptor string, or
// nil.
func (cf *ClassFile) Method(name, descriptor string) *Method {
	for _, m := range cf.Methods {
		if m.Name == name && m.Descriptor.String() == descriptor {
			return m
		}
	}
	return nil
}

// Field returns the field with the given name, or nil.
func (cf *ClassFile) Field(name string) *Field {
	for _, f := range cf.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
