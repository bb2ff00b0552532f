package classfile

import "fmt"

// Attribute is one parsed attribute. Attributes the parser has no structured
// form for survive as UnknownAttribute so callers still see them.
type Attribute interface {
	AttrName() string
}

// UnknownAttribute carries an attribute's raw payload verbatim.
type UnknownAttribute struct {
	Name string
	Data []byte
}

// SourceFileAttribute names the compilation unit a class came from.
type SourceFileAttribute struct {
	Value string
}

// SignatureAttribute is a generic-type signature on a class, field or
// method.
type SignatureAttribute struct {
	Value string
}

// ConstantValueAttribute is the initializer of a static final field.
type ConstantValueAttribute struct {
	Value Constant
}

// ExceptionsAttribute lists a method's declared checked exceptions.
type ExceptionsAttribute struct {
	Classes []string
}

// BootstrapMethod is one entry of the BootstrapMethods attribute.
type BootstrapMethod struct {
	Handle *MethodHandleConst
	Args   []Constant
}

// BootstrapMethodsAttribute holds the class-level bootstrap method table
// that Dynamic and InvokeDynamic constants index into.
type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

func (a *UnknownAttribute) AttrName() string          { return a.Name }
func (a *SourceFileAttribute) AttrName() string       { return "SourceFile" }
func (a *SignatureAttribute) AttrName() string        { return "Signature" }
func (a *ConstantValueAttribute) AttrName() string    { return "ConstantValue" }
func (a *ExceptionsAttribute) AttrName() string       { return "Exceptions" }
func (a *BootstrapMethodsAttribute) AttrName() string { return "BootstrapMethods" }

// AttrName makes decoded Code usable wherever attributes are listed.
func (c *Code) AttrName() string { return "Code" }

// attrSite is the structure an attribute hangs off. Dispatch is site
// dependent: a given name only gets its structured form at the site the
// format defines it for, anywhere else it stays unknown.
type attrSite uint8

const (
	siteClass attrSite = iota
	siteField
	siteMethod
)

// readAttribute reads the common attribute header and hands back the payload
// as a bounded sub-reader.
func readAttribute(r *Reader, pool *ConstantPool) (string, *Reader, error) {
	nameIdx, err := r.ReadU16()
	if err != nil {
		return "", nil, err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return "", nil, fmt.Errorf("attribute name: %w", err)
	}
	length, err := r.ReadU32()
	if err != nil {
		return "", nil, err
	}
	body, err := r.Sub(int(length))
	if err != nil {
		return "", nil, fmt.Errorf("attribute %s: %w", name, err)
	}
	return name, body, nil
}

// parseAttributes reads an attribute table at a class, field or method site.
func parseAttributes(r *Reader, pool *ConstantPool, site attrSite) ([]Attribute, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		name, body, err := readAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		attr, err := parseAttributeAt(name, body, pool, site)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func parseAttributeAt(name string, body *Reader, pool *ConstantPool, site attrSite) (Attribute, error) {
	switch {
	case name == "Signature":
		idx, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		v, err := pool.Utf8(idx)
		if err != nil {
			return nil, err
		}
		return &SignatureAttribute{Value: v}, nil

	case name == "SourceFile" && site == siteClass:
		idx, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		v, err := pool.Utf8(idx)
		if err != nil {
			return nil, err
		}
		return &SourceFileAttribute{Value: v}, nil

	case name == "BootstrapMethods" && site == siteClass:
		return parseBootstrapMethods(body, pool)

	case name == "ConstantValue" && site == siteField:
		idx, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		c, err := pool.Get(idx)
		if err != nil {
			return nil, err
		}
		switch c.(type) {
		case *IntegerConst, *FloatConst, *LongConst, *DoubleConst, *StringConst:
			return &ConstantValueAttribute{Value: c}, nil
		default:
			return nil, fmt.Errorf("%w: %s cannot be a field initializer", ErrInvalidPoolRef, c.Tag())
		}

	case name == "Exceptions" && site == siteMethod:
		n, err := body.ReadU16()
		if err != nil {
			return nil, err
		}
		a := &ExceptionsAttribute{Classes: make([]string, 0, n)}
		for i := 0; i < int(n); i++ {
			idx, err := body.ReadU16()
			if err != nil {
				return nil, err
			}
			cls, err := pool.ClassName(idx)
			if err != nil {
				return nil, err
			}
			a.Classes = append(a.Classes, cls)
		}
		return a, nil

	case name == "Code" && site == siteMethod:
		return parseCode(body, pool)

	default:
		return unknownAttribute(name, body)
	}
}

func parseBootstrapMethods(r *Reader, pool *ConstantPool) (*BootstrapMethodsAttribute, error) {
	n, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	a := &BootstrapMethodsAttribute{Methods: make([]BootstrapMethod, 0, n)}
	for i := 0; i < int(n); i++ {
		handleIdx, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		handle, err := pool.MethodHandle(handleIdx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
		}
		argc, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		m := BootstrapMethod{Handle: handle, Args: make([]Constant, 0, argc)}
		for j := 0; j < int(argc); j++ {
			idx, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			arg, err := pool.Get(idx)
			if err != nil {
				return nil, fmt.Errorf("bootstrap method %d argument %d: %w", i, j, err)
			}
			m.Args = append(m.Args, arg)
		}
		a.Methods = append(a.Methods, m)
	}
	return a, nil
}

func unknownAttribute(name string, body *Reader) (Attribute, error) {
	data, err := body.ReadBytes(body.Remaining())
	if err != nil {
		return nil, err
	}
	return &UnknownAttribute{Name: name, Data: data}, nil
}
