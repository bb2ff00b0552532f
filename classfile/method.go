package classfile

import "fmt"

// Method is one method_info record. Code is nil for abstract and native
// methods.
type Method struct {
	Access     AccessFlags
	Name       string
	Descriptor MethodDescriptor
	Code       *Code
	Attrs      []Attribute
}

func parseMethod(r *Reader, pool *ConstantPool) (*Method, error) {
	access, err := readAccessFlags(r)
	if err != nil {
		return nil, err
	}
	nameIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return nil, fmt.Errorf("method name: %w", err)
	}
	descIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	descStr, err := pool.Utf8(descIdx)
	if err != nil {
		return nil, fmt.Errorf("method %s descriptor: %w", name, err)
	}
	desc, err := ParseMethodDescriptor(descStr)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	attrs, err := parseAttributes(r, pool, siteMethod)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	m := &Method{Access: access, Name: name, Descriptor: desc, Attrs: attrs}
	for _, a := range attrs {
		if c, ok := a.(*Code); ok {
			m.Code = c
			break
		}
	}
	return m, nil
}

// Exceptions returns the method's declared checked exceptions.
func (m *Method) Exceptions() []string {
	for _, a := range m.Attrs {
		if e, ok := a.(*ExceptionsAttribute); ok {
			return e.Classes
		}
	}
	return nil
}

// Signature returns the method's generic signature, or "".
func (m *Method) Signature() string {
	for _, a := range m.Attrs {
		if s, ok := a.(*SignatureAttribute); ok {
			return s.Value
		}
	}
	return ""
}

// IsConstructor reports whether the method is an instance initializer.
func (m *Method) IsConstructor() bool {
	return m.Name == "<init>"
}

func (m *Method) String() string {
	return fmt.Sprintf("%s %s%s", m.Access, m.Name, m.Descriptor)
}
