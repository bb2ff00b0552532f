package classfile

import "fmt"

// Field is one field_info record with its name and descriptor resolved.
type Field struct {
	Access     AccessFlags
	Name       string
	Descriptor Type
	Attrs      []Attribute
}

func parseField(r *Reader, pool *ConstantPool) (*Field, error) {
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
		return nil, fmt.Errorf("field name: %w", err)
	}
	descIdx, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	descStr, err := pool.Utf8(descIdx)
	if err != nil {
		return nil, fmt.Errorf("field %s descriptor: %w", name, err)
	}
	desc, err := ParseType(descStr)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	attrs, err := parseAttributes(r, pool, siteField)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return &Field{Access: access, Name: name, Descriptor: desc, Attrs: attrs}, nil
}

// ConstantValue returns the field's static initializer, or nil when it has
// none.
func (f *Field) ConstantValue() Constant {
	for _, a := range f.Attrs {
		if cv, ok := a.(*ConstantValueAttribute); ok {
			return cv.Value
		}
	}
	return nil
}

// Signature returns the field's generic signature, or "".
func (f *Field) Signature() string {
	for _, a := range f.Attrs {
		if s, ok := a.(*SignatureAttribute); ok {
			return s.Value
		}
	}
	return ""
}

func (f *Field) String() string {
	return fmt.Sprintf("%s %s %s", f.Access, f.Descriptor, f.Name)
}
