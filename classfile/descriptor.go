package classfile

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Descriptors
// ---------------------------------------------------------------------------

// TypeKind classifies a descriptor type token.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBoolean
	TypeByte
	TypeChar
	TypeShort
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeReference
	TypeArray
)

func (k TypeKind) String() string {
	switch k {
	case TypeVoid:
		return "void"
	case TypeBoolean:
		return "boolean"
	case TypeByte:
		return "byte"
	case TypeChar:
		return "char"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeReference:
		return "reference"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// Type is a structured descriptor type token. ClassName is set for
// TypeReference; Elem for TypeArray. The name is an opaque internal name
// ("java/lang/String"); this package assigns no further meaning to it.
type Type struct {
	Kind      TypeKind
	ClassName string
	Elem      *Type
}

// Size returns the type's width in stack/local slots: 0 for void, 2 for
// long and double, 1 otherwise.
func (t Type) Size() int {
	switch t.Kind {
	case TypeVoid:
		return 0
	case TypeLong, TypeDouble:
		return 2
	default:
		return 1
	}
}

// Descriptor renders the type back into descriptor syntax.
func (t Type) Descriptor() string {
	switch t.Kind {
	case TypeVoid:
		return "V"
	case TypeBoolean:
		return "Z"
	case TypeByte:
		return "B"
	case TypeChar:
		return "C"
	case TypeShort:
		return "S"
	case TypeInt:
		return "I"
	case TypeLong:
		return "J"
	case TypeFloat:
		return "F"
	case TypeDouble:
		return "D"
	case TypeReference:
		return "L" + t.ClassName + ";"
	case TypeArray:
		return "[" + t.Elem.Descriptor()
	default:
		return "?"
	}
}

func (t Type) String() string {
	switch t.Kind {
	case TypeReference:
		return t.ClassName
	case TypeArray:
		return t.Elem.String() + "[]"
	default:
		return t.Kind.String()
	}
}

// MethodDescriptor is a parsed method descriptor.
type MethodDescriptor struct {
	Params []Type
	Return Type
}

// SlotCount returns the number of local slots the parameters occupy, long
// and double counting double.
func (d MethodDescriptor) SlotCount() int {
	n := 0
	for _, p := range d.Params {
		n += p.Size()
	}
	return n
}

func (d MethodDescriptor) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range d.Params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	b.WriteString(d.Return.Descriptor())
	return b.String()
}

// Array dimensions beyond this are rejected; the format caps them at 255.
const maxArrayDims = 255

// ParseType parses a single field descriptor ("I", "[[J",
// "Ljava/lang/String;").
func ParseType(desc string) (Type, error) {
	t, rest, err := parseType(desc)
	if err != nil {
		return Type{}, err
	}
	if rest != "" {
		return Type{}, fmt.Errorf("%w: trailing %q in %q", ErrInvalidDescriptor, rest, desc)
	}
	return t, nil
}

// ParseMethodDescriptor parses a method descriptor ("(ILjava/lang/String;)V").
func ParseMethodDescriptor(desc string) (MethodDescriptor, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return MethodDescriptor{}, fmt.Errorf("%w: method descriptor %q must start with '('",
			ErrInvalidDescriptor, desc)
	}
	rest := desc[1:]
	var params []Type
	for {
		if rest == "" {
			return MethodDescriptor{}, fmt.Errorf("%w: method descriptor %q missing ')'",
				ErrInvalidDescriptor, desc)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		t, r, err := parseType(rest)
		if err != nil {
			return MethodDescriptor{}, err
		}
		if t.Kind == TypeVoid {
			return MethodDescriptor{}, fmt.Errorf("%w: void parameter in %q",
				ErrInvalidDescriptor, desc)
		}
		params = append(params, t)
		rest = r
	}
	ret, r, err := parseType(rest)
	if err != nil {
		return MethodDescriptor{}, err
	}
	if r != "" {
		return MethodDescriptor{}, fmt.Errorf("%w: trailing %q in %q",
			ErrInvalidDescriptor, r, desc)
	}
	return MethodDescriptor{Params: params, Return: ret}, nil
}

func parseType(desc string) (Type, string, error) {
	if desc == "" {
		return Type{}, "", fmt.Errorf("%w: empty type", ErrInvalidDescriptor)
	}
	switch desc[0] {
	case 'V':
		return Type{Kind: TypeVoid}, desc[1:], nil
	case 'Z':
		return Type{Kind: TypeBoolean}, desc[1:], nil
	case 'B':
		return Type{Kind: TypeByte}, desc[1:], nil
	case 'C':
		return Type{Kind: TypeChar}, desc[1:], nil
	case 'S':
		return Type{Kind: TypeShort}, desc[1:], nil
	case 'I':
		return Type{Kind: TypeInt}, desc[1:], nil
	case 'J':
		return Type{Kind: TypeLong}, desc[1:], nil
	case 'F':
		return Type{Kind: TypeFloat}, desc[1:], nil
	case 'D':
		return Type{Kind: TypeDouble}, desc[1:], nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return Type{}, "", fmt.Errorf("%w: reference type missing ';' in %q",
				ErrInvalidDescriptor, desc)
		}
		if end == 1 {
			return Type{}, "", fmt.Errorf("%w: empty class name in %q",
				ErrInvalidDescriptor, desc)
		}
		return Type{Kind: TypeReference, ClassName: desc[1:end]}, desc[end+1:], nil
	case '[':
		dims := 0
		for dims < len(desc) && desc[dims] == '[' {
			dims++
		}
		if dims > maxArrayDims {
			return Type{}, "", fmt.Errorf("%w: %d array dimensions in %q",
				ErrInvalidDescriptor, dims, desc)
		}
		elem, rest, err := parseType(desc[1:])
		if err != nil {
			return Type{}, "", err
		}
		if elem.Kind == TypeVoid {
			return Type{}, "", fmt.Errorf("%w: array of void in %q",
				ErrInvalidDescriptor, desc)
		}
		return Type{Kind: TypeArray, Elem: &elem}, rest, nil
	default:
		return Type{}, "", fmt.Errorf("%w: unknown type character %q in %q",
			ErrInvalidDescriptor, desc[0], desc)
	}
}
