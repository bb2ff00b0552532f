package classfile

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Access flags
// ---------------------------------------------------------------------------

// AccessFlags is the raw access/property bit set attached to classes, fields
// and methods. Some bits are context-dependent: 0x0020 is ACC_SUPER on a
// class but ACC_SYNCHRONIZED on a method, and 0x0080 is ACC_TRANSIENT on a
// field but ACC_VARARGS on a method.
type AccessFlags uint16

const (
	AccPublic       AccessFlags = 0x0001
	AccPrivate      AccessFlags = 0x0002
	AccProtected    AccessFlags = 0x0004
	AccStatic       AccessFlags = 0x0008
	AccFinal        AccessFlags = 0x0010
	AccSuper        AccessFlags = 0x0020 // class
	AccSynchronized AccessFlags = 0x0020 // method
	AccVolatile     AccessFlags = 0x0040 // field
	AccBridge       AccessFlags = 0x0040 // method
	AccTransient    AccessFlags = 0x0080 // field
	AccVarargs      AccessFlags = 0x0080 // method
	AccNative       AccessFlags = 0x0100
	AccInterface    AccessFlags = 0x0200
	AccAbstract     AccessFlags = 0x0400
	AccStrict       AccessFlags = 0x0800
	AccSynthetic    AccessFlags = 0x1000
	AccAnnotation   AccessFlags = 0x2000
	AccEnum         AccessFlags = 0x4000
	AccModule       AccessFlags = 0x8000
)

// Has reports whether all bits in flag are set.
func (f AccessFlags) Has(flag AccessFlags) bool {
	return f&flag == flag
}

// String renders the modifier keywords of the flag set in declaration order.
// Context-dependent bits render with their class/field meaning.
func (f AccessFlags) String() string {
	names := []struct {
		bit  AccessFlags
		name string
	}{
		{AccPublic, "public"},
		{AccPrivate, "private"},
		{AccProtected, "protected"},
		{AccStatic, "static"},
		{AccFinal, "final"},
		{AccSuper, "super"},
		{AccVolatile, "volatile"},
		{AccTransient, "transient"},
		{AccNative, "native"},
		{AccInterface, "interface"},
		{AccAbstract, "abstract"},
		{AccStrict, "strictfp"},
		{AccSynthetic, "synthetic"},
		{AccAnnotation, "annotation"},
		{AccEnum, "enum"},
		{AccModule, "module"},
	}
	var parts []string
	for _, n := range names {
		if f.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

func readAccessFlags(r *Reader) (AccessFlags, error) {
	bits, err := r.ReadU16()
	if err != nil {
		return 0, err
	}
	return AccessFlags(bits), nil
}
