// Package hierarchy provides static class-hierarchy tables that answer the
// subtype queries frame synthesis needs, loadable from a TOML file.
package hierarchy

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const objectClass = "java/lang/Object"

// Entry declares one class in a hierarchy file.
type Entry struct {
	Super      string   `toml:"super"`
	Interfaces []string `toml:"interfaces"`
	Interface  bool     `toml:"interface"`
}

// file is the on-disk shape:
//
//	[classes."java/lang/Number"]
//	super = "java/lang/Object"
//	interfaces = ["java/io/Serializable"]
type file struct {
	Classes map[string]Entry `toml:"classes"`
}

// Table is an immutable-after-build class-hierarchy oracle backed by a
// declared superclass map. Classes the table has never heard of are treated
// as direct subclasses of java/lang/Object, and malformed cyclic chains
// widen to java/lang/Object rather than looping.
type Table struct {
	entries map[string]Entry
}

// NewTable returns an empty table; only java/lang/Object relationships are
// answerable until classes are added.
func NewTable() *Table {
	return &Table{entries: make(map[string]Entry)}
}

// Load reads a hierarchy table from a TOML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	t := NewTable()
	for name, e := range f.Classes {
		t.entries[name] = e
	}
	return t, nil
}

// Add declares a class and its direct superclass.
func (t *Table) Add(name, super string, interfaces ...string) {
	t.entries[name] = Entry{Super: super, Interfaces: interfaces}
}

// AddInterface declares an interface type.
func (t *Table) AddInterface(name string, extends ...string) {
	t.entries[name] = Entry{Super: objectClass, Interfaces: extends, Interface: true}
}

// Super returns the declared direct superclass of a class. Unknown classes
// report java/lang/Object; Object itself reports "".
func (t *Table) Super(name string) string {
	if name == objectClass {
		return ""
	}
	if e, ok := t.entries[name]; ok && e.Super != "" {
		return e.Super
	}
	return objectClass
}

// chain returns name and its superclass ancestors up to java/lang/Object.
// A visited set caps walks over cyclic declarations.
func (t *Table) chain(name string) []string {
	var out []string
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		seen[name] = true
		out = append(out, name)
		name = t.Super(name)
	}
	return out
}

// IsAssignable reports whether sub may stand where super is expected.
// Array descriptors are covariant in their reference element type and
// assignable to Object, Cloneable and Serializable. A visited set caps
// the interface walk over cyclic declarations.
func (t *Table) IsAssignable(sub, super string) (bool, error) {
	return t.isAssignable(sub, super, make(map[string]bool))
}

func (t *Table) isAssignable(sub, super string, seen map[string]bool) (bool, error) {
	if sub == super || super == objectClass {
		return true, nil
	}
	if seen[sub] {
		return false, nil
	}
	seen[sub] = true
	if strings.HasPrefix(sub, "[") {
		switch super {
		case "java/lang/Cloneable", "java/io/Serializable":
			return true, nil
		}
		if strings.HasPrefix(super, "[") {
			se, pe := sub[1:], super[1:]
			if strings.HasPrefix(se, "L") && strings.HasPrefix(pe, "L") {
				return t.isAssignable(trimRef(se), trimRef(pe), seen)
			}
			if strings.HasPrefix(se, "[") && strings.HasPrefix(pe, "[") {
				return t.isAssignable(se, pe, seen)
			}
			return se == pe, nil
		}
		return false, nil
	}
	for _, c := range t.chain(sub) {
		if c == super {
			return true, nil
		}
		if e, ok := t.entries[c]; ok {
			for _, i := range e.Interfaces {
				if i == super {
					return true, nil
				}
				ok, err := t.isAssignable(i, super, seen)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// CommonSupertype returns the nearest superclass shared by a and b. It
// walks superclass chains only, the way class file verifiers do; shared
// interfaces still merge at java/lang/Object.
func (t *Table) CommonSupertype(a, b string) (string, error) {
	if a == b {
		return a, nil
	}
	if strings.HasPrefix(a, "[") || strings.HasPrefix(b, "[") {
		if strings.HasPrefix(a, "[") && strings.HasPrefix(b, "[") {
			ae, be := a[1:], b[1:]
			if strings.HasPrefix(ae, "L") && strings.HasPrefix(be, "L") {
				elem, err := t.CommonSupertype(trimRef(ae), trimRef(be))
				if err != nil {
					return "", err
				}
				return "[L" + elem + ";", nil
			}
		}
		return objectClass, nil
	}
	onA := make(map[string]bool)
	for _, c := range t.chain(a) {
		onA[c] = true
	}
	for _, c := range t.chain(b) {
		if onA[c] {
			return c, nil
		}
	}
	return objectClass, nil
}

func trimRef(desc string) string {
	return strings.TrimSuffix(strings.TrimPrefix(desc, "L"), ";")
}

// Base returns a table seeded with the core java/lang and java/io
// relationships most class files touch, enough for analysis of simple code
// without an external hierarchy file.
func Base() *Table {
	t := NewTable()
	t.AddInterface("java/io/Serializable")
	t.AddInterface("java/lang/Cloneable")
	t.AddInterface("java/lang/Comparable")
	t.AddInterface("java/lang/CharSequence")
	t.AddInterface("java/lang/Iterable")
	t.AddInterface("java/lang/Runnable")
	t.AddInterface("java/lang/AutoCloseable")
	t.Add("java/lang/String", objectClass, "java/io/Serializable", "java/lang/Comparable", "java/lang/CharSequence")
	t.Add("java/lang/StringBuilder", "java/lang/AbstractStringBuilder", "java/lang/CharSequence")
	t.Add("java/lang/AbstractStringBuilder", objectClass, "java/lang/CharSequence")
	t.Add("java/lang/Number", objectClass, "java/io/Serializable")
	t.Add("java/lang/Integer", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Long", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Float", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Double", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Short", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Byte", "java/lang/Number", "java/lang/Comparable")
	t.Add("java/lang/Boolean", objectClass, "java/io/Serializable", "java/lang/Comparable")
	t.Add("java/lang/Character", objectClass, "java/io/Serializable", "java/lang/Comparable")
	t.Add("java/lang/Class", objectClass, "java/io/Serializable")
	t.Add("java/lang/Throwable", objectClass, "java/io/Serializable")
	t.Add("java/lang/Exception", "java/lang/Throwable")
	t.Add("java/lang/RuntimeException", "java/lang/Exception")
	t.Add("java/lang/IllegalArgumentException", "java/lang/RuntimeException")
	t.Add("java/lang/IllegalStateException", "java/lang/RuntimeException")
	t.Add("java/lang/NullPointerException", "java/lang/RuntimeException")
	t.Add("java/lang/IndexOutOfBoundsException", "java/lang/RuntimeException")
	t.Add("java/lang/ArithmeticException", "java/lang/RuntimeException")
	t.Add("java/lang/ClassCastException", "java/lang/RuntimeException")
	t.Add("java/lang/Error", "java/lang/Throwable")
	t.Add("java/io/IOException", "java/lang/Exception")
	t.Add("java/lang/Thread", objectClass, "java/lang/Runnable")
	return t
}
