// Package digest content-addresses decoded classes. It derives stable
// structural digests from the AST and a canonical CBOR wire form so tooling
// pipelines can cache and exchange analysis results by hash.
package digest

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/x4e/classfile/classfile"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("digest: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FieldDigest is the identity of one field.
type FieldDigest struct {
	Name       string `cbor:"1,keyasint"`
	Descriptor string `cbor:"2,keyasint"`
	Access     uint16 `cbor:"3,keyasint"`
}

// MethodDigest is the identity of one method plus a content hash of its
// decoded instruction stream. Methods without code carry a zero hash.
type MethodDigest struct {
	Name       string   `cbor:"1,keyasint"`
	Descriptor string   `cbor:"2,keyasint"`
	Access     uint16   `cbor:"3,keyasint"`
	CodeHash   [32]byte `cbor:"4,keyasint"`
}

// ClassDigest is a compact, deterministic representation of a decoded class
// suitable for content addressing. Raw hashes the input bytes; Hash covers
// the structural digest, so it is stable across re-encodings of the same
// logical class.
type ClassDigest struct {
	Name       string         `cbor:"1,keyasint"`
	SuperName  string         `cbor:"2,keyasint"`
	Version    string         `cbor:"3,keyasint"`
	Access     uint16         `cbor:"4,keyasint"`
	Interfaces []string       `cbor:"5,keyasint"`
	Fields     []FieldDigest  `cbor:"6,keyasint"`
	Methods    []MethodDigest `cbor:"7,keyasint"`
	Raw        [32]byte       `cbor:"8,keyasint"`
	Hash       [32]byte       `cbor:"-"`
}

// Of digests a decoded class. raw is the class file input the AST was
// decoded from.
func Of(raw []byte, cf *classfile.ClassFile) (*ClassDigest, error) {
	d := &ClassDigest{
		Name:       cf.Name,
		SuperName:  cf.SuperName,
		Version:    cf.Version.String(),
		Access:     uint16(cf.Access),
		Interfaces: append([]string(nil), cf.Interfaces...),
		Raw:        sha256.Sum256(raw),
	}
	for _, f := range cf.Fields {
		d.Fields = append(d.Fields, FieldDigest{
			Name:       f.Name,
			Descriptor: f.Descriptor.Descriptor(),
			Access:     uint16(f.Access),
		})
	}
	for _, m := range cf.Methods {
		md := MethodDigest{
			Name:       m.Name,
			Descriptor: m.Descriptor.String(),
			Access:     uint16(m.Access),
		}
		if m.Code != nil {
			md.CodeHash = codeHash(m.Code)
		}
		d.Methods = append(d.Methods, md)
	}
	sort.Slice(d.Fields, func(i, j int) bool {
		return d.Fields[i].Name < d.Fields[j].Name
	})
	sort.Slice(d.Methods, func(i, j int) bool {
		a, b := d.Methods[i], d.Methods[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Descriptor < b.Descriptor
	})
	enc, err := cborEncMode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("digest: encode %s: %w", cf.Name, err)
	}
	d.Hash = sha256.Sum256(enc)
	return d, nil
}

// codeHash hashes the decoded instruction stream and handler table. The
// rendered semantic form is position independent apart from labels, which
// are dense and deterministic, so equal bytecode always hashes equal.
func codeHash(c *classfile.Code) [32]byte {
	h := sha256.New()
	for _, e := range c.Entries {
		fmt.Fprintf(h, "%s %s\n", e.Label, e.Insn)
	}
	for _, hd := range c.Handlers {
		fmt.Fprintf(h, "%s\n", hd)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Marshal serializes a ClassDigest to canonical CBOR bytes.
func Marshal(d *ClassDigest) ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// Unmarshal deserializes a ClassDigest from CBOR bytes and recomputes its
// structural hash.
func Unmarshal(data []byte) (*ClassDigest, error) {
	var d ClassDigest
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("digest: unmarshal class digest: %w", err)
	}
	enc, err := cborEncMode.Marshal(&d)
	if err != nil {
		return nil, fmt.Errorf("digest: re-encode class digest: %w", err)
	}
	d.Hash = sha256.Sum256(enc)
	return &d, nil
}

// Store indexes class digests by structural hash. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	classes map[[32]byte]*ClassDigest
	byName  map[string][32]byte
}

// NewStore creates an empty digest store.
func NewStore() *Store {
	return &Store{
		classes: make(map[[32]byte]*ClassDigest),
		byName:  make(map[string][32]byte),
	}
}

// Index adds a digest to the store, keyed by its structural hash. Digests
// with a zero hash are silently ignored.
func (s *Store) Index(d *ClassDigest) {
	if d.Hash == [32]byte{} {
		return
	}
	s.mu.Lock()
	s.classes[d.Hash] = d
	s.byName[d.Name] = d.Hash
	s.mu.Unlock()
}

// Lookup returns the digest for the given hash, or nil.
func (s *Store) Lookup(h [32]byte) *ClassDigest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classes[h]
}

// LookupName returns the digest most recently indexed under a class name,
// or nil.
func (s *Store) LookupName(name string) *ClassDigest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.byName[name]; ok {
		return s.classes[h]
	}
	return nil
}

// Len reports the number of indexed digests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.classes)
}
