package digest

import (
	"testing"

	"github.com/x4e/classfile/classfile"
)

func sampleClass(name string) *classfile.ClassFile {
	d, _ := classfile.ParseMethodDescriptor("(I)I")
	fd, _ := classfile.ParseType("J")
	return &classfile.ClassFile{
		Version:   classfile.Version{Major: classfile.MajorJava8},
		Access:    classfile.AccPublic,
		Name:      name,
		SuperName: "java/lang/Object",
		Fields: []*classfile.Field{
			{Access: classfile.AccPrivate, Name: "count", Descriptor: fd},
		},
		Methods: []*classfile.Method{
			{Access: classfile.AccPublic, Name: "twice", Descriptor: d,
				Code: &classfile.Code{
					MaxStack:  2,
					MaxLocals: 2,
					Entries: []classfile.Entry{
						{Label: 0, Insn: &classfile.LocalLoad{Kind: classfile.KindInt}},
						{Label: 1, Insn: &classfile.LocalLoad{Kind: classfile.KindInt}},
						{Label: 2, Insn: &classfile.Arith{Op: classfile.OpAdd, Kind: classfile.KindInt}},
						{Label: 3, Insn: &classfile.Return{Kind: classfile.TypeInt}},
					},
					EndLabel: 4,
				}},
		},
	}
}

func TestDigestDeterministic(t *testing.T) {
	raw := []byte{0xca, 0xfe, 0xba, 0xbe}
	a, err := Of(raw, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	b, err := Of(raw, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if a.Hash != b.Hash {
		t.Errorf("same class digested to different hashes")
	}
	if a.Raw != b.Raw {
		t.Errorf("same raw bytes hashed differently")
	}
	if a.Hash == ([32]byte{}) {
		t.Errorf("structural hash is zero")
	}
}

func TestDigestSensitivity(t *testing.T) {
	raw := []byte{1, 2, 3}
	base, err := Of(raw, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}

	renamed, err := Of(raw, sampleClass("test/Bar"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if renamed.Hash == base.Hash {
		t.Errorf("renamed class kept the same structural hash")
	}

	// Different input bytes with the same structure: Raw differs, the
	// structural hash differs too since Raw is part of the digest.
	reencoded, err := Of([]byte{4, 5, 6}, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if reencoded.Raw == base.Raw {
		t.Errorf("different raw bytes hashed equal")
	}

	// Changing the method body changes the code hash.
	cf := sampleClass("test/Foo")
	cf.Methods[0].Code.Entries[2].Insn = &classfile.Arith{Op: classfile.OpMul, Kind: classfile.KindInt}
	edited, err := Of(raw, cf)
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if edited.Methods[0].CodeHash == base.Methods[0].CodeHash {
		t.Errorf("edited method body kept the same code hash")
	}
}

func TestDigestMemberOrderIndependent(t *testing.T) {
	raw := []byte{9}
	cf := sampleClass("test/Foo")
	fd, _ := classfile.ParseType("I")
	cf.Fields = append(cf.Fields, &classfile.Field{Name: "alpha", Descriptor: fd})
	a, err := Of(raw, cf)
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}

	flipped := sampleClass("test/Foo")
	flipped.Fields = append([]*classfile.Field{{Name: "alpha", Descriptor: fd}}, flipped.Fields...)
	b, err := Of(raw, flipped)
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	if a.Hash != b.Hash {
		t.Errorf("field declaration order changed the structural hash")
	}
	if a.Fields[0].Name != "alpha" {
		t.Errorf("fields not sorted: %v", a.Fields)
	}
}

func TestDigestRoundTrip(t *testing.T) {
	d, err := Of([]byte{1}, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	enc, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := Unmarshal(enc)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Hash != d.Hash {
		t.Errorf("round trip changed the structural hash")
	}
	if back.Name != d.Name || back.Version != d.Version {
		t.Errorf("round trip lost fields: %+v", back)
	}
	if len(back.Methods) != 1 || back.Methods[0].CodeHash != d.Methods[0].CodeHash {
		t.Errorf("round trip lost method digests")
	}

	if _, err := Unmarshal([]byte{0xff, 0x00}); err == nil {
		t.Errorf("expected error for malformed CBOR")
	}
}

func TestStore(t *testing.T) {
	s := NewStore()
	d, err := Of([]byte{1}, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	s.Index(d)
	if s.Len() != 1 {
		t.Fatalf("Len = %d", s.Len())
	}
	if got := s.Lookup(d.Hash); got != d {
		t.Errorf("Lookup by hash failed")
	}
	if got := s.LookupName("test/Foo"); got != d {
		t.Errorf("Lookup by name failed")
	}
	if got := s.LookupName("test/Missing"); got != nil {
		t.Errorf("missing name returned %+v", got)
	}

	// Zero-hash digests are not indexable.
	s.Index(&ClassDigest{Name: "test/Zero"})
	if s.Len() != 1 {
		t.Errorf("zero-hash digest was indexed")
	}

	// Re-indexing a class name points it at the newest digest.
	d2, err := Of([]byte{2}, sampleClass("test/Foo"))
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	s.Index(d2)
	if got := s.LookupName("test/Foo"); got != d2 {
		t.Errorf("name lookup not updated")
	}
}
