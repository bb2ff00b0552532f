package classfile

import "testing"

// FuzzParse throws arbitrary bytes at the parser. Any input may be rejected,
// but none may panic, and anything Parse accepts must also satisfy ParseInfo.
func FuzzParse(f *testing.F) {
	seed := buildConstructorClass()
	f.Add(seed)
	f.Add(seed[:8])
	f.Add(seed[:len(seed)-3])
	f.Add([]byte{})
	f.Add([]byte{0xca, 0xfe, 0xba, 0xbe})
	f.Add([]byte{0xca, 0xfe, 0xba, 0xbe, 0x00, 0x00, 0x00, 0x34, 0x00, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		cf, err := Parse(data)
		if err != nil {
			return
		}
		info, err := ParseInfo(data)
		if err != nil {
			t.Fatalf("Parse accepted input that ParseInfo rejects: %v", err)
		}
		if info.Name != cf.Name || info.SuperName != cf.SuperName {
			t.Fatalf("header mismatch: %q/%q vs %q/%q",
				info.Name, info.SuperName, cf.Name, cf.SuperName)
		}
	})
}
