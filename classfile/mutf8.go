package classfile

import (
	"unicode/utf16"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Modified UTF-8
// ---------------------------------------------------------------------------

// decodeMUTF8 decodes the JVM's modified UTF-8 into a Go string. Modified
// UTF-8 differs from standard UTF-8 in two ways: U+0000 is encoded as the
// two-byte sequence 0xC0 0x80, and supplementary characters are encoded as
// UTF-8-wrapped surrogate pairs (six bytes total).
//
// Decoding is total: malformed sequences become U+FFFD instead of failing,
// matching how reference tooling treats garbage in Utf8 constants.
func decodeMUTF8(b []byte) string {
	// Fast path: plain ASCII with no NUL escapes.
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c < 0x80:
			out = append(out, rune(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				out = append(out, utf8.RuneError)
				i++
				continue
			}
			out = append(out, rune(c&0x1F)<<6|rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				out = append(out, utf8.RuneError)
				i++
				continue
			}
			r := rune(c&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F)
			i += 3
			// Surrogate halves pair up into supplementary characters.
			if utf16.IsSurrogate(r) {
				if len(out) > 0 && utf16.IsSurrogate(out[len(out)-1]) {
					if paired := utf16.DecodeRune(out[len(out)-1], r); paired != utf8.RuneError {
						out[len(out)-1] = paired
						continue
					}
				}
			}
			out = append(out, r)
		default:
			out = append(out, utf8.RuneError)
			i++
		}
	}
	// Unpaired surrogates cannot survive into a Go string.
	for i, r := range out {
		if utf16.IsSurrogate(r) {
			out[i] = utf8.RuneError
		}
	}
	return string(out)
}
