package document

import (
	"bytes"
	"io"

	"golang.org/x/net/html/charset"
)

// decodeToUTF8 sniffs data's declared or detected encoding (a BOM, an
// XML encoding declaration, or an HTML <meta charset>) and transcodes it
// to UTF-8 before it reaches xmlparse.Parse, which assumes UTF-8 source
// bytes. EPUB content is supposed to always be UTF-8, but loose HTML
// commonly isn't, and charset.NewReader's detection also serves as a
// harmless no-op pass-through when the input already is UTF-8.
func decodeToUTF8(data []byte) []byte {
	r, err := charset.NewReader(bytes.NewReader(data), "")
	if err != nil {
		return data
	}
	decoded, err := io.ReadAll(r)
	if err != nil || len(decoded) == 0 {
		return data
	}
	return decoded
}
