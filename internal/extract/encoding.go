package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// textDecoder is one strategy in the ordered decoding cascade. decode reports
// false when the bytes do not decode cleanly under this charset, so the next
// strategy gets a chance.
type textDecoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// bodyDecoders is the ordered decoding cascade: UTF-8 first, then the two
// legacy 8-bit Hebrew encodings still common in merchant mail.
var bodyDecoders = []textDecoder{
	{name: "utf-8", decode: decodeUTF8},
	{name: "windows-1255", decode: charmapDecoder(charmap.Windows1255)},
	{name: "iso-8859-8", decode: charmapDecoder(charmap.ISO8859_8)},
}

// DecodeText decodes raw bytes to a string. The declared charset, when
// recognized, is tried first; then the cascade runs in order; when nothing
// decodes cleanly the result is lossy UTF-8 rather than a failure.
func DecodeText(data []byte, declared string) string {
	if d := decoderFor(declared); d != nil {
		if text, ok := d.decode(data); ok {
			return text
		}
	}

	for _, d := range bodyDecoders {
		if text, ok := d.decode(data); ok {
			return text
		}
	}

	return string(bytes.ToValidUTF8(data, []byte("�")))
}

// decoderFor maps a declared charset name onto a cascade entry, tolerating
// the usual aliases. Unknown names return nil and the cascade decides.
func decoderFor(declared string) *textDecoder {
	name := strings.ToLower(strings.TrimSpace(declared))
	switch name {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return &bodyDecoders[0]
	case "windows-1255", "cp1255":
		return &bodyDecoders[1]
	case "iso-8859-8", "iso-8859-8-i", "iso_8859-8", "hebrew":
		return &bodyDecoders[2]
	}
	return nil
}

func decodeUTF8(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

// charmapDecoder adapts an 8-bit charmap into a cascade entry. Charmap
// decoding never errors; bytes without a mapping become U+FFFD, which we
// treat as "did not decode cleanly".
func charmapDecoder(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(data []byte) (string, bool) {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", false
		}
		text := string(decoded)
		if strings.ContainsRune(text, utf8.RuneError) {
			return "", false
		}
		return text, true
	}
}
