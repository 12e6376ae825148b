package encoding

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var ErrUnsupportedCharset = errors.New("unsupported charset")

// Charset names accepted for receipt output, as sent in Content-Type.
const (
	CharsetUTF8        = "utf-8"
	CharsetCP866       = "cp866"
	CharsetWindows1251 = "windows-1251"
)

var codePages = map[string]*charmap.Charmap{
	"cp866":        charmap.CodePage866,
	"ibm866":       charmap.CodePage866,
	"866":          charmap.CodePage866,
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"1251":         charmap.Windows1251,
}

// Lookup resolves a charset name. UTF-8 yields a nil code page.
func Lookup(charset string) (*charmap.Charmap, error) {
	name := strings.ToLower(strings.TrimSpace(charset))

	switch name {
	case "", "utf-8", "utf8":
		return nil, nil
	}

	cp, ok := codePages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, charset)
	}

	return cp, nil
}

// Canonical returns the Content-Type name for a charset accepted by Lookup.
func Canonical(charset string) (string, error) {
	cp, err := Lookup(charset)
	if err != nil {
		return "", err
	}

	switch cp {
	case nil:
		return CharsetUTF8, nil
	case charmap.CodePage866:
		return CharsetCP866, nil
	default:
		return CharsetWindows1251, nil
	}
}

// Encode converts text to the single-byte code page used by receipt printers.
// Runes the code page cannot represent become '?'.
func Encode(text, charset string) ([]byte, error) {
	cp, err := Lookup(charset)
	if err != nil {
		return nil, err
	}

	if cp == nil {
		return []byte(text), nil
	}

	out := make([]byte, 0, len(text))

	for _, r := range text {
		b, ok := cp.EncodeRune(r)
		if !ok {
			b = '?'
		}

		out = append(out, b)
	}

	return out, nil
}
