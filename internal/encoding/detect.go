package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

type byteOrderMark struct {
	prefix []byte
	// nil means the content after the mark is already UTF-8.
	enc xencoding.Encoding
}

var byteOrderMarks = []byteOrderMark{
	{prefix: []byte{0xEF, 0xBB, 0xBF}},
	{prefix: []byte{0xFF, 0xFE}, enc: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{prefix: []byte{0xFE, 0xFF}, enc: unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// guessed maps chardet charset names to decoders.
var guessed = map[string]xencoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"IBM866":       charmap.CodePage866,
	"KOI8-R":       charmap.KOI8R,
	"ISO-8859-5":   charmap.ISO8859_5,
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-9":   charmap.ISO8859_9,
}

// sniff picks a decoder for sample. It returns a nil encoding for UTF-8 input.
func sniff(sample []byte) xencoding.Encoding {
	if utf8.Valid(sample) {
		return nil
	}

	best, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return charmap.Windows1252
	}

	if best.Charset == "UTF-8" {
		return nil
	}

	if enc, ok := guessed[best.Charset]; ok {
		return enc
	}

	return charmap.Windows1252
}

// NewUTF8Reader returns a reader that yields r decoded to UTF-8. A byte
// order mark wins over content sniffing; a UTF-8 BOM is stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	sample, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek: %w", err)
	}

	for _, bom := range byteOrderMarks {
		if !bytes.HasPrefix(sample, bom.prefix) {
			continue
		}

		if bom.enc == nil {
			_, _ = br.Discard(len(bom.prefix))
			return br, nil
		}

		return transform.NewReader(br, bom.enc.NewDecoder()), nil
	}

	enc := sniff(sample)
	if enc == nil {
		return br, nil
	}

	return transform.NewReader(br, enc.NewDecoder()), nil
}

// NewCharsetReader decodes r from a caller-declared charset, skipping detection.
// An empty charset falls back to NewUTF8Reader.
func NewCharsetReader(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" {
		return NewUTF8Reader(r)
	}

	cp, err := Lookup(charset)
	if err != nil {
		return nil, err
	}

	if cp == nil {
		return r, nil
	}

	return transform.NewReader(r, cp.NewDecoder()), nil
}
