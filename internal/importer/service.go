package importer

import (
	"fmt"
	"io"

	enc "github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

// Importer turns an uploaded product file into line items.
type Importer interface {
	Import(r io.Reader, charset string) ([]receipt.LineItem, error)
}

type rowParser interface {
	Parse(r io.Reader) ([]receipt.LineItem, error)
}

type Service struct {
	parser rowParser
}

func NewService() *Service {
	return &Service{parser: NewParser()}
}

// Import decodes r to UTF-8 and parses its line items. An empty charset
// means detect it from the content.
func (s *Service) Import(r io.Reader, charset string) ([]receipt.LineItem, error) {
	utf8r, err := enc.NewCharsetReader(r, charset)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	return s.parser.Parse(utf8r)
}
