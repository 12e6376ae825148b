package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

var (
	ErrNoHeader   = errors.New("no line item header found: expected name, price and quantity columns")
	ErrInvalidRow = errors.New("invalid line item row")
	ErrNoItems    = errors.New("file contains no line items")
)

var delimiters = []rune{';', ',', '\t'}

// Parser reads line-item CSV files. The header row may appear anywhere in the
// file and its columns in any order.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse expects UTF-8 input.
func (p *Parser) Parse(r io.Reader) ([]receipt.LineItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, delim := range delimiters {
		rows, err := readRows(data, delim)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		return parseRows(profile, cols, rows[headerIdx+1:], headerIdx+1)
	}

	return nil, ErrNoHeader
}

func readRows(data []byte, delim rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows converts data rows into line items. headerRowNum is the 0-based
// index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]receipt.LineItem, error) {
	nameIdx := cols[p.NameCol]
	priceIdx := cols[p.PriceCol]
	qtyIdx := cols[p.QuantityCol]

	var items []receipt.LineItem

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		name := cellValue(row, nameIdx)
		priceStr := cellValue(row, priceIdx)
		qtyStr := cellValue(row, qtyIdx)

		if name == "" && priceStr == "" && qtyStr == "" {
			continue
		}

		if name == "" {
			return nil, fmt.Errorf("%w: row %d: missing name", ErrInvalidRow, rowNum)
		}

		price, err := parsePrice(priceStr)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: price %q", ErrInvalidRow, rowNum, priceStr)
		}

		qty, err := parseQuantity(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: quantity %q", ErrInvalidRow, rowNum, qtyStr)
		}

		items = append(items, receipt.LineItem{
			Name:     name,
			Price:    price,
			Quantity: qty,
		})
	}

	if len(items) == 0 {
		return nil, ErrNoItems
	}

	return items, nil
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
