package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const pageSize = 100

// Item represents a single exported receipt with its local file path.
type Item struct {
	Receipt  *receipt.Receipt
	FilePath string
}

type Options struct {
	Width   int
	Charset string
}

// Service writes receipt text renderings to disk.
type Service struct {
	receipts *receipt.Service
}

func NewService(receipts *receipt.Service) *Service {
	return &Service{receipts: receipts}
}

// Export renders every receipt of owner matching filter into outputDir, one
// file per receipt.
func (s *Service) Export(
	ctx context.Context, ownerID uuid.UUID, filter receipt.ListFilter, outputDir string, opts Options,
) ([]Item, error) {
	if opts.Width <= 0 {
		opts.Width = receipt.DefaultWidth
	}

	if _, err := encoding.Lookup(opts.Charset); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	var items []Item

	for offset := 0; ; offset += pageSize {
		page, err := s.receipts.List(ctx, ownerID, filter, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("listing receipts: %w", err)
		}

		for _, r := range page {
			path, err := writeReceipt(r, outputDir, opts)
			if err != nil {
				return nil, fmt.Errorf("writing receipt %s: %w", r.ID, err)
			}

			items = append(items, Item{Receipt: r, FilePath: path})
		}

		if len(page) < pageSize {
			break
		}
	}

	return items, nil
}

func writeReceipt(r *receipt.Receipt, dir string, opts Options) (string, error) {
	data, err := encoding.Encode(receipt.Format(r, opts.Width)+"\n", opts.Charset)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, Filename(r))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	return path, nil
}

// Filename is YYYYMMDD-HHMM_<first id segment>.txt.
func Filename(r *receipt.Receipt) string {
	short, _, _ := strings.Cut(r.ID.String(), "-")
	return fmt.Sprintf("%s_%s.txt", r.CreatedAt.Format("20060102-1504"), short)
}

// GenerateSummary lists the exported receipts and their grand total.
func (s *Service) GenerateSummary(items []Item) string {
	var (
		sb    strings.Builder
		total decimal.Decimal
	)

	for _, item := range items {
		r := item.Receipt
		total = total.Add(r.Total)

		file := "-"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s | %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), receipt.PaymentLabel(r.Type), money.Format(r.Total), file)
	}

	fmt.Fprintf(&sb, "%d receipts, total %s\n", len(items), money.Format(total))

	return sb.String()
}
