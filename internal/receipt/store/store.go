package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectReceiptColumns = `
	r.id, r.user_id, u.username, r.type, r.amount, r.total, r.rest, r.created_at
`

// scanReceipt reads a receipt header row. Items are loaded separately.
// Expected column order: id, user_id, username, type, amount, total, rest, created_at
func scanReceipt(s scanner) (*receipt.Receipt, error) {
	var r receipt.Receipt

	var typeStr string

	var total, rest decimal.NullDecimal

	if err := s.Scan(
		&r.ID, &r.OwnerID, &r.OwnerName, &typeStr, &r.Amount, &total, &rest, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	r.Type = receipt.PaymentType(typeStr)
	r.Total = total.Decimal
	r.Rest = rest.Decimal

	return &r, nil
}

func (s *Store) GetReceipt(ctx context.Context, id uuid.UUID) (*receipt.Receipt, error) {
	query := `SELECT ` + selectReceiptColumns + `
		FROM receipts r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`

	r, err := scanReceipt(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, receipt.ErrNotFound
		}

		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	if err := loadItems(ctx, s.db, []*receipt.Receipt{r}); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Store) ListReceipts(
	ctx context.Context, ownerID uuid.UUID, filter receipt.ListFilter, limit, offset int,
) ([]*receipt.Receipt, error) {
	query := `SELECT ` + selectReceiptColumns + `
		FROM receipts r
		JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1`

	args := []any{ownerID}

	argIdx := 2

	if filter.TotalGT != nil {
		query += fmt.Sprintf(" AND r.total > $%d", argIdx)

		args = append(args, *filter.TotalGT)
		argIdx++
	}

	if filter.TotalLT != nil {
		query += fmt.Sprintf(" AND r.total < $%d", argIdx)

		args = append(args, *filter.TotalLT)
		argIdx++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND r.type = $%d", argIdx)

		args = append(args, string(*filter.Type))
		argIdx++
	}

	if filter.CreatedAtGT != nil {
		query += fmt.Sprintf(" AND r.created_at > $%d", argIdx)

		args = append(args, *filter.CreatedAtGT)
		argIdx++
	}

	if filter.CreatedAtLT != nil {
		query += fmt.Sprintf(" AND r.created_at < $%d", argIdx)

		args = append(args, *filter.CreatedAtLT)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY r.created_at ASC, r.id ASC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)

	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*receipt.Receipt

	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}

		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipt rows: %w", err)
	}

	if err := loadItems(ctx, s.db, receipts); err != nil {
		return nil, err
	}

	return receipts, nil
}

// loadItems attaches items to each receipt in position order.
func loadItems(ctx context.Context, q queryer, receipts []*receipt.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*receipt.Receipt, len(receipts))
	ids := make([]string, len(receipts))

	for i, r := range receipts {
		byID[r.ID] = r
		ids[i] = r.ID.String()
	}

	query := `
		SELECT id, receipt_id, position, name, price, quantity, total
		FROM receipt_items
		WHERE receipt_id = ANY($1::uuid[])
		ORDER BY receipt_id, position ASC`

	rows, err := q.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("loading receipt items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it        receipt.Item
			receiptID uuid.UUID
		)

		if err := rows.Scan(&it.ID, &receiptID, &it.Position, &it.Name, &it.Price, &it.Quantity, &it.Total); err != nil {
			return fmt.Errorf("scanning receipt item: %w", err)
		}

		if r, ok := byID[receiptID]; ok {
			r.Items = append(r.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating item rows: %w", err)
	}

	return nil
}

type createTx struct {
	tx *sql.Tx
}

// BeginCreate opens the read-committed transaction a single receipt is staged in.
func (s *Store) BeginCreate(ctx context.Context) (receipt.CreateTx, error) {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("beginning receipt tx: %w", err)
	}

	return &createTx{tx: dbTx}, nil
}

func (rtx *createTx) Commit() error   { return rtx.tx.Commit() }
func (rtx *createTx) Rollback() error { return rtx.tx.Rollback() }

func (rtx *createTx) InsertReceipt(ctx context.Context, r *receipt.Receipt) error {
	query := `
		INSERT INTO receipts (user_id, type, amount, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := rtx.tx.QueryRowContext(ctx, query, r.OwnerID, string(r.Type), r.Amount).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating receipt: %w", err)
	}

	return nil
}

func (rtx *createTx) InsertItem(ctx context.Context, receiptID uuid.UUID, item *receipt.Item) error {
	query := `
		INSERT INTO receipt_items (receipt_id, position, name, price, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := rtx.tx.QueryRowContext(ctx, query,
		receiptID,
		item.Position,
		item.Name,
		item.Price,
		item.Quantity,
		item.Total,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("creating receipt item: %w", err)
	}

	return nil
}

func (rtx *createTx) SetTotals(ctx context.Context, receiptID uuid.UUID, total, rest decimal.Decimal) error {
	query := `
		UPDATE receipts
		SET total = $1, rest = $2
		WHERE id = $3
	`

	if _, err := rtx.tx.ExecContext(ctx, query, total, rest, receiptID); err != nil {
		return fmt.Errorf("setting receipt totals: %w", err)
	}

	return nil
}
