package receipt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=receipt
type Repository interface {
	BeginCreate(ctx context.Context) (CreateTx, error)
	GetReceipt(ctx context.Context, id uuid.UUID) (*Receipt, error)
	ListReceipts(ctx context.Context, ownerID uuid.UUID, filter ListFilter, limit, offset int) ([]*Receipt, error)
}

// CreateTx stages a single receipt. Nothing is visible to readers until Commit.
type CreateTx interface {
	InsertReceipt(ctx context.Context, r *Receipt) error
	InsertItem(ctx context.Context, receiptID uuid.UUID, item *Item) error
	SetTotals(ctx context.Context, receiptID uuid.UUID, total, rest decimal.Decimal) error
	Commit() error
	Rollback() error
}

type Publisher interface {
	PublishReceiptCreated(ctx context.Context, r *Receipt) error
}

const publishTimeout = 3 * time.Second

type Service struct {
	repo      Repository
	publisher Publisher
}

// NewService creates a receipt service. publisher may be nil.
func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Create assembles and persists a receipt for owner in one transaction.
// If the payment does not cover the total the staged rows are rolled back and
// an *InsufficientPaymentError is returned.
func (s *Service) Create(ctx context.Context, owner Owner, payment Payment, items []LineItem) (*Receipt, error) {
	if err := validate(payment, items); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}

	r := &Receipt{
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		Type:      payment.Type,
		Amount:    payment.Amount,
		Items:     make([]Item, 0, len(items)),
	}

	if err := tx.InsertReceipt(ctx, r); err != nil {
		return nil, abort(tx, fmt.Errorf("inserting receipt: %w", err))
	}

	totals := make([]decimal.Decimal, 0, len(items))

	for i, li := range items {
		item := Item{
			Position: i,
			Name:     li.Name,
			Price:    li.Price,
			Quantity: li.Quantity,
			Total:    money.LineTotal(li.Price, li.Quantity),
		}

		if err := tx.InsertItem(ctx, r.ID, &item); err != nil {
			return nil, abort(tx, fmt.Errorf("inserting item %d: %w", i, err))
		}

		r.Items = append(r.Items, item)
		totals = append(totals, item.Total)
	}

	total := money.Sum(totals...)
	if payment.Amount.LessThan(total) {
		return nil, abort(tx, &InsufficientPaymentError{Required: total, Received: payment.Amount})
	}

	r.Total = total
	r.Rest = payment.Amount.Sub(total)

	if err := tx.SetTotals(ctx, r.ID, r.Total, r.Rest); err != nil {
		return nil, abort(tx, fmt.Errorf("setting totals: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit receipt: %w", err)
	}

	s.publish(ctx, r)

	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	return s.repo.GetReceipt(ctx, id)
}

// List returns the owner's receipts matching filter, oldest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter, limit, offset int) ([]*Receipt, error) {
	return s.repo.ListReceipts(ctx, ownerID, filter, limit, offset)
}

func (s *Service) publish(ctx context.Context, r *Receipt) {
	if s.publisher == nil {
		return
	}

	// Best effort: the receipt is committed by now.
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.PublishReceiptCreated(ctx, r); err != nil {
		logging.FromContext(ctx).Warn("failed to publish receipt event", "receipt_id", r.ID, "error", err)
	}
}

// abort rolls the staged receipt back and returns cause, joined with the
// rollback failure if there was one.
func abort(tx CreateTx, cause error) error {
	if err := tx.Rollback(); err != nil {
		return errors.Join(cause, fmt.Errorf("rolling back: %w", err))
	}

	return cause
}
