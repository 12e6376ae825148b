package receipt

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
)

// PaymentType is the way a receipt was paid.
type PaymentType string

const (
	PaymentCash     PaymentType = "cash"
	PaymentCashless PaymentType = "cashless"
)

func (t PaymentType) Valid() bool {
	return t == PaymentCash || t == PaymentCashless
}

// Payment describes what the customer tendered.
type Payment struct {
	Type   PaymentType
	Amount decimal.Decimal
}

// LineItem is a product line as submitted by the caller.
type LineItem struct {
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

// Item is a persisted line of a receipt with its computed total.
type Item struct {
	ID       uuid.UUID
	Position int
	Name     string
	Price    decimal.Decimal
	Quantity int64
	Total    decimal.Decimal
}

// Owner identifies the authenticated user a receipt is created for.
type Owner struct {
	ID   uuid.UUID
	Name string
}

// Receipt is the aggregate root: header, payment and ordered items.
type Receipt struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	OwnerName string // Loaded via JOIN
	Type      PaymentType
	Amount    decimal.Decimal
	Items     []Item
	Total     decimal.Decimal
	Rest      decimal.Decimal
	CreatedAt time.Time
}

// ListFilter restricts a receipt listing. Nil fields are not applied.
type ListFilter struct {
	TotalGT     *decimal.Decimal
	TotalLT     *decimal.Decimal
	Type        *PaymentType
	CreatedAtGT *time.Time
	CreatedAtLT *time.Time
}

func validate(payment Payment, items []LineItem) error {
	if !payment.Type.Valid() {
		return fmt.Errorf("%w: unknown payment type %q", ErrInvalidReceipt, payment.Type)
	}

	if payment.Amount.IsNegative() {
		return fmt.Errorf("%w: payment amount must not be negative", ErrInvalidReceipt)
	}

	if !money.Representable(payment.Amount) {
		return fmt.Errorf("%w: payment amount has more than %d decimal places", ErrInvalidReceipt, money.Places)
	}

	if len(items) == 0 {
		return fmt.Errorf("%w: at least one product is required", ErrInvalidReceipt)
	}

	for i, it := range items {
		switch {
		case it.Name == "":
			return fmt.Errorf("%w: product %d: name is required", ErrInvalidReceipt, i)
		case it.Price.IsNegative():
			return fmt.Errorf("%w: product %d: price must not be negative", ErrInvalidReceipt, i)
		case !money.Representable(it.Price):
			return fmt.Errorf("%w: product %d: price has more than %d decimal places", ErrInvalidReceipt, i, money.Places)
		case it.Quantity < 0:
			return fmt.Errorf("%w: product %d: quantity must not be negative", ErrInvalidReceipt, i)
		}
	}

	return nil
}
