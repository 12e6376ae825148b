package receipt

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
)

var (
	ErrNotFound            = errors.New("receipt not found")
	ErrInvalidReceipt      = errors.New("invalid receipt")
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// InsufficientPaymentError is returned when the tendered amount does not cover the total.
type InsufficientPaymentError struct {
	Required decimal.Decimal
	Received decimal.Decimal
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("Insufficient payment: required %s, but received %s",
		money.Format(e.Required), money.Format(e.Received))
}

func (e *InsufficientPaymentError) Is(target error) bool {
	return target == ErrInsufficientPayment
}
