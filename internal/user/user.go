package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrLoginTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUser        = errors.New("invalid user")
)

// User is a cashier account. Receipts are owned by a user.
type User struct {
	ID           uuid.UUID
	Username     string // Display name printed on receipts
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
