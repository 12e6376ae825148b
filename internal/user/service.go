package user

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetByLogin(ctx context.Context, login string) (*User, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
}

func NewService(repo Repository, bcryptCost int) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost}
}

type RegisterParams struct {
	Username string
	Login    string
	Password string
}

func (p RegisterParams) validate() error {
	switch {
	case !between(p.Username, 3, 50):
		return fmt.Errorf("%w: username must be 3-50 characters", ErrInvalidUser)
	case !between(p.Login, 3, 50):
		return fmt.Errorf("%w: login must be 3-50 characters", ErrInvalidUser)
	case !between(p.Password, 6, 100):
		return fmt.Errorf("%w: password must be 6-100 characters", ErrInvalidUser)
	}

	return nil
}

func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}

// Register creates a user with a hashed password. Logins are unique.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByLogin(ctx, params.Login)
	if err == nil {
		return nil, ErrLoginTaken
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking login: %w", err)
	}

	hash, err := auth.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     params.Username,
		Login:        params.Login,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Authenticate returns the user for login if password matches.
// Unknown logins and wrong passwords are both reported as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) GetByLogin(ctx context.Context, login string) (*User, error) {
	return s.repo.GetByLogin(ctx, login)
}
