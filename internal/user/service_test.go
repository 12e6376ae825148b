package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

func validParams() user.RegisterParams {
	return user.RegisterParams{
		Username: "test_username",
		Login:    "test_login",
		Password: "testpassword",
	}
}

func TestService_Register(t *testing.T) {
	type testCase struct {
		name      string
		params    user.RegisterParams
		setupMock func(m *user.MockRepository)
		wantErrIs error
	}

	tests := []testCase{
		{
			name:   "Success",
			params: validParams(),
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "test_login").Return(nil, user.ErrNotFound)
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User) error {
						assert.NotEqual(t, "testpassword", u.PasswordHash)
						assert.True(t, auth.CheckPassword(u.PasswordHash, "testpassword"))

						u.ID = uuid.New()
						u.CreatedAt = time.Now()

						return nil
					})
			},
		},
		{
			name:   "LoginTaken",
			params: validParams(),
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "test_login").Return(&user.User{ID: uuid.New()}, nil)
			},
			wantErrIs: user.ErrLoginTaken,
		},
		{
			name:   "LookupFails",
			params: validParams(),
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "test_login").Return(nil, errors.New("db error"))
			},
			wantErrIs: errAny,
		},
		{
			name: "ShortPassword",
			params: user.RegisterParams{
				Username: "test_username",
				Login:    "test_login",
				Password: "123",
			},
			wantErrIs: user.ErrInvalidUser,
		},
		{
			name: "ShortLogin",
			params: user.RegisterParams{
				Username: "test_username",
				Login:    "ab",
				Password: "testpassword",
			},
			wantErrIs: user.ErrInvalidUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := user.NewService(repo, bcrypt.MinCost)
			got, err := svc.Register(context.Background(), tt.params)

			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if tt.wantErrIs != errAny {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tt.params.Login, got.Login)
			assert.Equal(t, tt.params.Username, got.Username)
		})
	}
}

var errAny = errors.New("any error")

func TestService_Authenticate(t *testing.T) {
	hash, err := auth.HashPassword("testpassword", bcrypt.MinCost)
	require.NoError(t, err)

	stored := &user.User{ID: uuid.New(), Username: "John Doe", Login: "johndoe", PasswordHash: hash}

	tests := []struct {
		name      string
		login     string
		password  string
		setupMock func(m *user.MockRepository)
		wantErrIs error
	}{
		{
			name:     "Success",
			login:    "johndoe",
			password: "testpassword",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "johndoe").Return(stored, nil)
			},
		},
		{
			name:     "UnknownLogin",
			login:    "wronglogin",
			password: "testpassword",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "wronglogin").Return(nil, user.ErrNotFound)
			},
			wantErrIs: user.ErrInvalidCredentials,
		},
		{
			name:     "WrongPassword",
			login:    "johndoe",
			password: "wrongpasswd",
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().GetByLogin(gomock.Any(), "johndoe").Return(stored, nil)
			},
			wantErrIs: user.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			tt.setupMock(repo)

			got, err := user.NewService(repo, bcrypt.MinCost).Authenticate(context.Background(), tt.login, tt.password)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, stored.ID, got.ID)
		})
	}
}
