package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
	"github.com/MrJamesThe3rd/kasa/internal/export"
	kasahttp "github.com/MrJamesThe3rd/kasa/internal/http"
	exportHandler "github.com/MrJamesThe3rd/kasa/internal/http/export"
	"github.com/MrJamesThe3rd/kasa/internal/http/importcsv"
	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	receiptHandler "github.com/MrJamesThe3rd/kasa/internal/http/receipt"
	userHandler "github.com/MrJamesThe3rd/kasa/internal/http/user"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

const secret = "router-secret"

type fixture struct {
	router   http.Handler
	users    *user.MockRepository
	receipts *receipt.MockRepository
}

func setup(t *testing.T, burst int) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := user.NewMockRepository(ctrl)
	receipts := receipt.NewMockRepository(ctrl)

	userSvc := user.NewService(users, bcrypt.MinCost)
	receiptSvc := receipt.NewService(receipts, nil)

	limiter := middleware.NewIPRateLimiter(middleware.RateLimitConfig{RequestsPerSecond: 0.001, Burst: burst})

	router := kasahttp.New(
		userHandler.NewHandler(userSvc, secret, time.Minute),
		receiptHandler.NewHandler(receiptSvc, importer.NewService(), 32, 120),
		importcsv.NewHandler(importer.NewService()),
		exportHandler.NewHandler(export.NewService(receiptSvc), 32, 120),
		kasahttp.Options{
			AllowedOrigins: []string{"https://pos.example.com"},
			Auth:           middleware.Auth(secret, userSvc),
			RateLimit:      limiter.Middleware,
		},
	)

	return fixture{router: router, users: users, receipts: receipts}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Health(t *testing.T) {
	f := setup(t, 10)

	rec := serve(f.router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_ReceiptsRequireToken(t *testing.T) {
	f := setup(t, 10)

	rec := serve(f.router, httptest.NewRequest(http.MethodGet, "/api/v1/receipts", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Could not validate credentials"}`, rec.Body.String())
}

func TestRouter_AuthenticatedList(t *testing.T) {
	f := setup(t, 10)
	cashier := &user.User{ID: uuid.New(), Username: "test_username", Login: "cashier"}

	f.users.EXPECT().GetByLogin(gomock.Any(), "cashier").Return(cashier, nil)
	f.receipts.EXPECT().
		ListReceipts(gomock.Any(), cashier.ID, receipt.ListFilter{}, 100, 0).
		Return([]*receipt.Receipt{}, nil)

	token, err := auth.GenerateToken("cashier", secret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/receipts/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := serve(f.router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_TextIsPublic(t *testing.T) {
	f := setup(t, 10)
	id := uuid.New()

	f.receipts.EXPECT().GetReceipt(gomock.Any(), id).
		DoAndReturn(func(context.Context, uuid.UUID) (*receipt.Receipt, error) {
			return &receipt.Receipt{
				ID:        id,
				OwnerName: "test_username",
				Type:      receipt.PaymentCash,
				Amount:    decimal.NewFromInt(200),
				Total:     decimal.NewFromInt(21),
				Rest:      decimal.NewFromInt(179),
				CreatedAt: time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC),
			}, nil
		})

	rec := serve(f.router, httptest.NewRequest(http.MethodGet, "/api/v1/receipts/"+id.String()+"/txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Дякуємо за покупку!")
}

func TestRouter_UsersRateLimited(t *testing.T) {
	f := setup(t, 1)

	f.users.EXPECT().GetByLogin(gomock.Any(), "ghost").Return(nil, user.ErrNotFound)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"login":"ghost","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:5555"

		return serve(f.router, req).Code
	}

	assert.Equal(t, http.StatusBadRequest, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := setup(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/receipts", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(f.router, req)

	assert.Equal(t, "https://pos.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ExportsRequireToken(t *testing.T) {
	f := setup(t, 10)

	rec := serve(f.router, httptest.NewRequest(http.MethodPost, "/api/v1/exports", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
