package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

func TestLogging_RecordsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	logging.InitWriter(&buf, "kasa-test", "info", "production")

	cashier := &user.User{ID: uuid.New(), Login: "cashier"}
	users := lookupFunc(func(context.Context, string) (*user.User, error) { return cashier, nil })

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h := middleware.Logging(middleware.Auth(secret, users)(inner))

	tok, err := auth.GenerateToken("cashier", secret, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"status":201`)
	assert.Contains(t, out, `"path":"/api/v1/receipts"`)
	assert.Contains(t, out, cashier.ID.String())
}

func TestLogging_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	logging.InitWriter(&buf, "kasa-test", "info", "production")

	h := middleware.Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, buf.String())
}
