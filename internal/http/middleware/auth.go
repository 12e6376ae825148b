package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

const unauthorizedDetail = "Could not validate credentials"

type userKey struct{}

func ContextWithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey{}).(*user.User)
	return u, ok
}

type UserLookup interface {
	GetByLogin(ctx context.Context, login string) (*user.User, error)
}

// Auth resolves the bearer token subject to a user. A missing or invalid token
// and an unknown subject yield 401; lookup failures yield 500.
func Auth(secret string, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				unauthorized(w, r)
				return
			}

			login, err := auth.ValidateToken(token, secret)
			if err != nil {
				unauthorized(w, r)
				return
			}

			u, err := users.GetByLogin(r.Context(), login)
			if errors.Is(err, user.ErrNotFound) {
				unauthorized(w, r)
				return
			}

			if err != nil {
				respond.InternalError(w, r, fmt.Errorf("resolving token subject: %w", err))
				return
			}

			recordUser(r.Context(), u.ID.String())

			ctx := ContextWithUser(r.Context(), u)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", u.ID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respond.Detail(w, r, http.StatusUnauthorized, unauthorizedDetail)
}
