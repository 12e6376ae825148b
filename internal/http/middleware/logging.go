package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MrJamesThe3rd/kasa/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestUser is filled in by Auth so the completion log can name the user.
type requestUser struct {
	id string
}

type requestUserKey struct{}

func recordUser(ctx context.Context, id string) {
	if ru, ok := ctx.Value(requestUserKey{}).(*requestUser); ok {
		ru.id = id
	}
}

// Logging stores a request-scoped logger in the context and logs each
// completed request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()

		logger := slog.Default().With("request_id", chimw.GetReqID(r.Context()))
		ru := &requestUser{}

		ctx := logging.WithLogger(r.Context(), logger)
		ctx = context.WithValue(ctx, requestUserKey{}, ru)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if ru.id != "" {
			attrs = append(attrs, "user_id", ru.id)
		}

		logger.Info("request completed", attrs...)
	})
}
