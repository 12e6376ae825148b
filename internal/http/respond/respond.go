package respond

import (
	"encoding/json"
	"net/http"

	"github.com/MrJamesThe3rd/kasa/internal/logging"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

// Detail writes {"detail": msg}.
func Detail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	JSON(w, r, status, detailResponse{Detail: msg})
}

// InternalError logs err and hides it from the client.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("request failed", "error", err)
	Detail(w, r, http.StatusInternalServerError, "internal error")
}
