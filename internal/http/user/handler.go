package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/kasa/internal/auth"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

type Handler struct {
	svc      *user.Service
	secret   string
	tokenTTL time.Duration
}

func NewHandler(svc *user.Service, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{svc: svc, secret: secret, tokenTTL: tokenTTL}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/sign-up", h.signUp)
	r.Post("/login", h.login)
}

type signUpRequest struct {
	Username string `json:"username"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signUpResponse struct {
	Login string `json:"login"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Register(r.Context(), user.RegisterParams{
		Username: req.Username,
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrLoginTaken):
			respond.Detail(w, r, http.StatusBadRequest, "User already exists")
		case errors.Is(err, user.ErrInvalidUser):
			respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			respond.InternalError(w, r, err)
		}

		return
	}

	respond.JSON(w, r, http.StatusCreated, signUpResponse{Login: u.Login})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respond.Detail(w, r, http.StatusBadRequest, "User doesn't exist")
			return
		}

		respond.InternalError(w, r, err)

		return
	}

	token, err := auth.GenerateToken(u.Login, h.secret, h.tokenTTL)
	if err != nil {
		respond.InternalError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, tokenResponse{Token: token})
}
