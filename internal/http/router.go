package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/kasa/internal/http/export"
	"github.com/MrJamesThe3rd/kasa/internal/http/importcsv"
	kasamw "github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	"github.com/MrJamesThe3rd/kasa/internal/http/receipt"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/http/user"
)

type Options struct {
	AllowedOrigins []string
	Auth           func(http.Handler) http.Handler
	RateLimit      func(http.Handler) http.Handler
}

func New(
	usersV1 *user.Handler,
	receiptsV1 *receipt.Handler,
	importsV1 *importcsv.Handler,
	exportsV1 *export.Handler,
	opts Options,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(kasamw.Logging)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/health", health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			if opts.RateLimit != nil {
				r.Use(opts.RateLimit)
			}

			r.Use(middleware.AllowContentType("application/json"))
			usersV1.Routes(r)
		})

		r.Route("/receipts", func(r chi.Router) {
			receiptsV1.PublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(opts.Auth)
				receiptsV1.Routes(r)
			})
		})

		r.Route("/imports", func(r chi.Router) {
			r.Use(opts.Auth)
			importsV1.Routes(r)
		})

		r.Route("/exports", func(r chi.Router) {
			r.Use(opts.Auth)
			exportsV1.Routes(r)
		})
	})

	return router
}

func health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
