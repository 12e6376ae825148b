package importcsv

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/money"
)

const maxUploadSize = 1 << 20

// Handler parses product files without creating anything, so a client can
// show the rows before submitting them as a receipt.
type Handler struct {
	importSvc importer.Importer
}

func NewHandler(importSvc importer.Importer) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.preview)
}

type productDTO struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int64       `json:"quantity"`
	Total    json.Number `json:"total"`
}

type previewResponse struct {
	Products []productDTO `json:"products"`
	Total    json.Number  `json:"total"`
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	items, err := h.importSvc.Import(file, r.FormValue("charset"))
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrNoHeader),
			errors.Is(err, importer.ErrNoItems),
			errors.Is(err, importer.ErrInvalidRow),
			errors.Is(err, encoding.ErrUnsupportedCharset):
			respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			respond.InternalError(w, r, err)
		}

		return
	}

	resp := previewResponse{Products: make([]productDTO, 0, len(items))}
	totals := make([]decimal.Decimal, 0, len(items))

	for _, it := range items {
		line := money.LineTotal(it.Price, it.Quantity)
		totals = append(totals, line)

		resp.Products = append(resp.Products, productDTO{
			Name:     it.Name,
			Price:    number(it.Price),
			Quantity: it.Quantity,
			Total:    number(line),
		})
	}

	resp.Total = number(money.Sum(totals...))

	respond.JSON(w, r, http.StatusOK, resp)
}
