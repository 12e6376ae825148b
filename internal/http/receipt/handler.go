package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const maxImportSize = 1 << 20

type Handler struct {
	svc          *receipt.Service
	importer     *importer.Service
	defaultWidth int
	maxWidth     int
}

func NewHandler(svc *receipt.Service, imp *importer.Service, defaultWidth, maxWidth int) *Handler {
	return &Handler{
		svc:          svc,
		importer:     imp,
		defaultWidth: defaultWidth,
		maxWidth:     maxWidth,
	}
}

// Routes registers the endpoints that require an authenticated owner.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Post("/import", h.importCSV)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

// PublicRoutes registers the endpoints served without a token.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/{id}/txt", h.text)
}

type productRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type paymentRequest struct {
	Type   receipt.PaymentType `json:"type"`
	Amount decimal.Decimal     `json:"amount"`
}

type createReceiptRequest struct {
	Products []productRequest `json:"products"`
	Payment  paymentRequest   `json:"payment"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]receipt.LineItem, len(req.Products))
	for i, p := range req.Products {
		items[i] = receipt.LineItem{Name: p.Name, Price: p.Price, Quantity: p.Quantity}
	}

	h.createAndRespond(w, r, receipt.Payment{Type: req.Payment.Type, Amount: req.Payment.Amount}, items)
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Detail(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	amount, err := decimal.NewFromString(r.FormValue("payment_amount"))
	if err != nil {
		respond.Detail(w, r, http.StatusUnprocessableEntity, "payment_amount: invalid decimal")
		return
	}

	items, err := h.importer.Import(file, r.FormValue("charset"))
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

	payment := receipt.Payment{Type: receipt.PaymentType(r.FormValue("payment_type")), Amount: amount}
	h.createAndRespond(w, r, payment, items)
}

func (h *Handler) createAndRespond(w http.ResponseWriter, r *http.Request, payment receipt.Payment, items []receipt.LineItem) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Detail(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	rec, err := h.svc.Create(r.Context(), receipt.Owner{ID: u.ID, Name: u.Username}, payment, items)
	if err != nil {
		var insufficient *receipt.InsufficientPaymentError

		switch {
		case errors.As(err, &insufficient):
			respond.JSON(w, r, http.StatusBadRequest, insufficientPaymentResponse{
				Detail:   insufficient.Error(),
				Required: number(insufficient.Required),
				Received: number(insufficient.Received),
			})
		case errors.Is(err, receipt.ErrInvalidReceipt):
			respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		default:
			respond.InternalError(w, r, err)
		}

		return
	}

	respond.JSON(w, r, http.StatusCreated, toResponse(rec))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Detail(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	receipts, err := h.svc.List(r.Context(), u.ID, q.filter, q.limit, q.offset)
	if err != nil {
		respond.InternalError(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponseList(receipts))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	respond.JSON(w, r, http.StatusOK, toResponse(rec))
}

func (h *Handler) text(w http.ResponseWriter, r *http.Request) {
	width := h.defaultWidth

	if s := r.URL.Query().Get("chars_per_line"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > h.maxWidth {
			respond.Detail(w, r, http.StatusUnprocessableEntity,
				fmt.Sprintf("chars_per_line: must be an integer between 1 and %d", h.maxWidth))

			return
		}

		width = n
	}

	charset, err := encoding.Canonical(r.URL.Query().Get("charset"))
	if err != nil {
		respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rec, ok := h.load(w, r)
	if !ok {
		return
	}

	body, err := encoding.Encode(receipt.Format(rec, width), charset)
	if err != nil {
		respond.InternalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset="+charset)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// load fetches the receipt named by the id URL parameter, writing the error
// response itself when it cannot.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*receipt.Receipt, bool) {
	raw := chi.URLParam(r, "id")

	notFound := func() {
		respond.Detail(w, r, http.StatusNotFound, fmt.Sprintf("Receipt with id %s doesn't exist", raw))
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		notFound()
		return nil, false
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, receipt.ErrNotFound) {
			notFound()
			return nil, false
		}

		respond.InternalError(w, r, err)

		return nil, false
	}

	return rec, true
}
