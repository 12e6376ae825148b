package export

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/encoding"
	"github.com/MrJamesThe3rd/kasa/internal/export"
	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	"github.com/MrJamesThe3rd/kasa/internal/http/respond"
	"github.com/MrJamesThe3rd/kasa/internal/logging"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

type Handler struct {
	svc          *export.Service
	defaultWidth int
	maxWidth     int
}

func NewHandler(svc *export.Service, defaultWidth, maxWidth int) *Handler {
	return &Handler{svc: svc, defaultWidth: defaultWidth, maxWidth: maxWidth}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	CreatedAtGT  *time.Time           `json:"created_at__gt,omitempty"`
	CreatedAtLT  *time.Time           `json:"created_at__lt,omitempty"`
	TotalGT      *decimal.Decimal     `json:"total__gt,omitempty"`
	TotalLT      *decimal.Decimal     `json:"total__lt,omitempty"`
	Type         *receipt.PaymentType `json:"type,omitempty"`
	CharsPerLine int                  `json:"chars_per_line,omitempty"`
	Charset      string               `json:"charset,omitempty"`
}

type exportedReceipt struct {
	ID        uuid.UUID           `json:"id"`
	Type      receipt.PaymentType `json:"type"`
	Total     json.Number         `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	File      string              `json:"file"`
}

type exportMetadataResponse struct {
	Receipts []exportedReceipt `json:"receipts"`
	Summary  string            `json:"summary"`
}

func (req exportRequest) filter() receipt.ListFilter {
	return receipt.ListFilter{
		TotalGT:     req.TotalGT,
		TotalLT:     req.TotalLT,
		Type:        req.Type,
		CreatedAtGT: req.CreatedAtGT,
		CreatedAtLT: req.CreatedAtLT,
	}
}

// decode reads and validates the request body, writing the error response
// itself when it cannot.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (exportRequest, export.Options, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Detail(w, r, http.StatusBadRequest, "invalid request body")
		return req, export.Options{}, false
	}

	if req.Type != nil && !req.Type.Valid() {
		respond.Detail(w, r, http.StatusUnprocessableEntity, fmt.Sprintf("type: unknown payment type %q", *req.Type))
		return req, export.Options{}, false
	}

	width := h.defaultWidth
	if req.CharsPerLine != 0 {
		if req.CharsPerLine < 1 || req.CharsPerLine > h.maxWidth {
			respond.Detail(w, r, http.StatusUnprocessableEntity,
				fmt.Sprintf("chars_per_line: must be an integer between 1 and %d", h.maxWidth))

			return req, export.Options{}, false
		}

		width = req.CharsPerLine
	}

	charset, err := encoding.Canonical(req.Charset)
	if err != nil {
		respond.Detail(w, r, http.StatusUnprocessableEntity, err.Error())
		return req, export.Options{}, false
	}

	return req, export.Options{Width: width, Charset: charset}, true
}

// run exports into a fresh temporary directory. The caller removes it.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) ([]export.Item, string, bool) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Detail(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return nil, "", false
	}

	req, opts, ok := h.decode(w, r)
	if !ok {
		return nil, "", false
	}

	tmpDir, err := os.MkdirTemp("", "kasa-export-*")
	if err != nil {
		respond.InternalError(w, r, err)
		return nil, "", false
	}

	items, err := h.svc.Export(r.Context(), u.ID, req.filter(), tmpDir, opts)
	if err != nil {
		os.RemoveAll(tmpDir)
		respond.InternalError(w, r, err)

		return nil, "", false
	}

	return items, tmpDir, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	items, tmpDir, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	resp := exportMetadataResponse{
		Receipts: make([]exportedReceipt, 0, len(items)),
		Summary:  h.svc.GenerateSummary(items),
	}

	for _, item := range items {
		resp.Receipts = append(resp.Receipts, exportedReceipt{
			ID:        item.Receipt.ID,
			Type:      item.Receipt.Type,
			Total:     json.Number(item.Receipt.Total.StringFixed(2)),
			CreatedAt: item.Receipt.CreatedAt,
			File:      filepath.Base(item.FilePath),
		})
	}

	respond.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	items, tmpDir, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	summary := h.svc.GenerateSummary(items)
	if err := os.WriteFile(filepath.Join(tmpDir, "summary.txt"), []byte(summary), 0o644); err != nil {
		respond.InternalError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"receipts_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err := filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create zip", "error", err)
	}
}
