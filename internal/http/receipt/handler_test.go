package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/kasa/internal/http/middleware"
	receiptHandler "github.com/MrJamesThe3rd/kasa/internal/http/receipt"
	"github.com/MrJamesThe3rd/kasa/internal/importer"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
	"github.com/MrJamesThe3rd/kasa/internal/user"
)

var (
	cashier   = &user.User{ID: uuid.New(), Username: "test_username", Login: "cashier"}
	createdAt = time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRouter(repo receipt.Repository) http.Handler {
	h := receiptHandler.NewHandler(receipt.NewService(repo, nil), importer.NewService(), 32, 120)

	r := chi.NewRouter()
	r.Route("/receipts", func(r chi.Router) {
		h.PublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(middleware.ContextWithUser(req.Context(), cashier)))
				})
			})
			h.Routes(r)
		})
	})

	return r
}

func stored(id uuid.UUID) *receipt.Receipt {
	return &receipt.Receipt{
		ID:        id,
		OwnerID:   cashier.ID,
		OwnerName: cashier.Username,
		Type:      receipt.PaymentCash,
		Amount:    dec("200"),
		Items: []receipt.Item{
			{Position: 0, Name: "Apple", Price: dec("1.5"), Quantity: 10, Total: dec("15")},
			{Position: 1, Name: "Banana", Price: dec("1.2"), Quantity: 5, Total: dec("6")},
		},
		Total:     dec("21"),
		Rest:      dec("179"),
		CreatedAt: createdAt,
	}
}

// expectCreate stages a receipt through the mocked transaction. commit is
// false when the payment is expected to fall short.
func expectCreate(repo *receipt.MockRepository, tx *receipt.MockCreateTx, id uuid.UUID, items int, commit bool) {
	repo.EXPECT().BeginCreate(gomock.Any()).Return(tx, nil)
	tx.EXPECT().InsertReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			r.ID = id
			r.CreatedAt = createdAt

			return nil
		})
	tx.EXPECT().InsertItem(gomock.Any(), id, gomock.Any()).Return(nil).Times(items)

	if commit {
		tx.EXPECT().SetTotals(gomock.Any(), id, gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)

		return
	}

	tx.EXPECT().Rollback().Return(nil)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

const fruitBody = `{"products":[{"name":"Apple","price":1.5,"quantity":10},{"name":"Banana","price":1.2,"quantity":5}],` +
	`"payment":{"type":"cash","amount":%s}}`

func TestHandler_Create(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		body       string
		setupMock  func(repo *receipt.MockRepository, tx *receipt.MockCreateTx)
		wantStatus int
		verify     func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success",
			body: strings.Replace(fruitBody, "%s", "200", 1),
			setupMock: func(repo *receipt.MockRepository, tx *receipt.MockCreateTx) {
				expectCreate(repo, tx, id, 2, true)
			},
			wantStatus: http.StatusCreated,
			verify: func(t *testing.T, rec *httptest.ResponseRecorder) {
				raw := rec.Body.String()
				assert.Contains(t, raw, `"total":21.00`)
				assert.Contains(t, raw, `"rest":179.00`)
				assert.Contains(t, raw, `"payment":{"type":"cash","amount":200.00}`)

				body := decode(t, rec)
				assert.Equal(t, id.String(), body["id"])

				products := body["products"].([]any)
				require.Len(t, products, 2)
				assert.Equal(t, "Apple", products[0].(map[string]any)["name"])
				assert.InDelta(t, 15.0, products[0].(map[string]any)["total"], 0.001)
			},
		},
		{
			name: "InsufficientPayment",
			body: strings.Replace(fruitBody, "%s", "20", 1),
			setupMock: func(repo *receipt.MockRepository, tx *receipt.MockCreateTx) {
				expectCreate(repo, tx, id, 2, false)
			},
			wantStatus: http.StatusBadRequest,
			verify: func(t *testing.T, rec *httptest.ResponseRecorder) {
				body := decode(t, rec)
				assert.Equal(t, "Insufficient payment: required 21.00, but received 20.00", body["detail"])
				assert.InDelta(t, 21.0, body["required"], 0.001)
				assert.InDelta(t, 20.0, body["received"], 0.001)
			},
		},
		{
			name:       "UnknownPaymentType",
			body:       `{"products":[{"name":"Apple","price":1,"quantity":1}],"payment":{"type":"crypto","amount":5}}`,
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "PriceBeyondCents",
			body:       `{"products":[{"name":"Nails","price":0.333,"quantity":3}],"payment":{"type":"cash","amount":5}}`,
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "NoProducts",
			body:       `{"products":[],"payment":{"type":"cash","amount":5}}`,
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "MalformedJSON",
			body:       `{"products":`,
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "StorageFailure",
			body: strings.Replace(fruitBody, "%s", "200", 1),
			setupMock: func(repo *receipt.MockRepository, _ *receipt.MockCreateTx) {
				repo.EXPECT().BeginCreate(gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			verify: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "internal error", decode(t, rec)["detail"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := receipt.NewMockRepository(ctrl)
			tx := receipt.NewMockCreateTx(ctrl)
			tt.setupMock(repo, tx)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/receipts/", strings.NewReader(tt.body))
			newRouter(repo).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.verify != nil {
				tt.verify(t, rec)
			}
		})
	}
}

func multipartBody(t *testing.T, csv []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "items.csv")
	require.NoError(t, err)

	_, err = fw.Write(csv)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestHandler_Import(t *testing.T) {
	id := uuid.New()
	csv := []byte("Назва;Ціна;Кількість\nЯблуко;1,50;10\nБанан;1,20;5\n")

	cp1251, err := charmap.Windows1251.NewEncoder().Bytes(csv)
	require.NoError(t, err)

	tests := []struct {
		name       string
		csv        []byte
		fields     map[string]string
		setupMock  func(repo *receipt.MockRepository, tx *receipt.MockCreateTx)
		wantStatus int
	}{
		{
			name:   "Success",
			csv:    csv,
			fields: map[string]string{"payment_type": "cashless", "payment_amount": "21"},
			setupMock: func(repo *receipt.MockRepository, tx *receipt.MockCreateTx) {
				expectCreate(repo, tx, id, 2, true)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "DeclaredCharset",
			csv:    cp1251,
			fields: map[string]string{"payment_type": "cash", "payment_amount": "50", "charset": "windows-1251"},
			setupMock: func(repo *receipt.MockRepository, tx *receipt.MockCreateTx) {
				expectCreate(repo, tx, id, 2, true)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "Insufficient",
			csv:    csv,
			fields: map[string]string{"payment_type": "cash", "payment_amount": "20"},
			setupMock: func(repo *receipt.MockRepository, tx *receipt.MockCreateTx) {
				expectCreate(repo, tx, id, 2, false)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NoHeader",
			csv:        []byte("Apple;1;1\n"),
			fields:     map[string]string{"payment_type": "cash", "payment_amount": "20"},
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "BadAmount",
			csv:        csv,
			fields:     map[string]string{"payment_type": "cash", "payment_amount": "lots"},
			setupMock:  func(*receipt.MockRepository, *receipt.MockCreateTx) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := receipt.NewMockRepository(ctrl)
			tx := receipt.NewMockCreateTx(ctrl)
			tt.setupMock(repo, tx)

			body, contentType := multipartBody(t, tt.csv, tt.fields)

			req := httptest.NewRequest(http.MethodPost, "/receipts/import", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			newRouter(repo).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_List(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		query      string
		setupMock  func(repo *receipt.MockRepository)
		wantStatus int
		wantLen    int
	}{
		{
			name:  "Defaults",
			query: "",
			setupMock: func(repo *receipt.MockRepository) {
				repo.EXPECT().ListReceipts(gomock.Any(), cashier.ID, receipt.ListFilter{}, 100, 0).
					Return([]*receipt.Receipt{stored(id)}, nil)
			},
			wantStatus: http.StatusOK,
			wantLen:    1,
		},
		{
			name:  "Filters",
			query: "?total__gt=25&total__lt=100.5&type=cashless&created_at__gt=2024-03-01&created_at__lt=2024-03-31T12:00:00Z&limit=10&offset=5",
			setupMock: func(repo *receipt.MockRepository) {
				repo.EXPECT().ListReceipts(gomock.Any(), cashier.ID, gomock.Any(), 10, 5).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, f receipt.ListFilter, _, _ int) ([]*receipt.Receipt, error) {
						require.NotNil(t, f.TotalGT)
						assert.True(t, f.TotalGT.Equal(dec("25")))
						require.NotNil(t, f.TotalLT)
						assert.True(t, f.TotalLT.Equal(dec("100.5")))
						require.NotNil(t, f.Type)
						assert.Equal(t, receipt.PaymentCashless, *f.Type)
						require.NotNil(t, f.CreatedAtGT)
						assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.CreatedAtGT)
						require.NotNil(t, f.CreatedAtLT)
						assert.Equal(t, time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC), f.CreatedAtLT.UTC())

						return nil, nil
					})
			},
			wantStatus: http.StatusOK,
			wantLen:    0,
		},
		{
			name:       "BadTotal",
			query:      "?total__gt=abc",
			setupMock:  func(*receipt.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "BadType",
			query:      "?type=voucher",
			setupMock:  func(*receipt.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "NegativeLimit",
			query:      "?limit=-1",
			setupMock:  func(*receipt.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "BadDate",
			query:      "?created_at__gt=yesterday",
			setupMock:  func(*receipt.MockRepository) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := receipt.NewMockRepository(ctrl)
			tt.setupMock(repo)

			rec := httptest.NewRecorder()
			newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus == http.StatusOK {
				var body []any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Len(t, body, tt.wantLen)
			}
		})
	}
}

func TestHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("Found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := receipt.NewMockRepository(ctrl)
		repo.EXPECT().GetReceipt(gomock.Any(), id).Return(stored(id), nil)

		rec := httptest.NewRecorder()
		newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String(), nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id.String(), decode(t, rec)["id"])
	})

	t.Run("OtherOwnersReceipt", func(t *testing.T) {
		other := stored(id)
		other.OwnerID = uuid.New()

		ctrl := gomock.NewController(t)
		repo := receipt.NewMockRepository(ctrl)
		repo.EXPECT().GetReceipt(gomock.Any(), id).Return(other, nil)

		rec := httptest.NewRecorder()
		newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := receipt.NewMockRepository(ctrl)
		repo.EXPECT().GetReceipt(gomock.Any(), id).Return(nil, receipt.ErrNotFound)

		rec := httptest.NewRecorder()
		newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String(), nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Receipt with id "+id.String()+" doesn't exist", decode(t, rec)["detail"])
	})

	t.Run("MalformedID", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := receipt.NewMockRepository(ctrl)

		rec := httptest.NewRecorder()
		newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/42", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Text(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name        string
		query       string
		found       bool
		wantStatus  int
		wantCharset string
		verify      func(t *testing.T, body []byte)
	}{
		{
			name:        "DefaultWidth",
			found:       true,
			wantStatus:  http.StatusOK,
			wantCharset: "utf-8",
			verify: func(t *testing.T, body []byte) {
				assert.Equal(t, receipt.Format(stored(id), 32), string(body))
			},
		},
		{
			name:        "Width40",
			query:       "?chars_per_line=40",
			found:       true,
			wantStatus:  http.StatusOK,
			wantCharset: "utf-8",
			verify: func(t *testing.T, body []byte) {
				assert.Contains(t, strings.Split(string(body), "\n"), strings.Repeat("=", 40))
			},
		},
		{
			name:        "CP866",
			query:       "?charset=cp866",
			found:       true,
			wantStatus:  http.StatusOK,
			wantCharset: "cp866",
			verify: func(t *testing.T, body []byte) {
				decoded, err := charmap.CodePage866.NewDecoder().Bytes(body)
				require.NoError(t, err)
				assert.Equal(t, receipt.Format(stored(id), 32), string(decoded))
			},
		},
		{
			name:       "WidthTooLarge",
			query:      "?chars_per_line=500",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "UnknownCharset",
			query:      "?charset=koi8-u",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "NotFound",
			found:      false,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := receipt.NewMockRepository(ctrl)

			if tt.wantStatus != http.StatusUnprocessableEntity {
				if tt.found {
					repo.EXPECT().GetReceipt(gomock.Any(), id).Return(stored(id), nil)
				} else {
					repo.EXPECT().GetReceipt(gomock.Any(), id).Return(nil, receipt.ErrNotFound)
				}
			}

			// No user in context: the text endpoint is public.
			h := receiptHandler.NewHandler(receipt.NewService(repo, nil), importer.NewService(), 32, 120)
			r := chi.NewRouter()
			r.Route("/receipts", h.PublicRoutes)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receipts/"+id.String()+"/txt"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.verify != nil {
				assert.Equal(t, "text/plain; charset="+tt.wantCharset, rec.Header().Get("Content-Type"))
				tt.verify(t, rec.Body.Bytes())
			}
		})
	}
}
