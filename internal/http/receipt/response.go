package receipt

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

type productResponse struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int64       `json:"quantity"`
	Total    json.Number `json:"total"`
}

type paymentResponse struct {
	Type   receipt.PaymentType `json:"type"`
	Amount json.Number         `json:"amount"`
}

type receiptResponse struct {
	ID        uuid.UUID         `json:"id"`
	Products  []productResponse `json:"products"`
	Payment   paymentResponse   `json:"payment"`
	Total     json.Number       `json:"total"`
	Rest      json.Number       `json:"rest"`
	CreatedAt time.Time         `json:"created_at"`
}

type insufficientPaymentResponse struct {
	Detail   string      `json:"detail"`
	Required json.Number `json:"required"`
	Received json.Number `json:"received"`
}

// number renders money as a JSON number with two decimals.
func number(d decimal.Decimal) json.Number {
	return json.Number(money.Format(d))
}

func toResponse(r *receipt.Receipt) receiptResponse {
	products := make([]productResponse, len(r.Items))
	for i, it := range r.Items {
		products[i] = productResponse{
			Name:     it.Name,
			Price:    number(it.Price),
			Quantity: it.Quantity,
			Total:    number(it.Total),
		}
	}

	return receiptResponse{
		ID:       r.ID,
		Products: products,
		Payment: paymentResponse{
			Type:   r.Type,
			Amount: number(r.Amount),
		},
		Total:     number(r.Total),
		Rest:      number(r.Rest),
		CreatedAt: r.CreatedAt,
	}
}

func toResponseList(rs []*receipt.Receipt) []receiptResponse {
	resp := make([]receiptResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResponse(r)
	}

	return resp
}
