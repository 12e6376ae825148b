package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/MrJamesThe3rd/kasa/internal/money"
	"github.com/MrJamesThe3rd/kasa/internal/receipt"
)

const EventReceiptCreated = "receipt.created"

// ReceiptCreated is the payload published after a receipt commits.
type ReceiptCreated struct {
	Event     string      `json:"event"`
	ReceiptID uuid.UUID   `json:"receipt_id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Type      string      `json:"type"`
	Amount    json.Number `json:"amount"`
	Total     json.Number `json:"total"`
	Rest      json.Number `json:"rest"`
	ItemCount int         `json:"item_count"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewReceiptCreated(r *receipt.Receipt) ReceiptCreated {
	return ReceiptCreated{
		Event:     EventReceiptCreated,
		ReceiptID: r.ID,
		OwnerID:   r.OwnerID,
		Type:      string(r.Type),
		Amount:    json.Number(money.Format(r.Amount)),
		Total:     json.Number(money.Format(r.Total)),
		Rest:      json.Number(money.Format(r.Rest)),
		ItemCount: len(r.Items),
		CreatedAt: r.CreatedAt,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
}

const (
	writeTimeout = 2 * time.Second
	maxAttempts  = 3
)

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{writer: newWriter(brokers, topic)}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		MaxAttempts:            maxAttempts,
		WriteTimeout:           writeTimeout,
		WriteBackoffMax:        250 * time.Millisecond,
	}
}

func (p *Publisher) PublishReceiptCreated(ctx context.Context, r *receipt.Receipt) error {
	data, err := json.Marshal(NewReceiptCreated(r))
	if err != nil {
		return fmt.Errorf("encoding receipt event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.ID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventReceiptCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing receipt event: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Noop discards events. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishReceiptCreated(context.Context, *receipt.Receipt) error { return nil }
func (Noop) Close() error                                                  { return nil }
