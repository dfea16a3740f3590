package orders

import (
	"encoding/json"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderPaid    = "OrderPaid"
	EventOrderFailed  = "OrderFailed"

	EventVersion = 1

	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "market-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemPrice struct {
	AssetID    string `json:"asset_id"`
	SellerID   string `json:"seller_id,omitempty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	BuyerID    string      `json:"buyer_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

// OrderSettledPayload is shared by OrderPaid and OrderFailed.
type OrderSettledPayload struct {
	OrderID          string      `json:"order_id"`
	BuyerID          string      `json:"buyer_id"`
	Status           Status      `json:"status"`
	PaymentSessionID string      `json:"payment_session_id,omitempty"`
	Items            []ItemPrice `json:"items"`
	TotalCents       int64       `json:"total_cents"`
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

func NewEnvelope(eventType, producer, orderID, traceID string, payload any) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
}

// Emit publishes env on topic keyed by its order id. A nil publisher is a no-op.
func Emit(p Publisher, topic string, env Envelope) {
	if p == nil {
		return
	}
	p.Publish(topic, PartitionKey(env.CorrelationID), kafkax.MustMarshal(env),
		kafkago.Header{Key: HeaderEventType, Value: []byte(env.EventType)},
		kafkago.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(env.EventVersion))},
	)
}

func ItemPrices(items []Item) []ItemPrice {
	out := make([]ItemPrice, 0, len(items))
	for _, it := range items {
		out = append(out, ItemPrice{AssetID: it.AssetID, SellerID: it.SellerID, PriceCents: it.PriceCents})
	}
	return out
}

// SettledEvent builds the OrderPaid/OrderFailed envelope for o.
func SettledEvent(o Order, producer, traceID string) Envelope {
	eventType := EventOrderPaid
	if o.Status == StatusFailed {
		eventType = EventOrderFailed
	}
	return NewEnvelope(eventType, producer, o.ID, traceID, OrderSettledPayload{
		OrderID:          o.ID,
		BuyerID:          o.BuyerID,
		Status:           o.Status,
		PaymentSessionID: o.PaymentSessionID,
		Items:            ItemPrices(o.Items),
		TotalCents:       o.TotalCents,
	})
}
