package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// memOrders applies the same compare-and-set rules as orders.Repo.
type memOrders struct {
	mu          sync.Mutex
	orders      map[string]orders.Order
	transitions int
	touched     int
	failWith    error
}

func newMemOrders(seed ...orders.Order) *memOrders {
	m := &memOrders{orders: map[string]orders.Order{}}
	for _, o := range seed {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) Get(_ context.Context, id string) (orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	o, ok := m.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (m *memOrders) AttachSession(_ context.Context, id, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	o, ok := m.orders[id]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if o.Status != orders.StatusPending {
		return orders.ErrOrderNotPending
	}
	o.PaymentSessionID = sessionID
	m.orders[id] = o
	return nil
}

func (m *memOrders) FindBySession(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	for id, o := range m.orders {
		if o.PaymentSessionID == sessionID {
			return id, nil
		}
	}
	return "", orders.ErrOrderNotFound
}

func (m *memOrders) Transition(_ context.Context, id string, to orders.Status, sessionID string) (orders.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched++
	m.transitions++
	if m.failWith != nil {
		return orders.TransitionResult{}, m.failWith
	}
	o, ok := m.orders[id]
	if !ok {
		return orders.TransitionResult{}, orders.ErrOrderNotFound
	}
	if o.Status != orders.StatusPending {
		return orders.TransitionResult{Previous: o.Status, Current: o.Status}, nil
	}
	if sessionID != "" && o.PaymentSessionID != "" && o.PaymentSessionID != sessionID {
		return orders.TransitionResult{Previous: o.Status, Current: o.Status}, nil
	}
	o.Status = to
	m.orders[id] = o
	return orders.TransitionResult{Applied: true, Previous: orders.StatusPending, Current: to}, nil
}

func (m *memOrders) status(id string) orders.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

type fakeProcessor struct {
	mu       sync.Mutex
	requests []CheckoutRequest
	session  Session
	err      error
	event    Event
	verify   error
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.session, f.err
}

func (f *fakeProcessor) VerifyAndParseEvent(_ []byte, _ string) (Event, error) {
	return f.event, f.verify
}

type recorder struct {
	mu     sync.Mutex
	topics []string
	values [][]byte
}

func (r *recorder) Publish(topic string, _, value []byte, _ ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.values = append(r.values, value)
}

// signHeader builds a Stripe-Signature header for payload.
func signHeader(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func sessionEvent(id, typ, orderID, sessionID, paymentStatus string) []byte {
	meta := "{}"
	if orderID != "" {
		meta = fmt.Sprintf(`{"order_id":%q}`, orderID)
	}
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "type": %q,
  "data": {
    "object": {
      "id": %q,
      "object": "checkout.session",
      "payment_status": %q,
      "metadata": %s
    }
  }
}`, id, typ, sessionID, paymentStatus, meta))
}

func pendingOrder(id string) orders.Order {
	return orders.Order{
		ID:         id,
		BuyerID:    "buyer-b",
		Status:     orders.StatusPending,
		TotalCents: 1400,
		Items: []orders.Item{
			{ID: "i1", OrderID: id, AssetID: "a1", PriceCents: 500, Title: "Sunset pack", Description: "12 photos", SellerID: "s1"},
			{ID: "i2", OrderID: id, AssetID: "a2", PriceCents: 900, Title: "Lo-fi loops", SellerID: "s2"},
		},
	}
}
