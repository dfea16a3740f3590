package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test"

func newWebhook(t *testing.T, store *memOrders, pub *recorder) (*WebhookHandler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &WebhookHandler{
		Processor:   NewStripe("sk_test", testSecret),
		Orders:      store,
		Redis:       rdb,
		Publisher:   pub,
		ServiceName: "market-api",
		Log:         zap.NewNop(),
	}, mr
}

func deliver(t *testing.T, h *WebhookHandler, payload []byte) (Ack, error) {
	t.Helper()
	return h.Handle(context.Background(), payload, signHeader(testSecret, payload, time.Now()))
}

func TestTargetStatus(t *testing.T) {
	cases := []struct {
		evt  Event
		want orders.Status
		ok   bool
	}{
		{Event{Type: EventCheckoutCompleted, PaymentStatus: "paid"}, orders.StatusPaid, true},
		{Event{Type: EventCheckoutCompleted, PaymentStatus: "no_payment_required"}, orders.StatusPaid, true},
		{Event{Type: EventCheckoutCompleted, PaymentStatus: "unpaid"}, "", false},
		{Event{Type: EventAsyncPaymentSucceeded}, orders.StatusPaid, true},
		{Event{Type: EventAsyncPaymentFailed}, orders.StatusFailed, true},
		{Event{Type: EventCheckoutExpired}, orders.StatusFailed, true},
		{Event{Type: "payment_intent.created"}, "", false},
	}
	for _, c := range cases {
		got, ok := TargetStatus(c.evt)
		assert.Equal(t, c.ok, ok, c.evt.Type)
		assert.Equal(t, c.want, got, c.evt.Type)
	}
}

func TestWebhookCompletedMarksPaidAndPublishes(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	pub := &recorder{}
	h, mr := newWebhook(t, store, pub)
	mr.Set(redisx.OrderStatus("o1"), "PENDING")

	ack, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "paid"))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusPaid, store.status("o1"))
	assert.False(t, mr.Exists(redisx.OrderStatus("o1")))
	assert.True(t, mr.Exists("dedup:webhook:evt_1"))

	require.Len(t, pub.topics, 1)
	assert.Equal(t, orders.TopicOrderPaid, pub.topics[0])
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.values[0], &env))
	assert.Equal(t, orders.EventOrderPaid, env.EventType)
	assert.Equal(t, "o1", env.CorrelationID)
	assert.Equal(t, "evt_1", env.TraceID)
}

func TestWebhookDuplicateDeliveryIsNoop(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	pub := &recorder{}
	h, _ := newWebhook(t, store, pub)
	payload := sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "paid")

	_, err := deliver(t, h, payload)
	require.NoError(t, err)
	ack, err := deliver(t, h, payload)
	require.NoError(t, err)

	assert.True(t, ack.Received)
	assert.Equal(t, 1, store.transitions)
	assert.Len(t, pub.topics, 1)
}

func TestWebhookFirstTerminalEventWins(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	pub := &recorder{}
	h, _ := newWebhook(t, store, pub)

	_, err := deliver(t, h, sessionEvent("evt_paid", EventAsyncPaymentSucceeded, "o1", "cs_1", "paid"))
	require.NoError(t, err)
	ack, err := deliver(t, h, sessionEvent("evt_exp", EventCheckoutExpired, "o1", "cs_1", "unpaid"))
	require.NoError(t, err)

	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusPaid, store.status("o1"))
	assert.Len(t, pub.topics, 1)
}

func TestWebhookBadSignatureMutatesNothing(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	pub := &recorder{}
	h, mr := newWebhook(t, store, pub)
	payload := sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "paid")

	_, err := h.Handle(context.Background(), payload, signHeader("whsec_other", payload, time.Now()))
	assert.ErrorIs(t, err, errs.ErrInvalidSignature)

	_, err = h.Handle(context.Background(), payload, "")
	assert.ErrorIs(t, err, errs.ErrInvalidSignature)

	assert.Equal(t, 0, store.touched)
	assert.Equal(t, orders.StatusPending, store.status("o1"))
	assert.Empty(t, pub.topics)
	assert.Empty(t, mr.Keys())
}

func TestWebhookStaleSignatureRejected(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	h, _ := newWebhook(t, store, &recorder{})
	payload := sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "paid")

	_, err := h.Handle(context.Background(), payload, signHeader(testSecret, payload, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, errs.ErrInvalidSignature)
	assert.Equal(t, 0, store.touched)
}

func TestWebhookUnpaidCompletionWaits(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	h, _ := newWebhook(t, store, &recorder{})

	ack, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "unpaid"))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusPending, store.status("o1"))

	_, err = deliver(t, h, sessionEvent("evt_2", EventAsyncPaymentFailed, "o1", "cs_1", "unpaid"))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusFailed, store.status("o1"))
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	h, _ := newWebhook(t, store, &recorder{})

	ack, err := deliver(t, h, sessionEvent("evt_1", "customer.created", "o1", "cs_1", ""))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, 0, store.touched)
}

func TestWebhookResolvesOrderBySession(t *testing.T) {
	o := pendingOrder("o1")
	o.PaymentSessionID = "cs_42"
	store := newMemOrders(o)
	h, _ := newWebhook(t, store, &recorder{})

	_, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "", "cs_42", "paid"))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, store.status("o1"))
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	store := newMemOrders()
	h, _ := newWebhook(t, store, &recorder{})

	ack, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "deleted-order", "cs_1", "paid"))
	require.NoError(t, err)
	assert.True(t, ack.Received)
}

func TestWebhookForeignSessionIsAcknowledged(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	pub := &recorder{}
	h, _ := newWebhook(t, store, pub)

	ack, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "", "cs_foreign", "paid"))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusPending, store.status("o1"))
	assert.Empty(t, pub.topics)
}

func TestWebhookStoreDownReleasesDedup(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	store.failWith = errs.Upstream("postgres", errors.New("connection refused"))
	h, mr := newWebhook(t, store, &recorder{})

	ack, err := deliver(t, h, sessionEvent("evt_1", EventCheckoutCompleted, "o1", "cs_1", "paid"))
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.False(t, ack.Received)
	assert.False(t, mr.Exists("dedup:webhook:evt_1"))
}

func TestWebhookExpiryOfReplacedSessionKeepsOrderPayable(t *testing.T) {
	o := pendingOrder("o1")
	o.PaymentSessionID = "cs_2"
	store := newMemOrders(o)
	pub := &recorder{}
	h, _ := newWebhook(t, store, pub)

	ack, err := deliver(t, h, sessionEvent("evt_exp", EventCheckoutExpired, "o1", "cs_1", "unpaid"))
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusPending, store.status("o1"))

	_, err = deliver(t, h, sessionEvent("evt_fail", EventAsyncPaymentFailed, "o1", "cs_1", "unpaid"))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, store.status("o1"))

	_, err = deliver(t, h, sessionEvent("evt_paid", EventCheckoutCompleted, "o1", "cs_2", "paid"))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, store.status("o1"))
	assert.Equal(t, []string{orders.TopicOrderPaid}, pub.topics)
}

func TestWebhookExpiryOfCurrentSessionFailsOrder(t *testing.T) {
	o := pendingOrder("o1")
	o.PaymentSessionID = "cs_2"
	store := newMemOrders(o)
	h, _ := newWebhook(t, store, &recorder{})

	_, err := deliver(t, h, sessionEvent("evt_exp", EventCheckoutExpired, "o1", "cs_2", "unpaid"))
	require.NoError(t, err)
	assert.Equal(t, orders.StatusFailed, store.status("o1"))
}

func TestWebhookWithoutRedis(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	proc := &fakeProcessor{event: Event{ID: "evt_1", Type: EventCheckoutExpired, ClientReferenceID: "o1"}}
	h := &WebhookHandler{Processor: proc, Orders: store, Log: zap.NewNop()}

	ack, err := h.Handle(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, orders.StatusFailed, store.status("o1"))
}
