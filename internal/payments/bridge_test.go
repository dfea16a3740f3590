package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBridge(store *memOrders, proc *fakeProcessor) *Bridge {
	return &Bridge{Orders: store, Processor: proc, Currency: "USD", FrontendURL: "https://shop.test/", Log: zap.NewNop()}
}

func TestCreateCheckoutBuildsLineItemsFromCapturedPrices(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	proc := &fakeProcessor{session: Session{ID: "cs_1", URL: "https://pay.test/cs_1"}}

	out, err := newBridge(store, proc).CreateCheckout(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, Checkout{SessionID: "cs_1", URL: "https://pay.test/cs_1"}, out)

	require.Len(t, proc.requests, 1)
	req := proc.requests[0]
	assert.Equal(t, "usd", req.Currency)
	assert.Equal(t, "o1", req.ClientReferenceID)
	assert.Equal(t, "o1", req.Metadata[MetaOrderID])
	assert.Equal(t, "https://shop.test/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://shop.test/cancel", req.CancelURL)
	assert.Equal(t, []LineItem{
		{Name: "Sunset pack", Description: "12 photos", UnitAmount: 500, Quantity: 1},
		{Name: "Lo-fi loops", UnitAmount: 900, Quantity: 1},
	}, req.LineItems)

	o, _ := store.Get(context.Background(), "o1")
	assert.Equal(t, "cs_1", o.PaymentSessionID)
}

func TestCreateCheckoutRefusesSettledOrders(t *testing.T) {
	paid := pendingOrder("o1")
	paid.Status = orders.StatusPaid
	proc := &fakeProcessor{session: Session{ID: "cs_1", URL: "u"}}

	_, err := newBridge(newMemOrders(paid), proc).CreateCheckout(context.Background(), "o1")
	assert.ErrorIs(t, err, orders.ErrOrderNotPending)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Empty(t, proc.requests)
}

func TestCreateCheckoutUnknownOrder(t *testing.T) {
	proc := &fakeProcessor{}
	_, err := newBridge(newMemOrders(), proc).CreateCheckout(context.Background(), "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, proc.requests)
}

func TestCreateCheckoutProcessorDown(t *testing.T) {
	store := newMemOrders(pendingOrder("o1"))
	proc := &fakeProcessor{err: errs.Upstream("stripe", errors.New("dial tcp: i/o timeout"))}

	_, err := newBridge(store, proc).CreateCheckout(context.Background(), "o1")
	assert.ErrorIs(t, err, errs.ErrUpstream)

	o, _ := store.Get(context.Background(), "o1")
	assert.Empty(t, o.PaymentSessionID)
	assert.Equal(t, orders.StatusPending, o.Status)
}

func TestLineItemNameFallsBackToAssetID(t *testing.T) {
	o := pendingOrder("o1")
	o.Items[1].Title = ""
	req := newBridge(nil, nil).BuildRequest(o)
	assert.Equal(t, "a2", req.LineItems[1].Name)
}
