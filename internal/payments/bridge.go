package payments

import (
	"context"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/metrics"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"go.uber.org/zap"
)

// OrderSessions is the slice of the order store the bridge needs.
type OrderSessions interface {
	Get(ctx context.Context, orderID string) (orders.Order, error)
	AttachSession(ctx context.Context, orderID, sessionID string) error
}

// Bridge turns a pending order into a hosted checkout session.
type Bridge struct {
	Orders    OrderSessions
	Processor Processor
	Currency  string
	// FrontendURL is the buyer-facing origin; success and cancel URLs hang off it.
	FrontendURL string
	Log         *zap.Logger
}

type Checkout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (b *Bridge) SuccessURL() string {
	return strings.TrimRight(b.FrontendURL, "/") + "/success?session_id={CHECKOUT_SESSION_ID}"
}

func (b *Bridge) CancelURL() string {
	return strings.TrimRight(b.FrontendURL, "/") + "/cancel"
}

// BuildRequest maps the order items one-to-one onto processor line items,
// charging the captured price.
func (b *Bridge) BuildRequest(o orders.Order) CheckoutRequest {
	req := CheckoutRequest{
		Currency:          b.currency(),
		SuccessURL:        b.SuccessURL(),
		CancelURL:         b.CancelURL(),
		ClientReferenceID: o.ID,
		Metadata:          map[string]string{MetaOrderID: o.ID},
	}
	for _, it := range o.Items {
		name := it.Title
		if name == "" {
			name = it.AssetID
		}
		req.LineItems = append(req.LineItems, LineItem{
			Name:        name,
			Description: it.Description,
			UnitAmount:  it.PriceCents,
			Quantity:    1,
		})
	}
	return req
}

func (b *Bridge) CreateCheckout(ctx context.Context, orderID string) (Checkout, error) {
	o, err := b.Orders.Get(ctx, orderID)
	if err != nil {
		return Checkout{}, err
	}
	if o.Status != orders.StatusPending {
		metrics.CheckoutSessions.WithLabelValues("refused").Inc()
		return Checkout{}, orders.ErrOrderNotPending
	}

	sess, err := b.Processor.CreateCheckoutSession(ctx, b.BuildRequest(o))
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues("error").Inc()
		return Checkout{}, err
	}

	// order bisa saja settle di antara Get dan sini; AttachSession pakai CAS
	if err := b.Orders.AttachSession(ctx, o.ID, sess.ID); err != nil {
		metrics.CheckoutSessions.WithLabelValues("error").Inc()
		return Checkout{}, err
	}
	metrics.CheckoutSessions.WithLabelValues("created").Inc()
	b.Log.Info("checkout session created",
		zap.String("order_id", o.ID),
		zap.String("session_id", sess.ID),
		zap.Int64("total_cents", o.TotalCents),
	)
	return Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}

func (b *Bridge) currency() string {
	if b.Currency == "" {
		return "usd"
	}
	return strings.ToLower(b.Currency)
}
