// Package payments bridges orders to the hosted checkout of the payment processor
// and applies the processor's asynchronous completion events to order state.
package payments

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
)

// Metadata keys written on every checkout session.
const MetaOrderID = "order_id"

// Event types we act on. Everything else is acknowledged and ignored.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired       = "checkout.session.expired"
)

type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

type CheckoutRequest struct {
	LineItems         []LineItem
	Currency          string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// Event is a verified processor notification reduced to what order handling needs.
type Event struct {
	ID                string
	Type              string
	SessionID         string
	ClientReferenceID string
	PaymentStatus     string
	Metadata          map[string]string
}

// Processor is the hosted checkout provider.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error)
	// VerifyAndParseEvent must check the signature before decoding anything;
	// failures wrap errs.ErrInvalidSignature.
	VerifyAndParseEvent(payload []byte, signature string) (Event, error)
}

var ErrInvalidPayload = fmt.Errorf("%w: malformed event payload", errs.ErrInvalid)
