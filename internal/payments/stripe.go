package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe implements Processor. The client is built per instance instead of
// through the package-level stripe.Key so tests can point it at a fake backend.
type Stripe struct {
	sessions      *session.Client
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return NewStripeWithBackend(secretKey, webhookSecret, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeWithBackend(secretKey, webhookSecret string, b stripe.Backend) *Stripe {
	return &Stripe{
		sessions:      &session.Client{B: b, Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			product.Description = stripe.String(li.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				UnitAmount:  stripe.Int64(li.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	cs, err := s.sessions.New(params)
	if err != nil {
		return Session{}, errs.Upstream("stripe", err)
	}
	if cs.ID == "" || cs.URL == "" {
		return Session{}, errs.Upstream("stripe", fmt.Errorf("checkout session response missing id or url"))
	}
	return Session{ID: cs.ID, URL: cs.URL}, nil
}

type sessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

// VerifyAndParseEvent checks the Stripe-Signature header (HMAC-SHA256 with the
// default 5 minute tolerance) and only then decodes the event.
func (s *Stripe) VerifyAndParseEvent(payload []byte, signature string) (Event, error) {
	if err := webhook.ValidatePayload(payload, signature, s.webhookSecret); err != nil {
		return Event{}, fmt.Errorf("%w: %v", errs.ErrInvalidSignature, err)
	}

	var evt stripe.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return out, nil
	}

	var obj sessionObject
	if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out.SessionID = obj.ID
	out.ClientReferenceID = obj.ClientReferenceID
	out.PaymentStatus = obj.PaymentStatus
	out.Metadata = obj.Metadata
	return out, nil
}
