package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/payments"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Stripe caps event payloads well below this.
const maxWebhookBytes = 64 << 10

type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, orderID string) (payments.Checkout, error)
}

type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signature string) (payments.Ack, error)
}

type PaymentsHandler struct {
	Checkout CheckoutCreator
	Webhook  WebhookProcessor
	Log      *zap.Logger
}

type CheckoutReq struct {
	OrderID string `json:"order_id"`
}

func (h *PaymentsHandler) Register(r chi.Router) {
	r.Post("/payments/checkout", h.checkout)
	r.Post("/payments/webhook", h.webhook)
}

func (h *PaymentsHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		writeError(w, h.Log, fmt.Errorf("%w: order_id is required", errs.ErrInvalid))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	out, err := h.Checkout.CreateCheckout(ctx, req.OrderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// webhook needs the raw bytes; the signature covers them exactly.
func (h *PaymentsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, h.Log, fmt.Errorf("%w: unreadable body", errs.ErrInvalid))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ack, err := h.Webhook.Handle(ctx, payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}
