package payments

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/metrics"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OrderSettler is the slice of the order store the webhook needs.
type OrderSettler interface {
	Get(ctx context.Context, orderID string) (orders.Order, error)
	FindBySession(ctx context.Context, sessionID string) (string, error)
	Transition(ctx context.Context, orderID string, to orders.Status, sessionID string) (orders.TransitionResult, error)
}

type WebhookHandler struct {
	Processor   Processor
	Orders      OrderSettler
	Redis       redis.Cmdable    // optional: event dedup + status cache invalidation
	Publisher   orders.Publisher // optional
	ServiceName string
	Log         *zap.Logger
}

type Ack struct {
	Received bool `json:"received"`
}

// TargetStatus maps a processor event onto the order status it settles to.
// ok is false for events that must not touch the order.
func TargetStatus(e Event) (orders.Status, bool) {
	switch e.Type {
	case EventCheckoutCompleted:
		// delayed payment methods: tunggu async_payment_succeeded/failed
		if e.PaymentStatus == "unpaid" {
			return "", false
		}
		return orders.StatusPaid, true
	case EventAsyncPaymentSucceeded:
		return orders.StatusPaid, true
	case EventAsyncPaymentFailed, EventCheckoutExpired:
		return orders.StatusFailed, true
	}
	return "", false
}

// Handle verifies the delivery, then applies it at most once. Nothing is read or
// written before the signature checks out.
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, signature string) (Ack, error) {
	evt, err := h.Processor.VerifyAndParseEvent(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		h.Log.Warn("webhook rejected", zap.Error(err))
		return Ack{}, err
	}
	log := h.Log.With(zap.String("event_id", evt.ID), zap.String("event_type", evt.Type))

	to, ok := TargetStatus(evt)
	if !ok {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
		log.Debug("webhook ignored")
		return Ack{Received: true}, nil
	}

	var dedupKey string
	if h.Redis != nil && evt.ID != "" {
		dedupKey = redisx.Dedup("webhook", evt.ID)
		first, err := redisx.Claim(ctx, h.Redis, dedupKey, redisx.TTLDedup)
		if err != nil {
			// dedup cuma optimisasi; CAS di DB tetap menjaga
			log.Warn("webhook dedup unavailable", zap.Error(err))
			dedupKey = ""
		} else if !first {
			metrics.WebhookEvents.WithLabelValues(evt.Type, "duplicate").Inc()
			log.Info("webhook duplicate skipped")
			return Ack{Received: true}, nil
		}
	}

	res, orderID, err := h.apply(ctx, evt, to)
	if err != nil {
		if unmatched(err) {
			// retry tidak akan membantu; ack supaya processor berhenti kirim ulang
			metrics.WebhookEvents.WithLabelValues(evt.Type, "unmatched").Inc()
			log.Warn("webhook matches no order",
				zap.String("order_id", orderID), zap.String("session_id", evt.SessionID), zap.Error(err))
			return Ack{Received: true}, nil
		}
		if dedupKey != "" {
			_ = h.Redis.Del(ctx, dedupKey).Err()
		}
		metrics.WebhookEvents.WithLabelValues(evt.Type, "error").Inc()
		log.Error("webhook apply failed", zap.String("order_id", orderID), zap.Error(err))
		return Ack{}, err
	}
	log = log.With(zap.String("order_id", orderID))

	if !res.Applied && res.Current == orders.StatusPending {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "stale_session").Inc()
		log.Info("event from a replaced checkout session ignored", zap.String("session_id", evt.SessionID))
		return Ack{Received: true}, nil
	}
	if !res.Applied {
		metrics.WebhookEvents.WithLabelValues(evt.Type, "noop").Inc()
		log.Info("order already settled", zap.String("status", string(res.Current)), zap.String("wanted", string(to)))
		return Ack{Received: true}, nil
	}

	metrics.WebhookEvents.WithLabelValues(evt.Type, "applied").Inc()
	log.Info("order settled", zap.String("status", string(res.Current)))
	h.afterSettle(ctx, orderID, evt.ID)
	return Ack{Received: true}, nil
}

func (h *WebhookHandler) apply(ctx context.Context, evt Event, to orders.Status) (orders.TransitionResult, string, error) {
	orderID, err := h.resolveOrderID(ctx, evt)
	if err != nil {
		return orders.TransitionResult{}, "", err
	}
	// gagal/expired hanya berlaku untuk session yang sedang terpasang di order;
	// session lama yang di-replace tidak boleh menggagalkan pembayaran baru
	var session string
	if to == orders.StatusFailed {
		session = evt.SessionID
	}
	res, err := h.Orders.Transition(ctx, orderID, to, session)
	return res, orderID, err
}

// unmatched reports errors that no redelivery can fix: the event names no order
// we know. Store outages are not among them.
func unmatched(err error) bool {
	if errors.Is(err, errs.ErrUpstream) {
		return false
	}
	return errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrInvalid)
}

// resolveOrderID prefers metadata, then client_reference_id, then the stored session id.
func (h *WebhookHandler) resolveOrderID(ctx context.Context, evt Event) (string, error) {
	if id := evt.Metadata[MetaOrderID]; id != "" {
		return id, nil
	}
	if evt.ClientReferenceID != "" {
		return evt.ClientReferenceID, nil
	}
	if evt.SessionID == "" {
		return "", errors.Join(ErrInvalidPayload, errors.New("event carries no order reference"))
	}
	return h.Orders.FindBySession(ctx, evt.SessionID)
}

func (h *WebhookHandler) afterSettle(ctx context.Context, orderID, eventID string) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.OrderStatus(orderID)).Err()
	}
	if h.Publisher == nil {
		return
	}
	o, err := h.Orders.Get(ctx, orderID)
	if err != nil {
		h.Log.Warn("settled order reload failed, event not published", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	orders.Emit(h.Publisher, orders.TopicFor(o.Status), orders.SettledEvent(o, h.ServiceName, eventID))
}
