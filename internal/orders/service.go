package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/metrics"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Store interface {
	CreateOrder(ctx context.Context, n NewOrder) (Order, bool, error)
	Get(ctx context.Context, orderID string) (Order, error)
	GetStatus(ctx context.Context, orderID string) (Status, error)
}

// Service is the order builder: it normalizes the request, delegates the
// transactional snapshot to the store and announces new orders.
type Service struct {
	Store       Store
	Redis       redis.Cmdable // optional
	Publisher   Publisher     // optional
	ServiceName string
	Log         *zap.Logger
}

// NormalizeAssetIDs trims ids and drops blanks and duplicates, keeping first-seen order.
func NormalizeAssetIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *Service) Create(ctx context.Context, n NewOrder, traceID string) (Order, bool, error) {
	n.BuyerID = strings.TrimSpace(n.BuyerID)
	n.IdempotencyKey = strings.TrimSpace(n.IdempotencyKey)
	n.AssetIDs = NormalizeAssetIDs(n.AssetIDs)
	if n.BuyerID == "" {
		return Order{}, false, fmt.Errorf("%w: buyer_id is required", errs.ErrInvalid)
	}
	if len(n.AssetIDs) == 0 {
		return Order{}, false, ErrEmptyOrder
	}

	// Fast-path idempotency via Redis (DB tetap jadi kebenaran)
	var idemKey string
	if n.IdempotencyKey != "" && s.Redis != nil {
		idemKey = redisx.IdemOrderCreate(n.BuyerID, n.IdempotencyKey)
		if orderID, err := s.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
			if o, err := s.Store.Get(ctx, orderID); err == nil {
				metrics.OrdersCreated.WithLabelValues("true").Inc()
				return o, true, nil
			}
		}
	}

	o, existed, err := s.Store.CreateOrder(ctx, n)
	if err != nil {
		return Order{}, false, err
	}
	metrics.OrdersCreated.WithLabelValues(strconv.FormatBool(existed)).Inc()

	if idemKey != "" {
		if err := s.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err(); err != nil {
			s.Log.Warn("idempotency cache set failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if existed {
		return o, true, nil
	}

	Emit(s.Publisher, TopicOrderCreated, NewEnvelope(EventOrderCreated, s.ServiceName, o.ID, traceID, OrderCreatedPayload{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Items:      ItemPrices(o.Items),
		TotalCents: o.TotalCents,
	}))
	s.Log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("buyer_id", o.BuyerID),
		zap.Int("items", len(o.Items)),
		zap.Int64("total_cents", o.TotalCents),
	)
	return o, false, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	return s.Store.Get(ctx, orderID)
}

// Status reads through a Redis cache. Only terminal statuses are cached: they can
// never change, so the cache cannot serve a stale PENDING after payment.
func (s *Service) Status(ctx context.Context, orderID string) (Status, error) {
	var key string
	if s.Redis != nil {
		key = redisx.OrderStatus(orderID)
		if v, err := s.Redis.Get(ctx, key).Result(); err == nil {
			if st := Status(v); st.Terminal() {
				return st, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.Log.Debug("status cache miss", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	st, err := s.Store.GetStatus(ctx, orderID)
	if err != nil {
		return "", err
	}
	if key != "" && st.Terminal() {
		_ = s.Redis.Set(ctx, key, string(st), redisx.TTLStatusCache).Err()
	}
	return st, nil
}
