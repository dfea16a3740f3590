// Package ledger keeps a per-seller earnings projection in Redis, fed by
// OrderPaid events from Kafka.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kafkax "github.com/ariefcatur/go-digital-market.git/internal/kafka"
	"github.com/ariefcatur/go-digital-market.git/internal/metrics"
	"github.com/ariefcatur/go-digital-market.git/internal/orders"
	"github.com/ariefcatur/go-digital-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	fieldRevenue = "revenue_cents"
	fieldSales   = "sales"
)

type Service struct {
	Redis       redis.Cmdable
	ServiceName string
	Log         *zap.Logger
}

type Earnings struct {
	SellerID     string `json:"seller_id"`
	RevenueCents int64  `json:"revenue_cents"`
	Sales        int64  `json:"sales"`
}

type credit struct {
	revenue int64
	sales   int64
}

// HandleOrderPaid: dipasang sebagai handler consumer topic market.order.paid.
// Return nil berarti offset boleh di-commit.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// pesan rusak tidak akan pernah sukses; commit saja supaya tidak macet
		s.Log.Error("ledger: undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if t := kafkax.Header(m, orders.HeaderEventType); t != "" && t != orders.EventOrderPaid {
		return nil
	}
	if env.EventType != orders.EventOrderPaid {
		return nil
	}

	// 2) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderSettledPayload](env.Payload)
	if err != nil {
		s.Log.Error("ledger: bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	return s.Credit(ctx, env.EventID, p)
}

// Credit books every item of a paid order to its seller exactly once per event id.
func (s *Service) Credit(ctx context.Context, eventID string, p orders.OrderSettledPayload) error {
	// 3) dedup via Redis (pakai event_id)
	dkey := redisx.Dedup("ledger", eventID)
	first, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("ledger dedup: %w", err)
	}
	if !first {
		s.Log.Debug("ledger: duplicate event", zap.String("event_id", eventID))
		return nil
	}

	bySeller := map[string]*credit{}
	for _, it := range p.Items {
		if it.SellerID == "" {
			continue
		}
		c := bySeller[it.SellerID]
		if c == nil {
			c = &credit{}
			bySeller[it.SellerID] = c
		}
		c.revenue += it.PriceCents
		c.sales++
	}

	// 4) semua seller di-update dalam satu MULTI/EXEC
	_, err = s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for seller, c := range bySeller {
			key := redisx.LedgerSeller(seller)
			pipe.HIncrBy(ctx, key, fieldRevenue, c.revenue)
			pipe.HIncrBy(ctx, key, fieldSales, c.sales)
		}
		return nil
	})
	if err != nil {
		// lepas dedup supaya redelivery bisa mencoba lagi
		_ = s.Redis.Del(ctx, dkey).Err()
		return fmt.Errorf("ledger credit: %w", err)
	}

	metrics.LedgerCredits.Add(float64(len(bySeller)))
	s.Log.Info("ledger credited",
		zap.String("event_id", eventID),
		zap.String("order_id", p.OrderID),
		zap.Int("sellers", len(bySeller)),
	)
	return nil
}

func (s *Service) Earnings(ctx context.Context, sellerID string) (Earnings, error) {
	vals, err := s.Redis.HGetAll(ctx, redisx.LedgerSeller(sellerID)).Result()
	if err != nil {
		return Earnings{}, fmt.Errorf("ledger read: %w", err)
	}
	e := Earnings{SellerID: sellerID}
	if e.RevenueCents, err = counter(vals, fieldRevenue); err != nil {
		return Earnings{}, err
	}
	if e.Sales, err = counter(vals, fieldSales); err != nil {
		return Earnings{}, err
	}
	return e, nil
}

// counter reads an HINCRBY field; absent means nothing booked yet.
func counter(vals map[string]string, field string) (int64, error) {
	raw, ok := vals[field]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ledger read %s: %w", field, err)
	}
	return n, nil
}
