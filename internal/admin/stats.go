// Package admin holds marketplace-wide read models for operators.
package admin

import (
	"context"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
)

type Stats struct {
	Assets       int64 `json:"assets"`
	Users        int64 `json:"users"`
	PaidOrders   int64 `json:"paid_orders"`
	RevenueCents int64 `json:"revenue_cents"`
}

type Repo struct{ DB postgres.DB }

// Stats: revenue dihitung dari harga item yang di-capture, bukan harga asset sekarang.
func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.DB.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM assets),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM orders WHERE status='PAID'),
			(SELECT COALESCE(SUM(i.price_cents), 0)
			   FROM order_items i JOIN orders o ON o.id = i.order_id
			  WHERE o.status='PAID')`,
	).Scan(&s.Assets, &s.Users, &s.PaidOrders, &s.RevenueCents)
	if err != nil {
		return Stats{}, errs.Upstream("postgres", err)
	}
	return s, nil
}
