package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-digital-market.git/internal/catalog"
	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"github.com/ariefcatur/go-digital-market.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DB }

// CreateOrder: snapshot harga asset + insert order & items dalam satu tx.
// - asset yang tidak ada -> catalog.ErrAssetNotFound, tidak ada yang di-commit.
// - idempotency key yang sama untuk buyer yang sama -> return order lama (existed=true).
func (r *Repo) CreateOrder(ctx context.Context, n NewOrder) (o Order, existed bool, err error) {
	if n.IdempotencyKey != "" {
		o, err = r.findByIdempotencyKey(ctx, n.BuyerID, n.IdempotencyKey)
		if err == nil {
			return o, true, nil
		} else if !errors.Is(err, ErrOrderNotFound) {
			return Order{}, false, err
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, errs.Upstream("postgres", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// harga dibaca di tx yang sama; FOR SHARE menahan UPDATE harga sampai commit
	rows, err := tx.Query(ctx, `SELECT id, price_cents, status, seller_id, title, description FROM assets WHERE id = ANY($1) FOR SHARE`, n.AssetIDs)
	if err != nil {
		return Order{}, false, errs.Upstream("postgres", err)
	}
	type priced struct {
		price  int64
		status catalog.Status
		seller string
		title  string
		desc   string
	}
	found := make(map[string]priced, len(n.AssetIDs))
	for rows.Next() {
		var id, status string
		var p priced
		if err := rows.Scan(&id, &p.price, &status, &p.seller, &p.title, &p.desc); err != nil {
			rows.Close()
			return Order{}, false, errs.Upstream("postgres", err)
		}
		p.status = catalog.Status(status)
		found[id] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Order{}, false, errs.Upstream("postgres", err)
	}

	o = Order{ID: uuid.NewString(), BuyerID: n.BuyerID, Status: StatusPending}
	for _, id := range n.AssetIDs {
		p, ok := found[id]
		if !ok {
			return Order{}, false, fmt.Errorf("%w: %s", catalog.ErrAssetNotFound, id)
		}
		if p.status != catalog.StatusActive {
			return Order{}, false, fmt.Errorf("%w: %s", ErrAssetUnavailable, id)
		}
		o.Items = append(o.Items, Item{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			AssetID:     id,
			PriceCents:  p.price,
			Title:       p.title,
			Description: p.desc,
			SellerID:    p.seller,
		})
		o.TotalCents += p.price
	}

	var idemKey any
	if n.IdempotencyKey != "" {
		idemKey = n.IdempotencyKey
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, buyer_id, status, total_cents, idempotency_key)
		VALUES ($1, $2, 'PENDING', $3, $4)
		RETURNING created_at, updated_at`,
		o.ID, o.BuyerID, o.TotalCents, idemKey,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	switch {
	case err == nil:
	case postgres.IsForeignKeyViolation(err):
		return Order{}, false, ErrBuyerNotFound
	case postgres.IsUniqueViolation(err) && n.IdempotencyKey != "":
		// request kembar yang jalan bareng; pemenangnya sudah commit
		_ = tx.Rollback(ctx)
		o, err = r.findByIdempotencyKey(ctx, n.BuyerID, n.IdempotencyKey)
		if err != nil {
			return Order{}, false, err
		}
		return o, true, nil
	default:
		return Order{}, false, errs.Upstream("postgres", err)
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, asset_id, price_cents, position)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, o.ID, it.AssetID, it.PriceCents, i,
		); err != nil {
			return Order{}, false, errs.Upstream("postgres", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, false, errs.Upstream("postgres", err)
	}
	return o, false, nil
}

func (r *Repo) findByIdempotencyKey(ctx context.Context, buyerID, key string) (Order, error) {
	var id string
	err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE buyer_id=$1 AND idempotency_key=$2`, buyerID, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, errs.Upstream("postgres", err)
	}
	return r.Get(ctx, id)
}

// Get loads the order and its items in creation order, joined with asset display fields.
func (r *Repo) Get(ctx context.Context, orderID string) (Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_id, status, total_cents, COALESCE(payment_session_id, ''), created_at, updated_at
		FROM orders WHERE id=$1`, orderID,
	).Scan(&o.ID, &o.BuyerID, &status, &o.TotalCents, &o.PaymentSessionID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, errs.Upstream("postgres", err)
	}
	o.Status = Status(status)

	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.asset_id, i.price_cents, a.title, a.description, a.seller_id
		FROM order_items i JOIN assets a ON a.id = i.asset_id
		WHERE i.order_id=$1 ORDER BY i.position`, orderID)
	if err != nil {
		return Order{}, errs.Upstream("postgres", err)
	}
	defer rows.Close()

	o.Items = []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.AssetID, &it.PriceCents, &it.Title, &it.Description, &it.SellerID); err != nil {
			return Order{}, errs.Upstream("postgres", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Order{}, errs.Upstream("postgres", err)
	}
	return o, nil
}

func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", errs.Upstream("postgres", err)
	}
	return Status(s), nil
}

// FindBySession resolves the order a checkout session was created for.
func (r *Repo) FindBySession(ctx context.Context, sessionID string) (string, error) {
	var id string
	err := r.DB.QueryRow(ctx, `SELECT id FROM orders WHERE payment_session_id=$1`, sessionID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", errs.Upstream("postgres", err)
	}
	return id, nil
}

// AttachSession records the checkout session id. Only pending orders accept one.
func (r *Repo) AttachSession(ctx context.Context, orderID, sessionID string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET payment_session_id=$2, updated_at=now()
		WHERE id=$1 AND status='PENDING'`, orderID, sessionID)
	if err != nil {
		return errs.Upstream("postgres", err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetStatus(ctx, orderID); err != nil {
		return err
	}
	return ErrOrderNotPending
}

// Transition moves a PENDING order to a terminal status with a compare-and-set.
// An order that is already terminal is left alone and reported with Applied=false;
// the first terminal status to land wins.
//
// A non-empty sessionID additionally requires the order to be bound to that
// checkout session (or to none yet). An event from a replaced session then
// leaves the order PENDING with Applied=false.
func (r *Repo) Transition(ctx context.Context, orderID string, to Status, sessionID string) (TransitionResult, error) {
	if !CanTransition(StatusPending, to) {
		return TransitionResult{}, fmt.Errorf("%w: cannot transition to %q", errs.ErrInvalid, to)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now()
		WHERE id=$1 AND status='PENDING'
		  AND ($3 = '' OR payment_session_id IS NULL OR payment_session_id=$3)`,
		orderID, string(to), sessionID)
	if err != nil {
		return TransitionResult{}, errs.Upstream("postgres", err)
	}
	if ct.RowsAffected() == 1 {
		return TransitionResult{Applied: true, Previous: StatusPending, Current: to}, nil
	}
	cur, err := r.GetStatus(ctx, orderID)
	if err != nil {
		return TransitionResult{}, err
	}
	return TransitionResult{Applied: false, Previous: cur, Current: cur}, nil
}

// HasPaidItem reports whether buyerID owns a PAID order containing assetID.
func (r *Repo) HasPaidItem(ctx context.Context, buyerID, assetID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders o JOIN order_items i ON i.order_id = o.id
			WHERE o.buyer_id=$1 AND o.status='PAID' AND i.asset_id=$2
		)`, buyerID, assetID).Scan(&ok)
	if err != nil {
		return false, errs.Upstream("postgres", err)
	}
	return ok, nil
}
