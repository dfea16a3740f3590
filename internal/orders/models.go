package orders

import (
	"fmt"
	"time"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
)

type Order struct {
	ID               string    `json:"id"`
	BuyerID          string    `json:"buyer_id"`
	Status           Status    `json:"status"`
	TotalCents       int64     `json:"total_cents"`
	PaymentSessionID string    `json:"payment_session_id,omitempty"`
	Items            []Item    `json:"items"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Item is one asset line. PriceCents is captured at order creation and never changes.
// Title, Description and SellerID are read from the asset when the order is loaded.
type Item struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	AssetID     string `json:"asset_id"`
	PriceCents  int64  `json:"price_cents"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SellerID    string `json:"seller_id,omitempty"`
}

// ItemsTotal sums the captured item prices.
func (o Order) ItemsTotal() int64 {
	var t int64
	for _, it := range o.Items {
		t += it.PriceCents
	}
	return t
}

type NewOrder struct {
	BuyerID        string
	AssetIDs       []string
	IdempotencyKey string
}

// TransitionResult describes what a status change did. Applied is false when the
// order was already terminal; Current is the status after the call either way.
type TransitionResult struct {
	Applied  bool
	Previous Status
	Current  Status
}

var (
	ErrOrderNotFound    = fmt.Errorf("order %w", errs.ErrNotFound)
	ErrBuyerNotFound    = fmt.Errorf("buyer %w", errs.ErrNotFound)
	ErrAssetUnavailable = fmt.Errorf("asset is not for sale: %w", errs.ErrConflict)
	ErrEmptyOrder       = fmt.Errorf("%w: asset_ids must not be empty", errs.ErrInvalid)
	ErrOrderNotPending  = fmt.Errorf("order is not pending: %w", errs.ErrConflict)
)
