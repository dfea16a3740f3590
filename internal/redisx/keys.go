package redisx

import (
	"fmt"
	"time"
)

const (
	// Idempotency create order: idem:order:create:{buyer_id}:{key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// Cache status order: order_status:{order_id} -> {"order_id": "...", "status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{id} (id = stripe event id atau envelope event_id)
	KeyDedup = "dedup:%s:%s"

	// Entitlement positif saja: entitled:{buyer_id}:{asset_id} -> "1"
	KeyEntitled = "entitled:%s:%s"

	// Ledger seller: hash ledger:seller:{seller_id} {revenue_cents, sales}
	KeyLedgerSeller = "ledger:seller:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLEntitlement = 10 * time.Minute
)

func IdemOrderCreate(buyerID, key string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, buyerID, key)
}

func OrderStatus(orderID string) string { return fmt.Sprintf(KeyOrderStatus, orderID) }

func Dedup(service, id string) string { return fmt.Sprintf(KeyDedup, service, id) }

func Entitled(buyerID, assetID string) string { return fmt.Sprintf(KeyEntitled, buyerID, assetID) }

func LedgerSeller(sellerID string) string { return fmt.Sprintf(KeyLedgerSeller, sellerID) }
