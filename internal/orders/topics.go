package orders

const (
	TopicOrderCreated = "market.order.created"
	TopicOrderPaid    = "market.order.paid"
	TopicOrderFailed  = "market.order.failed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

// TopicFor returns the lifecycle topic a settled status is published on.
func TopicFor(s Status) string {
	switch s {
	case StatusPaid:
		return TopicOrderPaid
	case StatusFailed:
		return TopicOrderFailed
	}
	return TopicOrderCreated
}
