package adapter

import "main/internal/schema"

// Exchange is the narrow request/response contract the core invokes on the
// connectivity layer. Place and Cancel only dispatch; acceptance,
// rejection, cancellation and fills arrive asynchronously on the event
// queue. Snapshot is the per-tick market read.
type Exchange interface {
	Place(intent schema.OrderIntent) error
	Cancel(orderID uint64) error
	Snapshot() schema.MarketSnapshot
}
