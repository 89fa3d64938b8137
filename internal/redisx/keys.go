package redisx

import "time"

const (
	// Cache of order status: order_status:{order_id} -> {"status":"...","order_number":"..."}
	KeyOrderStatus = "order_status:%d"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
