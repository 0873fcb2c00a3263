package redisx

import "time"

const (
	// Serialized order cache: order:{order_id} -> full order JSON.
	// Deleted on every lifecycle change so re-reads stay consistent.
	KeyOrder = "order:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
