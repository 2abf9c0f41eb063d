package redisx

import "time"

const (
	// Rate table per base currency: rates:{BASE} -> rates.Entry JSON
	KeyRates = "rates:%s"

	// Cache status order: order_status:{session_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	// kept well past rates.CacheTTL so an expired table can still be served on fetch failure
	TTLRates       = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
