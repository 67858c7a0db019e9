package constants

import (
	"time"
)

// Redis Cache Configuration
// Centralizes Redis cache keys and TTL values for the racereg application
// Pattern: racereg:{module}:{operation}:{identifier}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_DYNAMIC_SHORT = 5 * time.Minute
	TTL_DYNAMIC_QUICK = 2 * time.Minute
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "racereg"
)

// ================== TICKETS MODULE ==================

// Ticket Cache Keys
const (
	CACHE_KEY_CATEGORY_LIST   = CACHE_PREFIX + ":tickets:list"
	CACHE_KEY_CATEGORY_DETAIL = CACHE_PREFIX + ":tickets:detail:uuid:" // + category-id
)

// Ticket Cache TTLs
//
// Availability moves with every purchase and cancellation, so the listing
// cache stays short-lived and is also deleted eagerly on writes.
const (
	TTL_CATEGORY_LIST   = TTL_DYNAMIC_QUICK
	TTL_CATEGORY_DETAIL = TTL_DYNAMIC_SHORT
)

// ================== HELPER FUNCTIONS ==================

func BuildCategoryDetailKey(categoryID string) string {
	return CACHE_KEY_CATEGORY_DETAIL + categoryID
}
