package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SummaryCache caches serialized obligation summaries keyed by obligation ID.
// Payment and reversal paths invalidate the key after commit; readers fall
// back to the database on a miss.
type SummaryCache interface {
	// Get returns the cached payload and whether the key was present
	Get(ctx context.Context, obligationID uuid.UUID) ([]byte, bool, error)
	// Set stores the payload with a TTL
	Set(ctx context.Context, obligationID uuid.UUID, payload []byte, ttl time.Duration) error
	// Invalidate drops the key. Missing keys are not an error.
	Invalidate(ctx context.Context, obligationID uuid.UUID) error
}
