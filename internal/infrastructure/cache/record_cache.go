package cache

import (
	"context"
	"time"

	"github.com/TheRizaev/kronik/internal/domain/model"
)

// RecordCache defines the interface for caching video record documents.
// Implementations should handle serialization/deserialization transparently.
type RecordCache interface {
	// Get retrieves a video record from cache.
	// Returns nil, nil if the record is not cached (cache miss).
	Get(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error)

	// Set stores a video record in cache with the specified TTL.
	Set(ctx context.Context, record *model.VideoRecord, ttl time.Duration) error

	// Delete removes a video record from cache.
	// Returns nil if the record was not cached.
	Delete(ctx context.Context, tenant, videoID string) error
}
