package repository

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one stored object yielded by a listing.
// Err is set on the final entry when the listing itself failed, mirroring
// how object-store listings surface errors mid-stream.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Err          error
}

// ObjectStorage defines the bucket-style key/value contract every higher
// layer builds on. Implementations live in the infrastructure layer.
//
// Absent keys surface ErrObjectNotFound; infrastructure failures surface
// ErrStorageUnavailable. Callers must not conflate the two. No retries at
// this layer; retry policy belongs to the caller per operation class.
type ObjectStorage interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Get retrieves an object. Caller closes the returned ReadCloser.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ListByPrefix lazily yields objects under prefix. With recursive set,
	// every object is yielded; otherwise common prefixes are yielded as
	// entries whose Key ends in "/". The channel closes when the listing
	// ends or ctx is cancelled.
	ListByPrefix(ctx context.Context, prefix string, recursive bool) <-chan ObjectInfo

	// PresignedGetURL issues a time-limited read URL for key. The TTL clock
	// starts at generation time.
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
