// Package signer issues time-limited playback URLs for stored objects.
package signer

import (
	"context"
	"fmt"
	"time"

	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
	"github.com/TheRizaev/kronik/internal/namespace"
)

// Signer wraps presigned URL generation with an existence check so clients
// fail fast instead of receiving a signed URL to a missing object.
type Signer struct {
	storage    repository.ObjectStorage
	defaultTTL time.Duration
}

// New creates a Signer. defaultTTL applies when SignedURL is called with a
// non-positive expiry.
func New(storage repository.ObjectStorage, defaultTTL time.Duration) *Signer {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Signer{
		storage:    storage,
		defaultTTL: defaultTTL,
	}
}

// SignedURL returns a presigned read URL for key.
// The TTL clock starts now, not at first use. URLs are never cached; each
// call produces a fresh one.
func (s *Signer) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	collection := collectionLabel(key)

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		metrics.SignedURLsTotal.WithLabelValues(collection, metrics.ResultError).Inc()
		return "", fmt.Errorf("failed to check object %s: %w", key, err)
	}
	if !exists {
		metrics.SignedURLsTotal.WithLabelValues(collection, metrics.ResultError).Inc()
		return "", fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
	}

	url, err := s.storage.PresignedGetURL(ctx, key, ttl)
	if err != nil {
		metrics.SignedURLsTotal.WithLabelValues(collection, metrics.ResultError).Inc()
		return "", fmt.Errorf("failed to sign %s: %w", key, err)
	}

	metrics.SignedURLsTotal.WithLabelValues(collection, metrics.ResultSuccess).Inc()
	return url, nil
}

func collectionLabel(key string) string {
	k, err := namespace.ParseKey(key)
	if err != nil {
		return "unknown"
	}
	return string(k.Collection)
}
