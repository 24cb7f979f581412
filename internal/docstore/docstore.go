// Package docstore implements the document database on top of the object
// store: JSON records addressed through the namespace key grammar, with
// read-modify-write cycles serialized per document key.
//
// The serialization guarantee is in-process only. With multiple writer
// processes the last write wins; that is the documented semantics, matching
// the underlying store's lack of transactions.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/TheRizaev/kronik/internal/domain/repository"
)

// Config holds document store settings.
type Config struct {
	// DefaultAvatar is the image every new tenant starts with. When empty,
	// tenants are provisioned without an avatar object.
	DefaultAvatar            []byte
	DefaultAvatarContentType string

	// AvatarURLTTL bounds the presigned avatar URLs attached to profiles.
	AvatarURLTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AvatarURLTTL: time.Hour,
	}
}

// Store is the document database facade. All documents live in the object
// store; Store adds the key grammar, JSON codec and per-key write locking.
type Store struct {
	storage repository.ObjectStorage
	config  Config
	locks   keyedMutex

	// now is swapped in tests for deterministic IDs and timestamps.
	now func() time.Time
}

// New creates a document store over the given object storage.
func New(storage repository.ObjectStorage, cfg Config) *Store {
	if cfg.AvatarURLTTL <= 0 {
		cfg.AvatarURLTTL = time.Hour
	}
	return &Store{
		storage: storage,
		config:  cfg,
		now:     time.Now,
	}
}

// getJSON fetches and decodes a JSON document.
// Absent keys surface repository.ErrObjectNotFound unchanged; undecodable
// bodies surface repository.ErrMalformedDocument.
func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	rc, err := s.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", repository.ErrMalformedDocument, key, err)
	}
	return nil
}

// putJSON encodes and stores a JSON document.
func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	if err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return fmt.Errorf("failed to store document %s: %w", key, err)
	}
	return nil
}

// isNotFound reports whether err means the document is absent.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrObjectNotFound)
}

// keyedMutex serializes read-modify-write cycles per document key.
// The map grows with the set of distinct keys ever locked; document keys
// are bounded by the tenant's record count, so no eviction is done.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
