package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheRizaev/kronik/internal/domain/repository"
)

// MemoryStorage is an in-memory ObjectStorage implementation. It backs unit
// tests and local development without a running MinIO.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// Compile-time verification that MemoryStorage implements repository.ObjectStorage.
var _ repository.ObjectStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory object store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
	}
}

// Put stores an object under key.
func (m *MemoryStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", repository.ErrStorageUnavailable, key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data:         data,
		contentType:  contentType,
		lastModified: time.Now(),
	}
	return nil
}

// Get retrieves an object.
func (m *MemoryStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Exists reports whether key is present.
func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

// Delete removes an object. Deleting an absent key is not an error.
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// ListByPrefix yields objects under prefix in key order. With recursive
// unset, keys below the next "/" collapse into common prefix entries.
func (m *MemoryStorage) ListByPrefix(ctx context.Context, prefix string, recursive bool) <-chan repository.ObjectInfo {
	out := make(chan repository.ObjectInfo)

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	go func() {
		defer close(out)
		seen := make(map[string]bool)
		for _, key := range keys {
			entry := repository.ObjectInfo{Key: key}
			if !recursive {
				rest := strings.TrimPrefix(key, prefix)
				if idx := strings.Index(rest, "/"); idx >= 0 {
					common := prefix + rest[:idx+1]
					if seen[common] {
						continue
					}
					seen[common] = true
					entry = repository.ObjectInfo{Key: common}
				}
			}
			if entry.Key == key {
				m.mu.RLock()
				obj := m.objects[key]
				m.mu.RUnlock()
				entry.Size = int64(len(obj.data))
				entry.ContentType = obj.contentType
				entry.LastModified = obj.lastModified
			}
			select {
			case out <- entry:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// PresignedGetURL issues a deterministic fake signed URL for key.
func (m *MemoryStorage) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrObjectNotFound, key)
	}
	return fmt.Sprintf("https://storage.local/%s?X-Amz-Expires=%d&X-Amz-Signature=memory", key, int(expiry.Seconds())), nil
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Raw returns a copy of an object's bytes, or nil when absent.
func (m *MemoryStorage) Raw(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out
}
