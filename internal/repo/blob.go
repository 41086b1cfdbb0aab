// Package repo holds the persistence adapters for the tracker's small key/value
// state. Each backend stores opaque byte blobs under string keys; encoding is
// the caller's business.
package repo

import (
	"context"
	"sync"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// BlobStore is a keyed byte store. The service layer depends on this
// interface, never on a concrete backend.
type BlobStore interface {
	// Get returns the blob stored under key.
	// Returns domain.ErrNotFound if nothing is stored there.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous blob.
	Set(ctx context.Context, key string, value []byte) error
}

// memoryBlobStore keeps blobs in process memory. It is the default backend.
type memoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBlobStore constructs an empty in-memory BlobStore.
func NewMemoryBlobStore() BlobStore {
	return &memoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *memoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *memoryBlobStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), value...)
	return nil
}
