package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/pkordes/trip-tracker/internal/domain"
)

// DefaultRedisPrefix namespaces the tracker's keys in a shared Redis.
const DefaultRedisPrefix = "trip-tracker:"

// redisBlobStore is the Redis implementation of BlobStore. Blobs are plain
// string values without expiry.
type redisBlobStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBlobStore constructs a BlobStore on top of a go-redis client.
// Keys are stored as prefix+key.
func NewRedisBlobStore(client redis.Cmdable, prefix string) BlobStore {
	return &redisBlobStore{client: client, prefix: prefix}
}

func (s *redisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo.BlobStore.Get: %w", err)
	}
	return v, nil
}

func (s *redisBlobStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("repo.BlobStore.Set: %w", err)
	}
	return nil
}
