package storage

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/fridge-monitor/pkg/errors"
)

type redisBlobClient interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	BlobKey(name string) string
}

// RedisStore keeps each blob under a namespaced key with no expiry.
type RedisStore struct {
	client redisBlobClient
}

func NewRedisStore(client redisBlobClient) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	payload, ok, err := s.client.GetBytes(ctx, s.client.BlobKey(name))
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read blob "+name)
	}
	return payload, ok, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, payload []byte) error {
	if err := s.client.Set(ctx, s.client.BlobKey(name), payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write blob "+name)
	}
	return nil
}
