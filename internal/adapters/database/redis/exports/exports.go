package exports

import (
	"context"
	"errors"
	"time"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "export:"

// Storage caches rendered artifacts by their deterministic key.
type Storage struct {
	redis *redis.Client
}

func NewStorage(client *redis.Client) *Storage {
	return &Storage{
		redis: client,
	}
}

// Get returns the cached artifact or errorz.ErrCacheMiss.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errorz.ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Set stores data for ttl; a zero ttl keeps it until evicted.
func (s *Storage) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.redis.Set(ctx, keyPrefix+key, data, ttl).Err()
}

func (s *Storage) Clear(ctx context.Context, key string) error {
	return s.redis.Del(ctx, keyPrefix+key).Err()
}
