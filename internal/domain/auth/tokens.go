package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps hashes of issued refresh tokens.
type TokenStore interface {
	Save(ctx context.Context, hash string, userID int64, ttl time.Duration) error
	// Lookup returns the owner of hash, or ErrInvalidRefreshToken.
	Lookup(ctx context.Context, hash string) (int64, error)
	Delete(ctx context.Context, hash string) error
}

const refreshKeyPrefix = "refresh:"

// RedisTokenStore stores refresh token hashes in Redis. A nil client
// disables refresh: tokens are issued but never accepted back.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Save(ctx context.Context, hash string, userID int64, ttl time.Duration) error {
	if s.client == nil {
		return nil
	}
	return s.client.Set(ctx, refreshKeyPrefix+hash, strconv.FormatInt(userID, 10), ttl).Err()
}

func (s *RedisTokenStore) Lookup(ctx context.Context, hash string) (int64, error) {
	if s.client == nil {
		return 0, ErrInvalidRefreshToken
	}
	val, err := s.client.Get(ctx, refreshKeyPrefix+hash).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidRefreshToken
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, ErrInvalidRefreshToken
	}
	return id, nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, hash string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, refreshKeyPrefix+hash).Err()
}
