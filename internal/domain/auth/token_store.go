package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps hashes of issued refresh tokens
type TokenStore interface {
	Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error
	// Take removes the token and returns its owner. Each token can be taken once.
	Take(ctx context.Context, hash string) (uuid.UUID, error)
	Delete(ctx context.Context, hash string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// ErrTokenNotFound is returned by Take for unknown, used or expired tokens
var ErrTokenNotFound = errors.New("refresh token not found")

type redisTokenStore struct {
	redis *redis.Client
}

// NewRedisTokenStore creates a TokenStore on Redis
func NewRedisTokenStore(client *redis.Client) TokenStore {
	return &redisTokenStore{redis: client}
}

func tokenKey(hash string) string {
	return "refresh:" + hash
}

func userTokensKey(userID uuid.UUID) string {
	return "refresh:user:" + userID.String()
}

func (s *redisTokenStore) Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error {
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, tokenKey(hash), userID.String(), ttl)
	pipe.SAdd(ctx, userTokensKey(userID), hash)
	pipe.Expire(ctx, userTokensKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisTokenStore) Take(ctx context.Context, hash string) (uuid.UUID, error) {
	val, err := s.redis.GetDel(ctx, tokenKey(hash)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrTokenNotFound
	}
	s.redis.SRem(ctx, userTokensKey(userID), hash)
	return userID, nil
}

func (s *redisTokenStore) Delete(ctx context.Context, hash string) error {
	return s.redis.Del(ctx, tokenKey(hash)).Err()
}

func (s *redisTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	hashes, err := s.redis.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, tokenKey(h))
	}
	keys = append(keys, userTokensKey(userID))
	return s.redis.Del(ctx, keys...).Err()
}
