package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/grocery-store/pkg/database"
	"github.com/redis/go-redis/v9"
)

const oauthStateTTL = 10 * time.Minute

// StateStore issues single-use OAuth state values.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

type RedisStateStore struct {
	redis *database.Redis
}

func NewRedisStateStore(redis *database.Redis) *RedisStateStore {
	return &RedisStateStore{redis: redis}
}

func stateKey(state string) string {
	return fmt.Sprintf("oauth:state:%s", state)
}

func (s *RedisStateStore) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.redis.Client.Set(ctx, stateKey(state), "1", oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return state, nil
}

// Consume reports whether state was issued and not yet used, and burns it.
func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	err := s.redis.Client.GetDel(ctx, stateKey(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return true, nil
}
