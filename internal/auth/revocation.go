package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "sportsee-revoked||"

type RedisRevocationList struct {
	redisClient *redis.Client
	now         func() time.Time
}

func NewRedisRevocationList(redisClient *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		redisClient: redisClient,
		now:         time.Now,
	}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	return l.redisClient.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.redisClient.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemoryRevocationList is used when redis is disabled (local development, tests).
type MemoryRevocationList struct {
	mutex   sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{
		revoked: map[string]time.Time{},
		now:     time.Now,
	}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, tokenID string, until time.Time) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !until.After(l.now()) {
		return nil
	}
	l.revoked[tokenID] = until
	return nil
}

func (l *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	until, ok := l.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(l.now()) {
		delete(l.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
