package util

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/clinic-api/config"
	"github.com/redis/go-redis/v9"
)

// Tokens are stateless JWTs, so logout works through a Redis denylist keyed
// by the raw token with a TTL equal to the token's remaining lifetime. When
// Redis is unavailable the denylist degrades to a no-op: tokens then simply
// expire on their own schedule.

func revokedKey(token string) string {
	return fmt.Sprintf("revoked_token:%s", token)
}

// RevokeToken places the token on the denylist until it would have expired
// anyway. A non-positive TTL means the token is already expired and nothing
// needs to be stored.
func RevokeToken(token string, ttl time.Duration) error {
	rdb := config.GetRedisClient()
	if rdb == nil || ttl <= 0 {
		return nil
	}
	ctx := context.Background()
	return rdb.Set(ctx, revokedKey(token), "1", ttl).Err()
}

// IsTokenRevoked reports whether the token has been revoked. Lookup errors
// are returned so callers can decide whether to fail open.
func IsTokenRevoked(token string) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return false, nil
	}
	ctx := context.Background()
	_, err := rdb.Get(ctx, revokedKey(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
