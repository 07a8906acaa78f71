// Package revokesvc backs the session revocation list used to force-logout
// blocked accounts.
package revokesvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
)

const keyPrefix = "revoked:"

type redisRevoker struct {
	client *redis.Client
}

var _ user.SessionRevoker = (*redisRevoker)(nil)

// NewRedisRevoker shares the revocation list across instances. The key TTL
// matches the longest-lived token so entries expire on their own.
func NewRedisRevoker(conf *core.Config) (user.SessionRevoker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &redisRevoker{client: client}, nil
}

func (r *redisRevoker) Revoke(ctx context.Context, userID string, ttl time.Duration) error {
	return errors.Wrap(r.client.Set(ctx, keyPrefix+userID, "1", ttl).Err(), "revoking sessions")
}

func (r *redisRevoker) IsRevoked(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+userID).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking revocation")
	}
	return n > 0, nil
}

func (r *redisRevoker) Clear(ctx context.Context, userID string) error {
	return errors.Wrap(r.client.Del(ctx, keyPrefix+userID).Err(), "clearing revocation")
}
