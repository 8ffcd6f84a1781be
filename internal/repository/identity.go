package repo

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const identityTTL = 11 * time.Hour

// IdentityStorage maps browser cookies to user ids in redis. Identity
// here is a visitor token, not an account: a fresh cookie gets a fresh
// user id and keeps it for the TTL.
type IdentityStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewIdentityStorage(client *redis.Client, log *zap.SugaredLogger) *IdentityStorage {
	return &IdentityStorage{client: client, log: log}
}

func identityKey(cookie string) string {
	return "identity:" + cookie
}

func (r *IdentityStorage) GetUserIdByCookie(ctx context.Context, cookie string) (string, bool) {
	v, err := r.client.Get(ctx, identityKey(cookie)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Errorw("identity lookup failed", "error", err)
		}
		return "", false
	}
	return v, true
}

func (r *IdentityStorage) StoreIdentity(ctx context.Context, cookie string, userID string) {
	if err := r.client.Set(ctx, identityKey(cookie), userID, identityTTL).Err(); err != nil {
		r.log.Errorw("identity store failed", "error", err)
	}
}

func (r *IdentityStorage) DeleteIdentity(ctx context.Context, cookie string) {
	r.client.Del(ctx, identityKey(cookie))
}
