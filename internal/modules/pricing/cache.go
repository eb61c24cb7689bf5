// README: Redis read-through cache in front of the pricing config store.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const currentConfigKey = "pricing:config:current"

// CachedStore caches Current in Redis. Every other call goes to the
// underlying store; Save invalidates the cached snapshot.
type CachedStore struct {
	next  ConfigStore
	redis redis.UniversalClient
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedStore(next ConfigStore, rdb redis.UniversalClient, ttl time.Duration, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{next: next, redis: rdb, ttl: ttl, log: log}
}

func (c *CachedStore) Current(ctx context.Context) (Snapshot, error) {
	raw, err := c.redis.Get(ctx, currentConfigKey).Bytes()
	switch {
	case err == nil:
		var snap Snapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			return snap, nil
		}
		c.log.Warn("discarding undecodable cached pricing config")
	case !errors.Is(err, redis.Nil):
		c.log.Warn("pricing cache read failed", zap.Error(err))
	}

	snap, err := c.next.Current(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if b, jerr := json.Marshal(snap); jerr == nil {
		if serr := c.redis.Set(ctx, currentConfigKey, b, c.ttl).Err(); serr != nil {
			c.log.Warn("pricing cache write failed", zap.Error(serr))
		}
	}
	return snap, nil
}

func (c *CachedStore) Get(ctx context.Context, id int64) (Snapshot, error) {
	return c.next.Get(ctx, id)
}

func (c *CachedStore) Save(ctx context.Context, cfg Config) (Snapshot, error) {
	snap, err := c.next.Save(ctx, cfg)
	if err != nil {
		return Snapshot{}, err
	}
	if derr := c.redis.Del(ctx, currentConfigKey).Err(); derr != nil {
		c.log.Warn("pricing cache invalidation failed", zap.Error(derr))
	}
	return snap, nil
}

func (c *CachedStore) History(ctx context.Context, limit int) ([]Snapshot, error) {
	return c.next.History(ctx, limit)
}
