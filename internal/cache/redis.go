package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/campushub/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned on release when the lock expired and may now
// belong to someone else.
var ErrLockNotHeld = errors.New("resource lock no longer held")

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
	newToken  func() string
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return newRedisCache(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), searchTTL)
}

func newRedisCache(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL, newToken: uuid.NewString}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSearch loads a cached search page into dest. A miss returns false.
func (c *RedisCache) GetSearch(ctx context.Context, key string, dest any) (bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, searchKey(gen, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, key string, value any) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(gen, key), payload, c.searchTTL).Err()
}

// InvalidateSearch bumps the generation so older pages are never read again
// and expire on their own.
func (c *RedisCache) InvalidateSearch(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey()).Err()
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// AcquireResourceLock takes the per-resource lock. The returned token must be
// passed back on release; ok is false when someone else holds the lock.
func (c *RedisCache) AcquireResourceLock(ctx context.Context, resourceID int64, ttl time.Duration) (string, bool, error) {
	token := c.newToken()
	ok, err := c.client.SetNX(ctx, resourceLockKey(resourceID), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisCache) ReleaseResourceLock(ctx context.Context, resourceID int64, token string) error {
	deleted, err := releaseScript.Run(ctx, c.client, []string{resourceLockKey(resourceID)}, token).Int64()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Allow is a fixed-window counter: at most limit hits per window for key.
func (c *RedisCache) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	k := rateKey(key)
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= limit, nil
}

func generationKey() string {
	return "cache:resources:gen"
}

func searchKey(gen int64, key string) string {
	return fmt.Sprintf("cache:resources:%d:%s", gen, key)
}

func resourceLockKey(resourceID int64) string {
	return fmt.Sprintf("lock:resource:%d", resourceID)
}

func rateKey(key string) string {
	return "rate:" + key
}
