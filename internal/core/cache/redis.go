package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const revokedPrefix = "auth:revoked:"

// Cache 可为 nil：nil 时所有读取视为未命中、写入直接忽略
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group

	// gens 每次 Del 递增；回源期间被失效的结果不回写
	mu   sync.Mutex
	gens map[string]uint64
}

func New(addr, pass string, db int) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewWithClient(rdb *redis.Client) *Cache { return &Cache{RDB: rdb} }

func (c *Cache) enabled() bool { return c != nil && c.RDB != nil }

func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.RDB.Close()
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if !c.enabled() {
		return load(ctx)
	}
	// 先读缓存
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		gen := c.gen(key)
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		// 比较与回写在同一把锁内，Del 只能发生在其前或其后
		c.mu.Lock()
		if c.gens[key] == gen {
			_ = c.RDB.Set(ctx, key, b, ttl).Err()
		}
		c.mu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Del 失效缓存；redis 故障不影响主流程
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	c.mu.Lock()
	if c.gens == nil {
		c.gens = make(map[string]uint64)
	}
	for _, k := range keys {
		c.gens[k]++
		c.sf.Forget(k)
	}
	c.mu.Unlock()
	_ = c.RDB.Del(ctx, keys...).Err()
}

func (c *Cache) gen(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Revoke 将 jti 拉黑直至令牌自然过期
func (c *Cache) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !c.enabled() || ttl <= 0 {
		return nil
	}
	return c.RDB.Set(ctx, revokedPrefix+jti, "1", ttl).Err()
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !c.enabled() || jti == "" {
		return false, nil
	}
	err := c.RDB.Get(ctx, revokedPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
