package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"taskboard-api/domain"
)

// UserCache wraps a UserStore with Redis-backed caching of id lookups. Users never
// change after registration, so entries only expire by TTL.
type UserCache struct {
	base  UserStore
	redis *redis.Client
	ttl   time.Duration
}

// NewUserCache creates a caching UserStore using the provided Redis client and TTL.
// A nil client disables caching.
func NewUserCache(base UserStore, client *redis.Client, ttl time.Duration) *UserCache {
	if base == nil {
		panic("storage.NewUserCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &UserCache{base: base, redis: client, ttl: ttl}
}

func (c *UserCache) CreateUser(ctx context.Context, u domain.User, passwordHash string) (domain.User, error) {
	created, err := c.base.CreateUser(ctx, u, passwordHash)
	if err != nil {
		return domain.User{}, err
	}
	c.store(ctx, created)
	return created, nil
}

// UserByEmail is never cached since it returns the password hash.
func (c *UserCache) UserByEmail(ctx context.Context, email string) (domain.User, string, error) {
	return c.base.UserByEmail(ctx, email)
}

func (c *UserCache) UserByID(ctx context.Context, id int64) (domain.User, error) {
	if u, ok := c.load(ctx, id); ok {
		return u, nil
	}

	u, err := c.base.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	c.store(ctx, u)
	return u, nil
}

func (c *UserCache) load(ctx context.Context, id int64) (domain.User, bool) {
	if c.redis == nil {
		return domain.User{}, false
	}
	data, err := c.redis.Get(ctx, userCacheKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, userCacheKey(id)).Err()
		}
		return domain.User{}, false
	}
	var u domain.User
	if err := sonic.Unmarshal(data, &u); err != nil || u.ID != id {
		_ = c.redis.Del(ctx, userCacheKey(id)).Err()
		return domain.User{}, false
	}
	return u, true
}

func (c *UserCache) store(ctx context.Context, u domain.User) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(u)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, userCacheKey(u.ID), data, c.ttl).Err()
}

func userCacheKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}
