package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bookhive/catalog-service/pkg/breaker"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when the key is absent. Callers treat any other error
// the same way: fall back to the source of truth.
var ErrMiss = errors.New("cache miss")

type Config struct {
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"30m"`
}

// Cache is a thin key/value wrapper over redis with JSON values. All calls go
// through a circuit breaker so an unavailable redis fails fast instead of
// holding every request on a dial timeout.
type Cache struct {
	rdb *redis.Client
	cb  *breaker.Breaker
}

func NewCache(cfg Config) *Cache {
	const (
		windowSize    = 20
		timeout       = 15 * time.Second
		threshold     = 0.5
		recoveryCalls = 3
	)
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		cb: breaker.New(windowSize, timeout, threshold, recoveryCalls),
	}
}

func (c *Cache) Get(ctx context.Context, key string, v any) error {
	var data []byte
	err := c.cb.Call(func() error {
		var err error
		data, err = c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if data == nil {
		return ErrMiss
	}
	return json.Unmarshal(data, v)
}

func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.cb.Call(func() error {
		return c.rdb.Set(ctx, key, data, ttl).Err()
	})
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.cb.Call(func() error {
		return c.rdb.Del(ctx, keys...).Err()
	})
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
