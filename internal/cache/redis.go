package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Redis implements Store on a Redis server.
type Redis struct {
	rdb *redis.Client
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
}

// NewRedis connects to Redis and verifies the connection with a ping.
// The client lifecycle belongs to the caller; pass the returned store
// to the components that need it and Close it on shutdown.
func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrap(err, "cache: connect redis")
	}

	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, fullKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &Error{Op: "get", Err: err}
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, fullKey(namespace, key), value, ttl).Err(); err != nil {
		return &Error{Op: "set", Err: err}
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
