package rediskv

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-client/credentials"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultOpTimeout = 2 * time.Second

var _ credentials.KV = (*RedisKV)(nil)

// RedisKV keeps every key of one credential set in a single Redis hash, so
// Clear is one DEL.
type RedisKV struct {
	client    redis.UniversalClient
	key       string
	opTimeout time.Duration
}

type Option func(*RedisKV)

// WithOpTimeout bounds each Redis round-trip. The KV contract is
// synchronous, so every call builds its own deadline.
func WithOpTimeout(d time.Duration) Option {
	return func(kv *RedisKV) {
		if d > 0 {
			kv.opTimeout = d
		}
	}
}

func New(client redis.UniversalClient, prefix string, options ...Option) *RedisKV {
	kv := &RedisKV{
		client:    client,
		key:       prefix + ":credentials",
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range options {
		opt(kv)
	}
	return kv
}

func (kv *RedisKV) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), kv.opTimeout)
	defer cancel()

	v, err := kv.client.HGet(ctx, kv.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "RedisKV.Get HGet")
	}
	return v, true, nil
}

func (kv *RedisKV) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), kv.opTimeout)
	defer cancel()

	if err := kv.client.HSet(ctx, kv.key, key, value).Err(); err != nil {
		return errors.Wrap(err, "RedisKV.Set HSet")
	}
	return nil
}

func (kv *RedisKV) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), kv.opTimeout)
	defer cancel()

	if err := kv.client.Del(ctx, kv.key).Err(); err != nil {
		return errors.Wrap(err, "RedisKV.Clear Del")
	}
	return nil
}
