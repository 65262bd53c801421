package redisrepo

import (
	"context"
	"time"

	"github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/token"
	"github.com/redis/go-redis/v9"
)

var _ token.Repo = (*RedisRepo)(nil)

// RedisRepo is a durable token scope shared between processes through redis.
// Keys are namespaced as <prefix>:<key> and expire after ttl when ttl > 0.
type RedisRepo struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type Option func(*RedisRepo)

func WithTTL(ttl time.Duration) Option {
	return func(r *RedisRepo) {
		r.ttl = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(r *RedisRepo) {
		r.prefix = prefix
	}
}

func New(client redis.UniversalClient, options ...Option) *RedisRepo {
	r := &RedisRepo{
		client: client,
		prefix: "storefront:token",
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewFromURL parses a redis:// URL and connects lazily.
func NewFromURL(url string, options ...Option) (*RedisRepo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrapf(err, "[redisrepo.NewFromURL] invalid redis url")
	}
	return New(redis.NewClient(opts), options...), nil
}

func (r *RedisRepo) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *RedisRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[RedisRepo.Get] %s", key)
	}
	return v, nil
}

func (r *RedisRepo) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "[RedisRepo.Set] %s", key)
	}
	return nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrapf(err, "[RedisRepo.Delete] %s", key)
	}
	return nil
}

// Ping checks the connection.
func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepo) Close() error {
	return r.client.Close()
}
