// Package redislist provides a requestid.List shared by every verifier that
// talks to the same Redis server.
package redislist

import (
	"context"
	"fmt"
	"time"

	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config for a Redis-backed List. Defaults can be loaded via envdecode.
type Config struct {
	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all keys. ENV: REQAUTH_REQUEST_ID_PREFIX
	KeyPrefix string `env:"REQAUTH_REQUEST_ID_PREFIX,default=reqauth:rid:"`
	// TTL of each entry; zero keeps entries forever. ENV: REQAUTH_REQUEST_ID_TTL
	TTL time.Duration `env:"REQAUTH_REQUEST_ID_TTL,default=24h"`
}

type List struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ requestid.List = (*List)(nil)

func New(cfg Config) (*List, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	l, err := NewWithClient(cl, cfg.KeyPrefix, cfg.TTL)
	if err != nil {
		_ = cl.Close()
		return nil, err
	}
	return l, nil
}

// NewWithClient wraps an existing client. Close closes the client.
func NewWithClient(cl *redis.Client, keyPrefix string, ttl time.Duration) (*List, error) {
	if keyPrefix == "" {
		keyPrefix = requestid.DefaultKeyPrefix
	}
	if err := requestid.ValidatePrefix(keyPrefix); err != nil {
		return nil, err
	}
	if ttl < 0 {
		return nil, fmt.Errorf("redislist: negative ttl %s", ttl)
	}
	return &List{client: cl, keyPrefix: keyPrefix, ttl: ttl}, nil
}

// NewFromEnv builds a List using envdecode to populate Config.
func NewFromEnv() (*List, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	return New(cfg)
}

// Close closes the Redis client.
func (l *List) Close() error { return l.client.Close() }

func (l *List) key(id string) string { return requestid.CacheKey(l.keyPrefix, id) }

func (l *List) Contains(ctx context.Context, id string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (l *List) Put(ctx context.Context, id string) error {
	ok, err := l.client.SetNX(ctx, l.key(id), "1", l.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return requestid.Duplicate(id)
	}
	return nil
}
