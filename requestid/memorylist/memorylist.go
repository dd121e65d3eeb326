// Package memorylist provides a process local requestid.List backed by an
// expirable LRU from github.com/hashicorp/golang-lru/v2.
package memorylist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// List is an in-memory requestid.List. It only guards a single process; use
// the redislist or sqllist backends when several verifiers share traffic.
type List struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

var _ requestid.List = (*List)(nil)

type options struct {
	ttl  time.Duration
	size int
}

// Option configures New.
type Option func(*options)

// WithTTL sets how long ids are remembered. Zero, the default, remembers
// them until evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithSize bounds the number of remembered ids. Zero, the default, is
// unbounded. Once full, the oldest ids are forgotten and could be replayed,
// so the bound must exceed the number of requests accepted per TTL.
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

func New(opts ...Option) (*List, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl < 0 {
		return nil, fmt.Errorf("memorylist: negative ttl %s", o.ttl)
	}
	if o.size < 0 {
		return nil, fmt.Errorf("memorylist: negative size %d", o.size)
	}
	return &List{cache: expirable.NewLRU[string, struct{}](o.size, nil, o.ttl)}, nil
}

func (l *List) Contains(_ context.Context, id string) (bool, error) {
	_, ok := l.cache.Peek(requestid.CacheKey("", id))
	return ok, nil
}

func (l *List) Put(_ context.Context, id string) error {
	key := requestid.CacheKey("", id)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache.Peek(key); ok {
		return requestid.Duplicate(id)
	}
	l.cache.Add(key, struct{}{})
	return nil
}

// Len returns the number of remembered ids, including any that have expired
// but not yet been purged.
func (l *List) Len() int { return l.cache.Len() }
