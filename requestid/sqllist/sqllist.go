// Package sqllist stores accepted request ids in a SQL table through bun, so
// verifiers sharing a database also share a replay guard.
package sqllist

import (
	"context"
	"fmt"
	"time"

	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/uptrace/bun"
)

// SeenRequestID is one row of the seen_request_ids table. ExpiresAt is unix
// nanoseconds; zero never expires.
type SeenRequestID struct {
	bun.BaseModel `bun:"table:seen_request_ids,alias:sr"`

	KeyHash   string `bun:"key_hash,pk"`
	ExpiresAt int64  `bun:"expires_at,notnull"`
}

// List is a requestid.List over the seen_request_ids table.
type List struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
}

var _ requestid.List = (*List)(nil)

// New returns a List whose entries expire after ttl. A zero ttl keeps entries
// forever.
func New(db *bun.DB, ttl time.Duration) (*List, error) {
	if ttl < 0 {
		return nil, fmt.Errorf("sqllist: negative ttl %s", ttl)
	}
	return &List{db: db, ttl: ttl, now: time.Now}, nil
}

// CreateTable creates the seen_request_ids table if it does not exist.
func (l *List) CreateTable(ctx context.Context) error {
	_, err := l.db.NewCreateTable().
		Model((*SeenRequestID)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create seen_request_ids table: %w", err)
	}
	return nil
}

func (l *List) Contains(ctx context.Context, id string) (bool, error) {
	exists, err := l.db.NewSelect().
		Model((*SeenRequestID)(nil)).
		Where("key_hash = ?", requestid.CacheKey("", id)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("expires_at = 0").WhereOr("expires_at > ?", l.now().UnixNano())
		}).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check request id: %w", err)
	}
	return exists, nil
}

// Put drops an expired row for id, if any, then inserts. Both statements are
// atomic on their own and the insert does nothing on conflict, so only one
// of several concurrent callers observes an inserted row.
func (l *List) Put(ctx context.Context, id string) error {
	key := requestid.CacheKey("", id)
	now := l.now()

	_, err := l.db.NewDelete().
		Model((*SeenRequestID)(nil)).
		Where("key_hash = ?", key).
		Where("expires_at <> 0").
		Where("expires_at <= ?", now.UnixNano()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drop expired request id: %w", err)
	}

	row := &SeenRequestID{KeyHash: key}
	if l.ttl > 0 {
		row.ExpiresAt = now.Add(l.ttl).UnixNano()
	}
	res, err := l.db.NewInsert().
		Model(row).
		On("CONFLICT (key_hash) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert request id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert request id: %w", err)
	}
	if n == 0 {
		return requestid.Duplicate(id)
	}
	return nil
}

// Purge removes expired rows and reports how many were deleted.
func (l *List) Purge(ctx context.Context) (int64, error) {
	res, err := l.db.NewDelete().
		Model((*SeenRequestID)(nil)).
		Where("expires_at <> 0").
		Where("expires_at <= ?", l.now().UnixNano()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge expired request ids: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
