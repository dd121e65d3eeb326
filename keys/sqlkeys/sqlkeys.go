// Package sqlkeys serves client keys from a SQL table through bun. The
// repository only reads; rows are provisioned by whatever manages clients.
package sqlkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/uptrace/bun"
)

// ClientKey is one row of the client_keys table.
type ClientKey struct {
	bun.BaseModel `bun:"table:client_keys,alias:ck"`

	ClientID  string    `bun:"client_id,pk"`
	Key       string    `bun:"client_key,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Repository is a keys.Repository over the client_keys table.
type Repository struct {
	keys.ReadOnly
	db *bun.DB
}

var _ keys.Repository = (*Repository)(nil)

func New(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateTable creates the client_keys table if it does not exist.
func (r *Repository) CreateTable(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*ClientKey)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create client_keys table: %w", err)
	}
	return nil
}

func (r *Repository) Exists(ctx context.Context, clientID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*ClientKey)(nil)).
		Where("client_id = ?", clientID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: check client %q: %w", autherr.ErrRepositorySource, clientID, err)
	}
	return exists, nil
}

func (r *Repository) Get(ctx context.Context, clientID string) (string, error) {
	row := new(ClientKey)
	err := r.db.NewSelect().
		Model(row).
		Column("client_key").
		Where("client_id = ?", clientID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", keys.UnknownClient(clientID)
		}
		return "", fmt.Errorf("%w: get client %q: %w", autherr.ErrRepositorySource, clientID, err)
	}
	return row.Key, nil
}
