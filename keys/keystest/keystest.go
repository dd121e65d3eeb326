// Package keystest provides a conformance suite for keys.Repository
// implementations.
package keystest

import (
	"context"
	"errors"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
)

// RepositoryFactory creates a repository holding exactly the given entries.
type RepositoryFactory func(t *testing.T, entries map[string]string) keys.Repository

// Mutator is implemented by repositories that expose map-like writes.
type Mutator interface {
	Set(ctx context.Context, clientID, key string) error
	Delete(ctx context.Context, clientID string) error
}

// RunRepositoryTests runs the repository suite against factory.
func RunRepositoryTests(t *testing.T, factory RepositoryFactory) {
	t.Run("Lookup_KnownClient", func(t *testing.T) { testKnownClient(t, factory) })
	t.Run("Lookup_UnknownClient", func(t *testing.T) { testUnknownClient(t, factory) })
	t.Run("Lookup_KeyWithColon", func(t *testing.T) { testKeyWithColon(t, factory) })
	t.Run("Writes_AreRejected", func(t *testing.T) { testWritesRejected(t, factory) })
}

func testKnownClient(t *testing.T, factory RepositoryFactory) {
	ctx := context.Background()
	repo := factory(t, map[string]string{"C1": "h8sLmTPFgQ"})

	ok, err := repo.Exists(ctx, "C1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Fatalf("Exists(C1) = false, want true")
	}
	key, err := repo.Get(ctx, "C1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if key != "h8sLmTPFgQ" {
		t.Fatalf("Get(C1) = %q, want %q", key, "h8sLmTPFgQ")
	}
}

func testUnknownClient(t *testing.T, factory RepositoryFactory) {
	ctx := context.Background()
	repo := factory(t, map[string]string{"C1": "h8sLmTPFgQ"})

	ok, err := repo.Exists(ctx, "C11")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Fatalf("Exists(C11) = true, want false")
	}
	_, err = repo.Get(ctx, "C11")
	if !errors.Is(err, autherr.ErrUnknownClientID) {
		t.Fatalf("Get(C11) err = %v, want ErrUnknownClientID", err)
	}
	if !errors.Is(err, autherr.ErrInvalidAuthentication) {
		t.Fatalf("unknown client error should be an invalid authentication, got %v", err)
	}
}

func testKeyWithColon(t *testing.T, factory RepositoryFactory) {
	ctx := context.Background()
	repo := factory(t, map[string]string{"C2": "$apr1$salt$hash:with:colons"})
	key, err := repo.Get(ctx, "C2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if key != "$apr1$salt$hash:with:colons" {
		t.Fatalf("Get(C2) = %q", key)
	}
}

func testWritesRejected(t *testing.T, factory RepositoryFactory) {
	ctx := context.Background()
	repo := factory(t, map[string]string{"C1": "h8sLmTPFgQ"})
	m, ok := repo.(Mutator)
	if !ok {
		t.Skip("repository exposes no write methods")
	}
	if err := m.Set(ctx, "C1", "other"); !errors.Is(err, autherr.ErrImmutableData) {
		t.Fatalf("Set err = %v, want ErrImmutableData", err)
	}
	if err := m.Delete(ctx, "C1"); !errors.Is(err, autherr.ErrImmutableData) {
		t.Fatalf("Delete err = %v, want ErrImmutableData", err)
	}
	key, err := repo.Get(ctx, "C1")
	if err != nil || key != "h8sLmTPFgQ" {
		t.Fatalf("repository changed after rejected writes: %q, %v", key, err)
	}
}
