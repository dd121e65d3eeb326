// Package keys provides read-only lookups from a client identifier to that
// client's key material: a shared secret, a password hash or an encoded public
// key, depending on the authentication method in use.
package keys

import (
	"context"
	"fmt"
	"maps"

	"github.com/ggoodman/request-auth-go/autherr"
)

// Repository maps client identifiers to keys. Get fails with an error matching
// autherr.ErrUnknownClientID when the id is not known.
//
// Implementations must be safe for concurrent use.
type Repository interface {
	Exists(ctx context.Context, clientID string) (bool, error)
	Get(ctx context.Context, clientID string) (string, error)
}

// ReadOnly is embedded by repositories that expose map-like write methods
// which always refuse.
type ReadOnly struct{}

// Set always fails with autherr.ErrImmutableData.
func (ReadOnly) Set(_ context.Context, clientID, _ string) error {
	return fmt.Errorf("%w: cannot set key for %q", autherr.ErrImmutableData, clientID)
}

// Delete always fails with autherr.ErrImmutableData.
func (ReadOnly) Delete(_ context.Context, clientID string) error {
	return fmt.Errorf("%w: cannot delete key for %q", autherr.ErrImmutableData, clientID)
}

// UnknownClient returns the error Get implementations report for a missing id.
func UnknownClient(clientID string) error {
	return fmt.Errorf("%w: %q", autherr.ErrUnknownClientID, clientID)
}

func validateEntry(clientID, key string) error {
	if clientID == "" {
		return fmt.Errorf("%w: empty client id", autherr.ErrInvalidArgument)
	}
	if key == "" {
		return fmt.Errorf("%w: empty key for client %q", autherr.ErrInvalidArgument, clientID)
	}
	return nil
}

// Map is an in-memory repository.
type Map struct {
	ReadOnly
	entries map[string]string
}

var _ Repository = (*Map)(nil)

// NewMap copies entries into a new repository. Empty ids or keys are rejected.
func NewMap(entries map[string]string) (*Map, error) {
	for id, key := range entries {
		if err := validateEntry(id, key); err != nil {
			return nil, err
		}
	}
	return &Map{entries: maps.Clone(entries)}, nil
}

func (m *Map) Exists(_ context.Context, clientID string) (bool, error) {
	_, ok := m.entries[clientID]
	return ok, nil
}

func (m *Map) Get(_ context.Context, clientID string) (string, error) {
	key, ok := m.entries[clientID]
	if !ok {
		return "", UnknownClient(clientID)
	}
	return key, nil
}

// Len returns the number of clients.
func (m *Map) Len() int { return len(m.entries) }

// Single is a repository holding exactly one client.
type Single struct {
	ReadOnly
	clientID string
	key      string
}

var _ Repository = (*Single)(nil)

func NewSingle(clientID, key string) (*Single, error) {
	if err := validateEntry(clientID, key); err != nil {
		return nil, err
	}
	return &Single{clientID: clientID, key: key}, nil
}

func (s *Single) Exists(_ context.Context, clientID string) (bool, error) {
	return clientID == s.clientID, nil
}

func (s *Single) Get(_ context.Context, clientID string) (string, error) {
	if clientID != s.clientID {
		return "", UnknownClient(clientID)
	}
	return s.key, nil
}
