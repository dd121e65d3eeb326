// Package requestid defines the replay guard: a set of request ids that have
// already been accepted. Backends live in the memorylist, redislist and sqllist
// subpackages.
package requestid

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
)

// List records accepted request ids.
//
// Put must be atomic: of any number of concurrent Put calls for one id, at
// most one succeeds. The others fail with an error matching
// autherr.ErrDuplicateRequestID and leave the list unchanged. An id whose
// entry has expired is treated as never seen.
type List interface {
	Contains(ctx context.Context, id string) (bool, error)
	Put(ctx context.Context, id string) error
}

// DefaultKeyPrefix prefixes every storage key.
const DefaultKeyPrefix = "reqauth:rid:"

// CacheKey derives the storage key for id. Request ids are attacker supplied,
// so they are hashed rather than used as keys directly.
func CacheKey(prefix, id string) string {
	sum := sha256.Sum256([]byte(id))
	return prefix + hex.EncodeToString(sum[:])
}

// Duplicate returns the error Put reports for an id that is already listed.
func Duplicate(id string) error {
	return fmt.Errorf("%w: %q", autherr.ErrDuplicateRequestID, id)
}

// ValidatePrefix rejects empty key prefixes.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: empty request id key prefix", autherr.ErrInvalidArgument)
	}
	return nil
}
