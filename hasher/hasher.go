// Package hasher verifies messages against stored password hashes and
// creates new ones. Factory picks the right Hasher from the format of a
// known hash.
package hasher

import (
	"crypto/subtle"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
)

// Hasher creates and checks hashes of one format.
//
// Test never returns early for malformed known hashes: it performs a
// comparable amount of work against a dummy value and reports false. Empty
// known hashes and the locked markers "*" and "!" never match.
type Hasher interface {
	Hash(message string) (string, error)
	Test(message, knownHash string) bool
}

// Verify is Test reporting a mismatch as autherr.ErrInvalidAuthentication.
func Verify(h Hasher, message, knownHash string) error {
	if !h.Test(message, knownHash) {
		return fmt.Errorf("%w: password does not match", autherr.ErrInvalidAuthentication)
	}
	return nil
}

func locked(knownHash string) bool {
	return knownHash == "" || knownHash == "*" || knownHash == "!"
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
