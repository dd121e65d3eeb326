package hasher

import (
	"errors"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	"golang.org/x/crypto/bcrypt"
)

// bcryptDummy is compared against when the known hash cannot be parsed.
const bcryptDummy = "$2y$10$e4s61ML2/WMpg4BM9JB/VudE38dpKiQ013byL1qVELY2DUuowPkJG"

// Bcrypt handles $2$, $2a$, $2b$, $2x$ and $2y$ hashes. A zero Cost uses
// bcrypt.DefaultCost.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(message string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(message), cost)
	if err != nil {
		return "", fmt.Errorf("%w: bcrypt: %w", autherr.ErrHash, err)
	}
	return string(h), nil
}

func (Bcrypt) Test(message, knownHash string) bool {
	if locked(knownHash) {
		_ = bcrypt.CompareHashAndPassword([]byte(bcryptDummy), []byte(message))
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(knownHash), []byte(message))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		_ = bcrypt.CompareHashAndPassword([]byte(bcryptDummy), []byte(message))
	}
	return false
}
