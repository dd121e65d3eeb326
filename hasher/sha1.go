package hasher

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
)

// SHA1 handles unsalted "{SHA}" hashes: the prefix followed by the base64 of
// the SHA-1 digest.
type SHA1 struct{}

const (
	sha1Prefix  = "{SHA}"
	ssha1Prefix = "{SSHA}"
)

func (SHA1) Hash(message string) (string, error) {
	sum := sha1.Sum([]byte(message))
	return sha1Prefix + base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (s SHA1) Test(message, knownHash string) bool {
	h, _ := s.Hash(message)
	if locked(knownHash) {
		return false
	}
	return constantTimeEqual(h, knownHash)
}

// SaltedSHA1 handles "{SSHA}" hashes: the prefix followed by the base64 of
// SHA1(message+salt) with the 4 byte salt appended.
type SaltedSHA1 struct{}

const sshaSaltLen = 4

var sshaDummySalt = []byte("AAAA")

func (SaltedSHA1) Hash(message string) (string, error) {
	salt := make([]byte, sshaSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: ssha salt: %w", autherr.ErrHash, err)
	}
	return saltedSHA1(message, salt), nil
}

func (SaltedSHA1) Test(message, knownHash string) bool {
	salt := sshaDummySalt
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(knownHash, ssha1Prefix))
	if err == nil && len(raw) > sha1.Size {
		salt = raw[sha1.Size:]
	}
	h := saltedSHA1(message, salt)
	if locked(knownHash) || !strings.HasPrefix(knownHash, ssha1Prefix) {
		return false
	}
	return constantTimeEqual(strings.TrimRight(h, "="), strings.TrimRight(knownHash, "="))
}

func saltedSHA1(message string, salt []byte) string {
	h := sha1.New()
	h.Write([]byte(message))
	h.Write(salt)
	return ssha1Prefix + base64.StdEncoding.EncodeToString(append(h.Sum(nil), salt...))
}
