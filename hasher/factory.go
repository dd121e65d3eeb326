package hasher

import (
	"fmt"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
)

// Factory selects a Hasher from the format of a known hash. The zero value
// is ready to use; Bcrypt and Argon2 only affect hashes created through the
// returned Hasher.
type Factory struct {
	Bcrypt Bcrypt
	Argon2 Argon2
}

// Hasher returns the Hasher for knownHash. Recognized but unsupported formats
// (traditional and extended DES crypt, $argon2d$) fail with
// autherr.ErrHashMethodNotImplemented; anything else unrecognized fails with
// autherr.ErrHashMethodUnknown.
func (f Factory) Hasher(knownHash string) (Hasher, error) {
	switch {
	case hasAnyPrefix(knownHash, "$2$", "$2a$", "$2b$", "$2x$", "$2y$"):
		return f.Bcrypt, nil
	case strings.HasPrefix(knownHash, "$argon2i$"):
		a := f.Argon2
		a.Variant = Argon2i
		return a, nil
	case strings.HasPrefix(knownHash, "$argon2id$"):
		a := f.Argon2
		a.Variant = Argon2id
		return a, nil
	case strings.HasPrefix(knownHash, "$argon2d$"):
		return nil, fmt.Errorf("%w: argon2d", autherr.ErrHashMethodNotImplemented)
	case strings.HasPrefix(knownHash, "$1$"):
		return MD5Crypt(), nil
	case strings.HasPrefix(knownHash, "$5$"):
		return SHA256Crypt(), nil
	case strings.HasPrefix(knownHash, "$6$"):
		return SHA512Crypt(), nil
	case strings.HasPrefix(knownHash, "$apr1$"):
		return APR1(), nil
	case strings.HasPrefix(knownHash, sha1Prefix):
		return SHA1{}, nil
	case strings.HasPrefix(knownHash, ssha1Prefix):
		return SaltedSHA1{}, nil
	case len(knownHash) == 20 && knownHash[0] == '_':
		return nil, fmt.Errorf("%w: extended DES crypt", autherr.ErrHashMethodNotImplemented)
	case len(knownHash) == 13 && isCryptAlphabet(knownHash):
		return nil, fmt.Errorf("%w: DES crypt", autherr.ErrHashMethodNotImplemented)
	}
	return nil, autherr.ErrHashMethodUnknown
}

// Names lists the formats ByName understands.
var Names = []string{"bcrypt", "argon2i", "argon2id", "md5", "apr1", "sha256", "sha512", "sha1", "ssha"}

// ByName returns a Hasher for creating hashes in the named format.
func (f Factory) ByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "bcrypt":
		return f.Bcrypt, nil
	case "argon2i":
		a := f.Argon2
		a.Variant = Argon2i
		return a, nil
	case "argon2", "argon2id":
		a := f.Argon2
		a.Variant = Argon2id
		return a, nil
	case "md5", "md5-crypt":
		return MD5Crypt(), nil
	case "apr1":
		return APR1(), nil
	case "sha256", "sha256-crypt":
		return SHA256Crypt(), nil
	case "sha512", "sha512-crypt":
		return SHA512Crypt(), nil
	case "sha", "sha1":
		return SHA1{}, nil
	case "ssha":
		return SaltedSHA1{}, nil
	}
	return nil, fmt.Errorf("%w: %q", autherr.ErrHashMethodUnknown, name)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isCryptAlphabet(s string) bool {
	for _, c := range s {
		switch {
		case c == '.', c == '/':
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}
