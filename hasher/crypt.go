package hasher

import (
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/apr1_crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/ggoodman/request-auth-go/autherr"
)

// Crypt handles the crypt(3) family: $1$ (MD5), $5$ (SHA-256), $6$ (SHA-512)
// and the Apache $apr1$ variant. Build one with MD5Crypt, SHA256Crypt,
// SHA512Crypt or APR1.
type Crypt struct {
	name  string
	new   func() crypt.Crypter
	dummy string
}

func MD5Crypt() Crypt {
	return Crypt{name: "md5-crypt", new: md5_crypt.New, dummy: "$1$dummysal$"}
}

func APR1() Crypt {
	return Crypt{name: "apr1", new: apr1_crypt.New, dummy: "$apr1$dummysal$"}
}

func SHA256Crypt() Crypt {
	return Crypt{name: "sha256-crypt", new: sha256_crypt.New, dummy: "$5$dummysaltdummys$"}
}

func SHA512Crypt() Crypt {
	return Crypt{name: "sha512-crypt", new: sha512_crypt.New, dummy: "$6$dummysaltdummys$"}
}

func (c Crypt) Hash(message string) (string, error) {
	h, err := c.new().Generate([]byte(message), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", autherr.ErrHash, c.name, err)
	}
	return h, nil
}

func (c Crypt) Test(message, knownHash string) bool {
	cr := c.new()
	if locked(knownHash) {
		_, _ = cr.Generate([]byte(message), []byte(c.dummy))
		return false
	}
	// The known hash carries its own salt and rounds: $id$[rounds=N$]salt$hash.
	h, err := cr.Generate([]byte(message), []byte(saltPrefix(knownHash)))
	if err != nil {
		_, _ = cr.Generate([]byte(message), []byte(c.dummy))
		return false
	}
	return constantTimeEqual(h, knownHash)
}

// saltPrefix drops the trailing "$hash" field of a crypt(3) string.
func saltPrefix(knownHash string) string {
	if i := strings.LastIndexByte(knownHash, '$'); i > 0 {
		return knownHash[:i]
	}
	return knownHash
}
