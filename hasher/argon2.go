package hasher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
	"golang.org/x/crypto/argon2"
)

// Argon2 variants.
const (
	Argon2i  = "argon2i"
	Argon2id = "argon2id"
)

// Argon2 handles PHC formatted $argon2i$ and $argon2id$ hashes:
//
//	$argon2id$v=19$m=65536,t=4,p=1$<salt>$<key>
//
// with salt and key in unpadded standard base64. Zero parameters take the
// defaults below. Test reads its parameters from the known hash.
type Argon2 struct {
	Variant string // Argon2i or Argon2id; empty means Argon2id
	Time    uint32 // default 4
	Memory  uint32 // KiB, default 65536
	Threads uint8  // default 1
	KeyLen  uint32 // default 32
	SaltLen int    // default 16
}

type argon2Params struct {
	variant string
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (a Argon2) defaults() argon2Params {
	p := argon2Params{variant: a.Variant, time: a.Time, memory: a.Memory, threads: a.Threads}
	if p.variant == "" {
		p.variant = Argon2id
	}
	if p.time == 0 {
		p.time = 4
	}
	if p.memory == 0 {
		p.memory = 64 * 1024
	}
	if p.threads == 0 {
		p.threads = 1
	}
	return p
}

func (a Argon2) Hash(message string) (string, error) {
	p := a.defaults()
	if p.variant != Argon2i && p.variant != Argon2id {
		return "", fmt.Errorf("%w: unsupported argon2 variant %q", autherr.ErrInvalidArgument, p.variant)
	}
	saltLen := a.SaltLen
	if saltLen == 0 {
		saltLen = 16
	}
	keyLen := a.KeyLen
	if keyLen == 0 {
		keyLen = 32
	}
	p.salt = make([]byte, saltLen)
	if _, err := rand.Read(p.salt); err != nil {
		return "", fmt.Errorf("%w: argon2 salt: %w", autherr.ErrHash, err)
	}
	p.key = deriveArgon2(p, message, keyLen)
	return p.encode(), nil
}

func (a Argon2) Test(message, knownHash string) bool {
	p, ok := parseArgon2(knownHash)
	if !ok || locked(knownHash) {
		d := a.defaults()
		d.salt = make([]byte, 16)
		_ = deriveArgon2(d, message, 32)
		return false
	}
	got := deriveArgon2(p, message, uint32(len(p.key)))
	return constantTimeEqual(string(got), string(p.key))
}

func deriveArgon2(p argon2Params, message string, keyLen uint32) []byte {
	if p.variant == Argon2i {
		return argon2.Key([]byte(message), p.salt, p.time, p.memory, p.threads, keyLen)
	}
	return argon2.IDKey([]byte(message), p.salt, p.time, p.memory, p.threads, keyLen)
}

func (p argon2Params) encode() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		p.variant, argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key))
}

func parseArgon2(hash string) (argon2Params, bool) {
	var p argon2Params
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, false
	}
	p.variant = parts[1]
	if p.variant != Argon2i && p.variant != Argon2id {
		return p, false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, false
	}
	if p.time < 1 || p.threads < 1 || p.memory < 8*uint32(p.threads) {
		return p, false
	}
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[4], "=")); err != nil || len(p.salt) < 8 {
		return p, false
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(parts[5], "=")); err != nil || len(p.key) < 4 {
		return p, false
	}
	return p, true
}
