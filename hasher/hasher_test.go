package hasher

import (
	"errors"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testArgon2 keeps the memory cost low so the suite stays fast.
var testArgon2 = Argon2{Time: 1, Memory: 1024, Threads: 1}

func allHashers() map[string]Hasher {
	return map[string]Hasher{
		"bcrypt":       Bcrypt{Cost: bcrypt.MinCost},
		"argon2i":      Argon2{Variant: Argon2i, Time: 1, Memory: 1024, Threads: 1},
		"argon2id":     testArgon2,
		"md5-crypt":    MD5Crypt(),
		"apr1":         APR1(),
		"sha256-crypt": SHA256Crypt(),
		"sha512-crypt": SHA512Crypt(),
		"sha1":         SHA1{},
		"ssha":         SaltedSHA1{},
	}
}

func TestRoundTrip(t *testing.T) {
	for name, h := range allHashers() {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("h8sLmTPFgQ")
			require.NoError(t, err)
			assert.True(t, h.Test("h8sLmTPFgQ", hash), "hash %q should verify", hash)
			assert.False(t, h.Test("SF8aoIlsBz", hash), "other password should not verify")
			assert.False(t, h.Test("", hash))

			require.NoError(t, Verify(h, "h8sLmTPFgQ", hash))
			err = Verify(h, "SF8aoIlsBz", hash)
			assert.True(t, errors.Is(err, autherr.ErrInvalidAuthentication), "err = %v", err)
		})
	}
}

func TestLockedAndMalformed(t *testing.T) {
	for name, h := range allHashers() {
		t.Run(name, func(t *testing.T) {
			for _, known := range []string{"", "*", "!", "$2y$04$short", "$argon2id$v=19$m=1024,t=1,p=1$bad", "$1$", "{SSHA}!!", "{SHA}"} {
				assert.False(t, h.Test("h8sLmTPFgQ", known), "known hash %q", known)
			}
		})
	}
}

func TestSaltedHashesDiffer(t *testing.T) {
	for _, name := range []string{"bcrypt", "argon2id", "md5-crypt", "apr1", "sha256-crypt", "sha512-crypt", "ssha"} {
		h := allHashers()[name]
		a, err := h.Hash("h8sLmTPFgQ")
		require.NoError(t, err)
		b, err := h.Hash("h8sLmTPFgQ")
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "%s hashes should be salted", name)
	}
}

func TestKnownVectors(t *testing.T) {
	cases := []struct {
		hasher   Hasher
		password string
		hash     string
	}{
		{SHA1{}, "password", "{SHA}W6ph5Mm5Pz8GgiULbPgzG37mj9g="},
		{SHA256Crypt(), "Hello world!", "$5$saltstring$5B8vYYiY.CVt1RlTTf8KbXBH3hsxY/GNooZaBBGWEc5"},
		{SHA512Crypt(), "Hello world!", "$6$saltstring$svn8UoSVapNtMuq1ukKS4tPQd8iKwSMHWjl/O817G3uBnIFNjnQJuesI68u4OTLiBFdcbYEdFCoEOfaS35inz1"},
		{SHA256Crypt(), "Hello world!", "$5$rounds=10000$saltstringsaltst$3xv.VbSHBb41AL9AvLeujZkZRBAwqFMz2.opqey6IcA"},
		{SHA512Crypt(), "Hello world!", "$6$rounds=10000$saltstringsaltst$OW1/O6BYHV6BcXZu8QVeXbDWra3Oeqh0sbHbbMCVNSnCM/UrjmM0Dp8vOuZeHBy/YTBmSK6H9qs/y3RnOaw5v."},
	}
	for _, c := range cases {
		assert.True(t, c.hasher.Test(c.password, c.hash), "%s should verify", c.hash)
		assert.False(t, c.hasher.Test(c.password+"x", c.hash))
	}
}

func TestCryptExplicitRounds(t *testing.T) {
	cases := []struct {
		crypt Crypt
		salt  string
	}{
		{SHA256Crypt(), "$5$rounds=10000$saltsalt"},
		{SHA512Crypt(), "$6$rounds=20000$saltstringsaltstring"},
	}
	for _, c := range cases {
		hash, err := c.crypt.new().Generate([]byte("pw"), []byte(c.salt))
		require.NoError(t, err)
		require.Contains(t, hash, "rounds=")

		assert.True(t, c.crypt.Test("pw", hash), "%s should verify", hash)
		assert.False(t, c.crypt.Test("pw2", hash))

		h, err := Factory{}.Hasher(hash)
		require.NoError(t, err)
		assert.True(t, h.Test("pw", hash), "factory hasher should verify %s", hash)
	}
}

func TestArgon2Format(t *testing.T) {
	hash, err := testArgon2.Hash("h8sLmTPFgQ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)

	// Parameters come from the known hash, not the receiver.
	assert.True(t, Argon2{}.Test("h8sLmTPFgQ", hash))
}

func TestSaltedSHA1TrimsPadding(t *testing.T) {
	hash, err := SaltedSHA1{}.Hash("h8sLmTPFgQ")
	require.NoError(t, err)
	assert.True(t, SaltedSHA1{}.Test("h8sLmTPFgQ", strings.TrimRight(hash, "=")))
}
