package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemes() map[string]Scheme {
	return map[string]Scheme{"ed25519": Ed25519{}, "jws": JWS{}}
}

func TestSignAndVerify(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	otherPriv, otherPub, err := GenerateKeyPair()
	require.NoError(t, err)
	msg := []byte("POST http://test.localhost/info.php?111=222\napplication/x-www-form-urlencoded\nC1\n\nk1=V1&k2=V2")

	for name, scheme := range schemes() {
		t.Run(name, func(t *testing.T) {
			signer, err := scheme.NewSigner(priv)
			require.NoError(t, err)
			sig, err := signer.Sign(msg)
			require.NoError(t, err)

			verifier, err := scheme.NewVerifier(pub)
			require.NoError(t, err)
			require.NoError(t, Verify(verifier, msg, sig))

			ok, err := verifier.Test(append(msg, '!'), sig)
			require.NoError(t, err)
			assert.False(t, ok, "altered message must not verify")

			otherVerifier, err := scheme.NewVerifier(otherPub)
			require.NoError(t, err)
			err = Verify(otherVerifier, msg, sig)
			assert.True(t, errors.Is(err, autherr.ErrInvalidAuthentication), "err = %v", err)

			otherSigner, err := scheme.NewSigner(otherPriv)
			require.NoError(t, err)
			otherSig, err := otherSigner.Sign(msg)
			require.NoError(t, err)
			assert.NotEqual(t, sig, otherSig)
		})
	}
}

func TestMalformedSignature(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	require.NoError(t, err)
	for name, scheme := range schemes() {
		verifier, err := scheme.NewVerifier(pub)
		require.NoError(t, err)
		for _, sig := range []string{"*", "\x00", "0", strings.Repeat("1", 64)} {
			err := Verify(verifier, []byte("msg"), sig)
			assert.True(t, errors.Is(err, autherr.ErrInvalidAuthentication), "%s %q: %v", name, sig, err)
			assert.False(t, errors.Is(err, autherr.ErrCrypto), "%s %q: %v", name, sig, err)
		}
	}
}

func TestBadKeys(t *testing.T) {
	for name, scheme := range schemes() {
		for _, key := range []string{"", "not base64!", base64.StdEncoding.EncodeToString([]byte("short"))} {
			_, err := scheme.NewSigner(key)
			assert.True(t, errors.Is(err, autherr.ErrCrypto), "%s signer %q: %v", name, key, err)
			_, err = scheme.NewVerifier(key)
			assert.True(t, errors.Is(err, autherr.ErrCrypto), "%s verifier %q: %v", name, key, err)
		}
	}
}

func TestSeedKeys(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	encodedSeed := base64.StdEncoding.EncodeToString(seed)
	fullKey := base64.StdEncoding.EncodeToString(ed25519.NewKeyFromSeed(seed))

	fromSeed, err := PublicKeyFromPrivate(encodedSeed)
	require.NoError(t, err)
	fromFull, err := PublicKeyFromPrivate(fullKey)
	require.NoError(t, err)
	assert.Equal(t, fromSeed, fromFull)

	// Ed25519 is deterministic: the same key signs identically.
	a, err := Ed25519{}.NewSigner(encodedSeed)
	require.NoError(t, err)
	b, err := Ed25519{}.NewSigner(fullKey)
	require.NoError(t, err)
	sa, _ := a.Sign([]byte("m"))
	sb, _ := b.Sign([]byte("m"))
	assert.Equal(t, sa, sb)
}

func TestDetachedJWSShape(t *testing.T) {
	priv, _, err := GenerateKeyPair()
	require.NoError(t, err)
	signer, err := JWS{}.NewSigner(priv)
	require.NoError(t, err)
	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)
	parts := strings.Split(sig, ".")
	require.Len(t, parts, 3)
	assert.Empty(t, parts[1], "payload segment must be detached")
}
