package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/golang-jwt/jwt/v5"
)

// Ed25519 produces raw Ed25519 signatures encoded as unpadded base64url.
type Ed25519 struct{}

var _ Scheme = Ed25519{}

func (Ed25519) NewSigner(encodedPrivateKey string) (Signer, error) {
	priv, err := DecodePrivateKey(encodedPrivateKey)
	if err != nil {
		return nil, err
	}
	return ed25519Signer{key: priv}, nil
}

func (Ed25519) NewVerifier(encodedPublicKey string) (Verifier, error) {
	pub, err := DecodePublicKey(encodedPublicKey)
	if err != nil {
		return nil, err
	}
	return ed25519Verifier{key: pub}, nil
}

type ed25519Signer struct {
	key ed25519.PrivateKey
}

func (s ed25519Signer) Sign(message []byte) (string, error) {
	sig, err := jwt.SigningMethodEdDSA.Sign(string(message), s.key)
	if err != nil {
		return "", fmt.Errorf("%w: ed25519 sign: %w", autherr.ErrCrypto, err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

type ed25519Verifier struct {
	key ed25519.PublicKey
}

func (v ed25519Verifier) Test(message []byte, signature string) (bool, error) {
	sig, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("%w: malformed signature", autherr.ErrInvalidAuthentication)
	}
	err = jwt.SigningMethodEdDSA.Verify(string(message), sig, v.key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, jwt.ErrEd25519Verification):
		return false, nil
	default:
		return false, fmt.Errorf("%w: ed25519 verify: %w", autherr.ErrCrypto, err)
	}
}
