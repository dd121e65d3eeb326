// Package signature adapts public-key signature primitives to the shape the
// public-key authentication method needs: sign a message with an encoded
// private key, test a signature with an encoded public key.
//
// Keys are transported as standard base64 of the raw Ed25519 key material: a
// 32 byte seed or 64 byte private key, and a 32 byte public key.
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
)

// Signer signs messages with one private key.
type Signer interface {
	Sign(message []byte) (string, error)
}

// Verifier tests signatures with one public key. Test returns (false, nil)
// for a well formed signature that does not match, and an error matching
// autherr.ErrInvalidAuthentication for a signature that cannot be decoded.
type Verifier interface {
	Test(message []byte, signature string) (bool, error)
}

// Scheme builds Signers and Verifiers from encoded keys. Undecodable or
// invalid keys fail with autherr.ErrCrypto.
type Scheme interface {
	NewSigner(encodedPrivateKey string) (Signer, error)
	NewVerifier(encodedPublicKey string) (Verifier, error)
}

// Verify is Test reporting a mismatch as autherr.ErrInvalidAuthentication.
func Verify(v Verifier, message []byte, signature string) error {
	ok, err := v.Test(message, signature)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: signature mismatch", autherr.ErrInvalidAuthentication)
	}
	return nil
}

// GenerateKeyPair returns a fresh encoded Ed25519 private and public key.
func GenerateKeyPair() (privateKey, publicKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("%w: generate ed25519 key: %w", autherr.ErrCrypto, err)
	}
	return base64.StdEncoding.EncodeToString(priv), base64.StdEncoding.EncodeToString(pub), nil
}

// PublicKeyFromPrivate derives the encoded public key of an encoded private key.
func PublicKeyFromPrivate(encodedPrivateKey string) (string, error) {
	priv, err := DecodePrivateKey(encodedPrivateKey)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey)), nil
}

// DecodePrivateKey decodes a base64 Ed25519 seed or private key.
func DecodePrivateKey(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode private key: %w", autherr.ErrCrypto, err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	}
	return nil, fmt.Errorf("%w: private key has %d bytes", autherr.ErrCrypto, len(raw))
}

// DecodePublicKey decodes a base64 Ed25519 public key.
func DecodePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode public key: %w", autherr.ErrCrypto, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key has %d bytes", autherr.ErrCrypto, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}
