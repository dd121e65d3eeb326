package signature

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	jose "github.com/go-jose/go-jose/v4"
)

// JWS produces detached compact JSON Web Signatures (RFC 7515 appendix F)
// using EdDSA: "header..signature", the payload being the signed message.
type JWS struct{}

var _ Scheme = JWS{}

func (JWS) NewSigner(encodedPrivateKey string) (Signer, error) {
	priv, err := DecodePrivateKey(encodedPrivateKey)
	if err != nil {
		return nil, err
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: priv}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create jws signer: %w", autherr.ErrCrypto, err)
	}
	return jwsSigner{signer: signer}, nil
}

func (JWS) NewVerifier(encodedPublicKey string) (Verifier, error) {
	pub, err := DecodePublicKey(encodedPublicKey)
	if err != nil {
		return nil, err
	}
	return jwsVerifier{key: pub}, nil
}

type jwsSigner struct {
	signer jose.Signer
}

func (s jwsSigner) Sign(message []byte) (string, error) {
	obj, err := s.signer.Sign(message)
	if err != nil {
		return "", fmt.Errorf("%w: jws sign: %w", autherr.ErrCrypto, err)
	}
	compact, err := obj.DetachedCompactSerialize()
	if err != nil {
		return "", fmt.Errorf("%w: serialize jws: %w", autherr.ErrCrypto, err)
	}
	return compact, nil
}

type jwsVerifier struct {
	key ed25519.PublicKey
}

func (v jwsVerifier) Test(message []byte, signature string) (bool, error) {
	obj, err := jose.ParseDetached(signature, message, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return false, fmt.Errorf("%w: malformed signature", autherr.ErrInvalidAuthentication)
	}
	if len(obj.Signatures) != 1 {
		return false, fmt.Errorf("%w: expected one signature, got %d", autherr.ErrInvalidAuthentication, len(obj.Signatures))
	}
	if _, err := obj.Verify(v.key); err != nil {
		return false, nil
	}
	return true, nil
}
