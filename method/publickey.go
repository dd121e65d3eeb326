package method

import (
	"context"

	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/ggoodman/request-auth-go/signature"
)

// PublicKey signs the same canonical data as Token with the client's private
// key. The repository holds each client's encoded public key, so the
// verifying side never sees a secret.
type PublicKey struct {
	cfg signedConfig
}

var _ RequestIDMethod = (*PublicKey)(nil)

// NewPublicKey returns a PublicKey using X-API-Client, X-API-Signature,
// X-Request-ID and the signature.Ed25519 scheme unless overridden.
func NewPublicKey(opts ...Option) *PublicKey {
	return &PublicKey{cfg: newSignedConfig(DefaultSignatureHeader, opts)}
}

// Authenticate signs req. clientKey is the encoded private key.
func (m *PublicKey) Authenticate(req *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	out, err := m.cfg.identify(req, clientID, clientKey)
	if err != nil {
		return nil, err
	}
	signer, err := m.cfg.scheme.NewSigner(clientKey)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(SignableData(req, m.cfg.signedHeaders(), out))
	if err != nil {
		return nil, err
	}
	return append(out, Header{Name: m.cfg.proofHeader, Value: sig}), nil
}

func (m *PublicKey) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	clientID, sig, err := m.cfg.extract(req)
	if err != nil {
		return err
	}
	publicKey, err := repo.Get(ctx, clientID)
	if err != nil {
		return err
	}
	verifier, err := m.cfg.scheme.NewVerifier(publicKey)
	if err != nil {
		return err
	}
	return signature.Verify(verifier, SignableData(req, m.cfg.signedHeaders(), nil), sig)
}

func (m *PublicKey) ClientID(req *reqinfo.Info) (string, error) {
	return req.NonEmptyHeader(m.cfg.clientIDHeader)
}

func (m *PublicKey) RequestID(req *reqinfo.Info) (string, error) {
	return m.cfg.requestID.RequestID(req)
}
