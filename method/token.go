package method

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

// Token is the default method. The proof is the lowercase hex
// HMAC-SHA256 of the request's SignableData, keyed by the client's shared
// secret, over the Content-Type, client id and request id headers.
//
// A proxy that rewrites Content-Type after signing breaks verification.
type Token struct {
	cfg signedConfig
}

var _ RequestIDMethod = (*Token)(nil)

// NewToken returns a Token using X-API-Client, X-API-Token and X-Request-ID
// unless overridden.
func NewToken(opts ...Option) *Token {
	return &Token{cfg: newSignedConfig(DefaultTokenHeader, opts)}
}

func (m *Token) Authenticate(req *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	out, err := m.cfg.identify(req, clientID, clientKey)
	if err != nil {
		return nil, err
	}
	token := ComputeToken(SignableData(req, m.cfg.signedHeaders(), out), clientKey)
	return append(out, Header{Name: m.cfg.proofHeader, Value: token}), nil
}

func (m *Token) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	clientID, token, err := m.cfg.extract(req)
	if err != nil {
		return err
	}
	secret, err := repo.Get(ctx, clientID)
	if err != nil {
		return err
	}
	expected := ComputeToken(SignableData(req, m.cfg.signedHeaders(), nil), secret)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return fmt.Errorf("%w: token mismatch", autherr.ErrInvalidAuthentication)
	}
	return nil
}

func (m *Token) ClientID(req *reqinfo.Info) (string, error) {
	return req.NonEmptyHeader(m.cfg.clientIDHeader)
}

func (m *Token) RequestID(req *reqinfo.Info) (string, error) {
	return m.cfg.requestID.RequestID(req)
}

// ComputeToken returns the lowercase hex HMAC-SHA256 of data keyed by secret.
func ComputeToken(data []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
