package method

import (
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/ggoodman/request-auth-go/signature"
)

const (
	DefaultClientIDHeader  = "X-API-Client"
	DefaultTokenHeader     = "X-API-Token"
	DefaultSignatureHeader = "X-API-Signature"
)

// signedConfig is shared by the methods that sign the canonical request data.
type signedConfig struct {
	clientIDHeader string
	proofHeader    string
	requestID      RequestIDPolicy
	newRequestID   func() (string, error)
	scheme         signature.Scheme
}

// Option configures Token and PublicKey.
type Option func(*signedConfig)

// WithClientIDHeader overrides the header carrying the client id.
func WithClientIDHeader(name string) Option {
	return func(c *signedConfig) { c.clientIDHeader = name }
}

// WithProofHeader overrides the header carrying the token or signature.
func WithProofHeader(name string) Option {
	return func(c *signedConfig) { c.proofHeader = name }
}

// WithRequestIDPolicy overrides the request id header and accepted lengths.
func WithRequestIDPolicy(p RequestIDPolicy) Option {
	return func(c *signedConfig) { c.requestID = p }
}

// WithRequestIDGenerator replaces GenerateRequestID.
func WithRequestIDGenerator(fn func() (string, error)) Option {
	return func(c *signedConfig) {
		if fn != nil {
			c.newRequestID = fn
		}
	}
}

// WithScheme sets the signature scheme of PublicKey. Token ignores it.
func WithScheme(s signature.Scheme) Option {
	return func(c *signedConfig) {
		if s != nil {
			c.scheme = s
		}
	}
}

func newSignedConfig(proofHeader string, opts []Option) signedConfig {
	c := signedConfig{
		clientIDHeader: DefaultClientIDHeader,
		proofHeader:    proofHeader,
		requestID:      DefaultRequestIDPolicy(),
		newRequestID:   GenerateRequestID,
		scheme:         signature.Ed25519{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *signedConfig) signedHeaders() []string {
	return []string{c.clientIDHeader, c.requestID.Header}
}

// identify returns the client id header and, when req carries no request id,
// a freshly generated one.
func (c *signedConfig) identify(req *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: empty client id", autherr.ErrInvalidArgument)
	}
	if clientKey == "" {
		return nil, fmt.Errorf("%w: empty client key", autherr.ErrInvalidArgument)
	}
	out := Headers{{Name: c.clientIDHeader, Value: clientID}}
	if v, ok := req.Header(c.requestID.Header); !ok || v == "" {
		id, err := c.newRequestID()
		if err != nil {
			return nil, err
		}
		out = append(out, Header{Name: c.requestID.Header, Value: id})
	}
	return out, nil
}

// extract reads the client id and proof headers and validates the request id.
func (c *signedConfig) extract(req *reqinfo.Info) (clientID, proof string, err error) {
	if clientID, err = req.NonEmptyHeader(c.clientIDHeader); err != nil {
		return "", "", err
	}
	requestID, err := req.NonEmptyHeader(c.requestID.Header)
	if err != nil {
		return "", "", err
	}
	if proof, err = req.NonEmptyHeader(c.proofHeader); err != nil {
		return "", "", err
	}
	if err := c.requestID.Validate(requestID); err != nil {
		return "", "", err
	}
	return clientID, proof, nil
}
