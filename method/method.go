// Package method implements the authentication methods: how a client's
// credentials are turned into request headers, and how those headers are
// checked against a key repository.
//
// All methods are stateless apart from their construction time configuration
// and are safe for concurrent use. The one exception is Stack, whose ClientID
// memo is documented on the type.
package method

import (
	"context"
	"net/http"
	"strings"

	"github.com/ggoodman/request-auth-go/hasher"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

// Method is an authentication scheme.
//
// Authenticate computes the headers that authenticate req on behalf of the
// client. It never modifies req.
//
// Verify checks the authentication headers of req against the key repository.
// Failures match autherr.ErrMissingAuthenticationHeader when a required header
// is absent or empty, autherr.ErrInvalidAuthentication when the headers are
// present but wrong, and autherr.ErrCrypto when a primitive fails.
//
// ClientID extracts the claimed client identity without checking any proof.
type Method interface {
	Authenticate(req *reqinfo.Info, clientID, clientKey string) (Headers, error)
	Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error
	ClientID(req *reqinfo.Info) (string, error)
}

// RequestIDMethod is implemented by methods that carry a replay guard token.
// RequestID returns the request's syntactically valid request id.
type RequestIDMethod interface {
	Method
	RequestID(req *reqinfo.Info) (string, error)
}

// HasherFactory picks the Hasher able to test a stored hash.
type HasherFactory interface {
	Hasher(knownHash string) (hasher.Hasher, error)
}

// Header is one authentication header.
type Header struct {
	Name  string
	Value string
}

// Headers is the ordered output of Authenticate.
type Headers []Header

// Get returns the value of the named header, matched case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr.Value, true
		}
	}
	return "", false
}

// Map returns the headers as a map keyed by name.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		m[hdr.Name] = hdr.Value
	}
	return m
}

// Apply sets every header on dst, replacing existing values.
func (h Headers) Apply(dst http.Header) {
	for _, hdr := range h {
		dst.Set(hdr.Name, hdr.Value)
	}
}
