package reqauth

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

// Authenticator adds the authentication headers of one client to outgoing
// requests.
type Authenticator struct {
	method    method.Method
	clientID  string
	clientKey string
}

// NewAuthenticator fails with autherr.ErrInvalidArgument when m is nil or the
// credentials are empty.
func NewAuthenticator(m method.Method, clientID, clientKey string) (*Authenticator, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil authentication method", autherr.ErrInvalidArgument)
	}
	if clientID == "" || clientKey == "" {
		return nil, fmt.Errorf("%w: client id and key must not be empty", autherr.ErrInvalidArgument)
	}
	return &Authenticator{method: m, clientID: clientID, clientKey: clientKey}, nil
}

// Headers computes the authentication headers for info.
func (a *Authenticator) Headers(info *reqinfo.Info) (method.Headers, error) {
	return a.method.Authenticate(info, a.clientID, a.clientKey)
}

// Authenticate returns a clone of r carrying the authentication headers. r is
// left untouched apart from its body, which is replaced by an equivalent
// reader when it cannot be re-read through GetBody.
func (a *Authenticator) Authenticate(r *http.Request) (*http.Request, error) {
	info, err := reqinfo.FromHTTPRequest(r)
	if err != nil {
		return nil, err
	}
	hdrs, err := a.Headers(info)
	if err != nil {
		return nil, err
	}

	out := r.Clone(r.Context())
	if body := info.Body(); len(body) > 0 {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
	}
	hdrs.Apply(out.Header)
	return out, nil
}

// Transport returns a RoundTripper that authenticates every request before
// handing it to base. A nil base uses http.DefaultTransport.
func (a *Authenticator) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{auth: a, base: base}
}

type transport struct {
	auth *Authenticator
	base http.RoundTripper
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	signed, err := t.auth.Authenticate(r)
	if err != nil {
		if r.Body != nil {
			_ = r.Body.Close()
		}
		return nil, fmt.Errorf("authenticate request: %w", err)
	}
	return t.base.RoundTrip(signed)
}
