package method

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/hasher"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

const AuthorizationHeader = "Authorization"

const basicPrefix = "basic "

// Basic is HTTP Basic authentication against plaintext secrets. It protects
// credentials only, not the request contents.
type Basic struct{}

var _ Method = Basic{}

func NewBasic() Basic { return Basic{} }

func (Basic) Authenticate(_ *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	return basicHeaders(clientID, clientKey)
}

func (Basic) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	user, pass, err := parseBasic(req)
	if err != nil {
		return err
	}
	secret, err := repo.Get(ctx, user)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(pass)) != 1 {
		return fmt.Errorf("%w: password does not match", autherr.ErrInvalidAuthentication)
	}
	return nil
}

func (Basic) ClientID(req *reqinfo.Info) (string, error) {
	user, _, err := parseBasic(req)
	return user, err
}

// BasicHash is HTTP Basic authentication against stored password hashes. The
// format of each stored hash selects the algorithm that tests it.
type BasicHash struct {
	factory HasherFactory
}

var _ Method = BasicHash{}

// NewBasicHash returns a BasicHash using factory, or hasher.Factory{} when
// factory is nil.
func NewBasicHash(factory HasherFactory) BasicHash {
	if factory == nil {
		factory = hasher.Factory{}
	}
	return BasicHash{factory: factory}
}

func (BasicHash) Authenticate(_ *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	return basicHeaders(clientID, clientKey)
}

func (m BasicHash) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	user, pass, err := parseBasic(req)
	if err != nil {
		return err
	}
	known, err := repo.Get(ctx, user)
	if err != nil {
		return err
	}
	h, err := m.factory.Hasher(known)
	if err != nil {
		return fmt.Errorf("stored hash for %q: %w", user, err)
	}
	return hasher.Verify(h, pass, known)
}

func (BasicHash) ClientID(req *reqinfo.Info) (string, error) {
	user, _, err := parseBasic(req)
	return user, err
}

func basicHeaders(clientID, clientKey string) (Headers, error) {
	if clientID == "" || strings.Contains(clientID, ":") {
		return nil, fmt.Errorf("%w: basic client id must be non-empty and contain no ':'", autherr.ErrInvalidArgument)
	}
	if clientKey == "" {
		return nil, fmt.Errorf("%w: empty client key", autherr.ErrInvalidArgument)
	}
	cred := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientKey))
	return Headers{{Name: AuthorizationHeader, Value: "Basic " + cred}}, nil
}

func parseBasic(req *reqinfo.Info) (user, pass string, err error) {
	v, err := req.NonEmptyHeader(AuthorizationHeader)
	if err != nil {
		return "", "", err
	}
	if len(v) < len(basicPrefix) || !strings.EqualFold(v[:len(basicPrefix)], basicPrefix) {
		return "", "", fmt.Errorf("%w: not a basic credential", autherr.ErrInvalidAuthentication)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.Trim(v[len(basicPrefix):], " "))
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed basic credential", autherr.ErrInvalidAuthentication)
	}
	user, pass, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" {
		return "", "", fmt.Errorf("%w: malformed basic credential", autherr.ErrInvalidAuthentication)
	}
	return user, pass, nil
}
