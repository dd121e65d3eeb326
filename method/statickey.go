package method

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

const (
	DefaultStaticKeyHeader = "X-API-Key"
	// StaticKeyClientID is the identity StaticKey reports for every request.
	StaticKeyClientID = "STATIC-KEY"
)

var headerNamePattern = regexp.MustCompile(`^[A-Za-z](?:[A-Za-z0-9\-]*[A-Za-z0-9])?$`)

// StaticKey sends the raw secret in a single header. The repository is
// searched by secret: any entry whose client id equals the presented key
// accepts the request. No client identity is conveyed.
//
// StaticKey offers no protection against replay or tampering and exists for
// testing and documentation.
type StaticKey struct {
	header string
}

var _ Method = (*StaticKey)(nil)

// NewStaticKey returns a StaticKey using header, or X-API-Key when header is
// empty. A trailing ':' is dropped; other invalid names fail with
// autherr.ErrInvalidArgument.
func NewStaticKey(header string) (*StaticKey, error) {
	header = strings.TrimRight(header, ":")
	if header == "" {
		header = DefaultStaticKeyHeader
	}
	if !headerNamePattern.MatchString(header) {
		return nil, fmt.Errorf("%w: invalid header name %q", autherr.ErrInvalidArgument, header)
	}
	return &StaticKey{header: header}, nil
}

// Header returns the header carrying the key.
func (m *StaticKey) Header() string { return m.header }

func (m *StaticKey) Authenticate(_ *reqinfo.Info, _, clientKey string) (Headers, error) {
	if clientKey == "" {
		return nil, fmt.Errorf("%w: empty client key", autherr.ErrInvalidArgument)
	}
	return Headers{{Name: m.header, Value: clientKey}}, nil
}

func (m *StaticKey) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	key, err := req.NonEmptyHeader(m.header)
	if err != nil {
		return err
	}
	ok, err := repo.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown api key", autherr.ErrInvalidAuthentication)
	}
	return nil
}

func (m *StaticKey) ClientID(*reqinfo.Info) (string, error) {
	return StaticKeyClientID, nil
}
