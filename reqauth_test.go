package reqauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/stretchr/testify/require"
)

const (
	testClient = "client-1"
	testSecret = "s3cret"
)

func testRepo(t *testing.T) *keys.Map {
	t.Helper()
	repo, err := keys.NewMap(map[string]string{testClient: testSecret, "basic-user": "pw"})
	require.NoError(t, err)
	return repo
}

// echoHandler answers with the client id and the body it received.
func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := ClientIDFromContext(r.Context())
		body, _ := io.ReadAll(r.Body)
		_, _ = fmt.Fprintf(w, "%s|%s", id, body)
	})
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, res *http.Response) errorResponse {
	t.Helper()
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var body errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func newSignedRequest(t *testing.T, a *Authenticator, url, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/plain")
	signed, err := a.Authenticate(req)
	require.NoError(t, err)
	return signed
}

// brokenRepo fails every lookup as an unavailable backend would.
type brokenRepo struct{ keys.ReadOnly }

func (brokenRepo) Exists(context.Context, string) (bool, error) {
	return false, fmt.Errorf("%w: backend down", autherr.ErrRepositorySource)
}

func (brokenRepo) Get(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: backend down", autherr.ErrRepositorySource)
}

var _ keys.Repository = brokenRepo{}

func newTokenAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(method.NewToken(), testClient, testSecret)
	require.NoError(t, err)
	return a
}

func serve(t *testing.T, v *Verifier) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(v.Middleware(echoHandler()))
	t.Cleanup(srv.Close)
	return srv
}
