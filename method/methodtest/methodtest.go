// Package methodtest provides a conformance suite for method.Method
// implementations.
package methodtest

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

// Credential is what a client signs with and what the repository stores for
// it. They are equal for shared secrets and differ for hashes and key pairs.
type Credential struct {
	Sign   string
	Stored string
}

// Config describes the method under test.
type Config struct {
	New func(t *testing.T) method.Method

	ClientID string
	Key      Credential
	OtherKey Credential

	// Repository builds a repository holding the client's stored key.
	// Defaults to keys.NewSingle.
	Repository func(t *testing.T, clientID, stored string) keys.Repository

	// ExpectedClientID is what ClientID should report after verification.
	// Defaults to ClientID.
	ExpectedClientID string

	// DataDependent marks methods whose proof covers the request data.
	DataDependent bool
}

// InvalidHeaderValues are substituted for authentication headers and must be
// rejected as invalid.
var InvalidHeaderValues = []string{"*", "\x00", "0", strings.Repeat("1", 64)}

// FixedRequestID is a valid request id used where output must be comparable.
const FixedRequestID = "0123456789abcdef0123456789abcdef"

// SampleFields is the reference request used throughout the suite.
func SampleFields() reqinfo.Fields {
	return reqinfo.Fields{
		Method: "POST",
		Scheme: "http",
		Host:   "test.localhost",
		Path:   "/info.php?111=222",
		Body:   []byte("k1=V1&k2=V2"),
		Header: map[string][]string{
			"Content-Type": {"application/x-www-form-urlencoded"},
		},
	}
}

// Sign builds a request from f carrying the headers Authenticate produced.
func Sign(t *testing.T, m method.Method, f reqinfo.Fields, clientID, clientKey string) (reqinfo.Fields, method.Headers) {
	t.Helper()
	hdrs, err := m.Authenticate(reqinfo.New(f), clientID, clientKey)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	signed := f
	signed.Header = cloneHeader(f.Header)
	for _, h := range hdrs {
		signed.Header[h.Name] = []string{h.Value}
	}
	return signed, hdrs
}

// RunMethodTests runs the method suite.
func RunMethodTests(t *testing.T, cfg Config) {
	if cfg.Repository == nil {
		cfg.Repository = func(t *testing.T, clientID, stored string) keys.Repository {
			r, err := keys.NewSingle(clientID, stored)
			if err != nil {
				t.Fatalf("NewSingle failed: %v", err)
			}
			return r
		}
	}
	if cfg.ExpectedClientID == "" {
		cfg.ExpectedClientID = cfg.ClientID
	}

	t.Run("RoundTrip_Verifies", func(t *testing.T) { testRoundTrip(t, cfg) })
	t.Run("RoundTrip_DoesNotMutateRequest", func(t *testing.T) { testNoMutation(t, cfg) })
	t.Run("Key_ChangeInvalidates", func(t *testing.T) { testKeyChange(t, cfg) })
	t.Run("Key_UnknownClient", func(t *testing.T) { testUnknownClient(t, cfg) })
	t.Run("Headers_RepeatedInvalidates", func(t *testing.T) { testRepeatedHeaders(t, cfg) })
	t.Run("Headers_MissingOrEmpty", func(t *testing.T) { testMissingHeaders(t, cfg) })
	t.Run("Headers_InvalidValues", func(t *testing.T) { testInvalidValues(t, cfg) })
	if cfg.DataDependent {
		t.Run("Data_MutationInvalidates", func(t *testing.T) { testMutations(t, cfg) })
	}
}

func requests() map[string]reqinfo.Fields {
	get := SampleFields()
	get.Method = "GET"
	get.Body = nil
	delete(get.Header, "Content-Type")

	json := SampleFields()
	json.Method = "PATCH"
	json.Scheme = "https"
	json.Host = "test2.localhost:8443"
	json.Path = "/info.php?444=555"
	json.Body = []byte(`{"k1":"V1","k2":"V2"}`)
	json.Header = map[string][]string{"Content-Type": {"application/json"}, "X-Request-ID": {FixedRequestID}}

	return map[string]reqinfo.Fields{"form": SampleFields(), "get": get, "json": json}
}

func testRoundTrip(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	repo := cfg.Repository(t, cfg.ClientID, cfg.Key.Stored)
	for name, f := range requests() {
		signed, _ := Sign(t, m, f, cfg.ClientID, cfg.Key.Sign)
		req := reqinfo.New(signed)
		if err := m.Verify(ctx, req, repo); err != nil {
			t.Fatalf("%s: Verify failed: %v", name, err)
		}
		id, err := m.ClientID(req)
		if err != nil {
			t.Fatalf("%s: ClientID failed: %v", name, err)
		}
		if id != cfg.ExpectedClientID {
			t.Fatalf("%s: ClientID = %q, want %q", name, id, cfg.ExpectedClientID)
		}
	}
}

func testNoMutation(t *testing.T, cfg Config) {
	req := reqinfo.New(SampleFields())
	before := req.Headers()
	if _, err := cfg.New(t).Authenticate(req, cfg.ClientID, cfg.Key.Sign); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !maps.Equal(before, req.Headers()) {
		t.Fatalf("Authenticate changed the request headers: %v -> %v", before, req.Headers())
	}
}

func testKeyChange(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	f := SampleFields()
	f.Header["X-Request-ID"] = []string{FixedRequestID}

	signed, first := Sign(t, m, f, cfg.ClientID, cfg.Key.Sign)
	_, second := Sign(t, m, f, cfg.ClientID, cfg.OtherKey.Sign)
	if maps.Equal(first.Map(), second.Map()) {
		t.Fatalf("changing the key did not change the output: %v", first)
	}

	err := m.Verify(ctx, reqinfo.New(signed), cfg.Repository(t, cfg.ClientID, cfg.OtherKey.Stored))
	if !errors.Is(err, autherr.ErrInvalidAuthentication) {
		t.Fatalf("verify with the other key: err = %v, want ErrInvalidAuthentication", err)
	}
}

func testUnknownClient(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	signed, _ := Sign(t, m, SampleFields(), cfg.ClientID, cfg.Key.Sign)
	err := m.Verify(ctx, reqinfo.New(signed), cfg.Repository(t, "C11", cfg.OtherKey.Stored))
	if !errors.Is(err, autherr.ErrInvalidAuthentication) {
		t.Fatalf("verify against a repository without the client: err = %v, want ErrInvalidAuthentication", err)
	}
}

func testRepeatedHeaders(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	repo := cfg.Repository(t, cfg.ClientID, cfg.Key.Stored)
	signed, hdrs := Sign(t, m, SampleFields(), cfg.ClientID, cfg.Key.Sign)

	names := headerNames(hdrs)
	if cfg.DataDependent {
		names = append(names, method.ContentTypeHeader)
	}
	for _, name := range names {
		f := signed
		f.Header = cloneHeader(signed.Header)
		v := f.Header[name][0]
		f.Header[name] = []string{v, v}
		err := m.Verify(ctx, reqinfo.New(f), repo)
		if !errors.Is(err, autherr.ErrInvalidAuthentication) {
			t.Fatalf("repeated %s: err = %v, want ErrInvalidAuthentication", name, err)
		}
	}
}

func testMissingHeaders(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	repo := cfg.Repository(t, cfg.ClientID, cfg.Key.Stored)
	signed, hdrs := Sign(t, m, SampleFields(), cfg.ClientID, cfg.Key.Sign)

	for _, name := range headerNames(hdrs) {
		removed := reqinfo.New(signed).WithoutHeaders(name)
		if err := m.Verify(ctx, removed, repo); !errors.Is(err, autherr.ErrMissingAuthenticationHeader) {
			t.Fatalf("without %s: err = %v, want ErrMissingAuthenticationHeader", name, err)
		}
		empty := reqinfo.New(signed).WithHeaders(map[string]string{name: ""})
		if err := m.Verify(ctx, empty, repo); !errors.Is(err, autherr.ErrMissingAuthenticationHeader) {
			t.Fatalf("empty %s: err = %v, want ErrMissingAuthenticationHeader", name, err)
		}
	}

	if err := m.Verify(ctx, reqinfo.New(SampleFields()), repo); !errors.Is(err, autherr.ErrMissingAuthenticationHeader) {
		t.Fatalf("unsigned request: err = %v, want ErrMissingAuthenticationHeader", err)
	}
}

func testInvalidValues(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	repo := cfg.Repository(t, cfg.ClientID, cfg.Key.Stored)
	signed, hdrs := Sign(t, m, SampleFields(), cfg.ClientID, cfg.Key.Sign)

	for _, name := range headerNames(hdrs) {
		for _, bad := range InvalidHeaderValues {
			req := reqinfo.New(signed).WithHeaders(map[string]string{name: bad})
			if err := m.Verify(ctx, req, repo); !errors.Is(err, autherr.ErrInvalidAuthentication) {
				t.Fatalf("%s = %q: err = %v, want ErrInvalidAuthentication", name, bad, err)
			}
		}
	}
}

func testMutations(t *testing.T, cfg Config) {
	ctx := context.Background()
	m := cfg.New(t)
	repo := cfg.Repository(t, cfg.ClientID, cfg.Key.Stored)
	signed, _ := Sign(t, m, SampleFields(), cfg.ClientID, cfg.Key.Sign)

	mutations := map[string]func(f *reqinfo.Fields){
		"method": func(f *reqinfo.Fields) { f.Method = "PATCH" },
		"scheme": func(f *reqinfo.Fields) { f.Scheme = "https" },
		"host":   func(f *reqinfo.Fields) { f.Host = "test2.localhost" },
		"path":   func(f *reqinfo.Fields) { f.Path = "/info.php?444=555" },
		"body":   func(f *reqinfo.Fields) { f.Body = []byte(`{"k1":"V1"}`) },
		"content-type": func(f *reqinfo.Fields) {
			f.Header["Content-Type"] = []string{"application/json"}
		},
		"content-type-removed": func(f *reqinfo.Fields) { delete(f.Header, "Content-Type") },
	}
	for name, mutate := range mutations {
		f := signed
		f.Header = cloneHeader(signed.Header)
		mutate(&f)
		if err := m.Verify(ctx, reqinfo.New(f), repo); !errors.Is(err, autherr.ErrInvalidAuthentication) {
			t.Fatalf("mutated %s: err = %v, want ErrInvalidAuthentication", name, err)
		}
	}
}

func headerNames(h method.Headers) []string {
	names := make([]string, 0, len(h))
	for _, hdr := range h {
		names = append(names, hdr.Name)
	}
	return names
}

func cloneHeader(h map[string][]string) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}
