package reqinfo

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
)

func sample() *Info {
	return New(Fields{
		Method: "POST",
		Scheme: "http",
		Host:   "test.localhost",
		Path:   "/info.php?111=222",
		Body:   []byte("k1=V1&k2=V2"),
		Header: map[string][]string{
			"Content-Type": {"application/x-www-form-urlencoded"},
			"X-Empty":      {""},
			"X-Twice":      {"a", "b"},
		},
	})
}

func TestAccessors(t *testing.T) {
	info := sample()
	if got := info.URI(); got != "http://test.localhost/info.php?111=222" {
		t.Fatalf("URI = %q", got)
	}
	if v, ok := info.Header("CONTENT-TYPE"); !ok || v != "application/x-www-form-urlencoded" {
		t.Fatalf("Header(CONTENT-TYPE) = %q, %v", v, ok)
	}
	if v, _ := info.Header("x-twice"); v != "a\x00b" {
		t.Fatalf("repeated header = %q", v)
	}
	if !info.HasHeader("x-empty") {
		t.Fatalf("HasHeader(x-empty) should be true")
	}
	if _, err := info.NonEmptyHeader("x-empty"); !errors.Is(err, autherr.ErrMissingAuthenticationHeader) {
		t.Fatalf("NonEmptyHeader(empty) err = %v", err)
	}
	if _, err := info.NonEmptyHeader("x-absent"); !errors.Is(err, autherr.ErrMissingAuthenticationHeader) {
		t.Fatalf("NonEmptyHeader(absent) err = %v", err)
	}
	if _, err := info.NonEmptyHeader(""); !errors.Is(err, autherr.ErrInvalidArgument) {
		t.Fatalf("NonEmptyHeader(\"\") err = %v", err)
	}
}

func TestImmutability(t *testing.T) {
	info := sample()
	body := info.Body()
	body[0] = 'X'
	if string(info.Body()) != "k1=V1&k2=V2" {
		t.Fatalf("Body copy leaked a mutation")
	}
	h := info.Headers()
	h["content-type"] = "text/plain"
	if v, _ := info.Header("content-type"); v != "application/x-www-form-urlencoded" {
		t.Fatalf("Headers copy leaked a mutation")
	}

	next := info.WithHeaders(map[string]string{"X-API-Client": "C1"})
	if info.HasHeader("x-api-client") {
		t.Fatalf("WithHeaders mutated the original")
	}
	if v, _ := next.Header("x-api-client"); v != "C1" {
		t.Fatalf("WithHeaders value = %q", v)
	}
	if removed := next.WithoutHeaders("X-Api-Client"); removed.HasHeader("x-api-client") {
		t.Fatalf("WithoutHeaders left the header")
	}
}

func TestFromServerRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://test.localhost:80/info.php?111=222", strings.NewReader("k1=V1&k2=V2"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Add("X-Twice", "a")
	r.Header.Add("X-Twice", "b")

	info, err := FromHTTPRequest(r)
	if err != nil {
		t.Fatalf("FromHTTPRequest failed: %v", err)
	}
	if got := info.URI(); got != "http://test.localhost/info.php?111=222" {
		t.Fatalf("URI = %q", got)
	}
	if string(info.Body()) != "k1=V1&k2=V2" {
		t.Fatalf("Body = %q", info.Body())
	}
	if v, _ := info.Header("x-twice"); v != "a\x00b" {
		t.Fatalf("repeated header = %q", v)
	}

	rest, err := io.ReadAll(r.Body)
	if err != nil || string(rest) != "k1=V1&k2=V2" {
		t.Fatalf("body not restored: %q, %v", rest, err)
	}
}

func TestFromTLSServerRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.Host = "api.example.com:443"
	r.TLS = &tls.ConnectionState{}
	info, err := FromHTTPRequest(r)
	if err != nil {
		t.Fatalf("FromHTTPRequest failed: %v", err)
	}
	if got := info.URI(); got != "https://api.example.com/x" {
		t.Fatalf("URI = %q", got)
	}
}

func TestFromClientRequest(t *testing.T) {
	r, err := http.NewRequest(http.MethodPatch, "https://test2.localhost:8443/info.php?444=555", strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	info, err := FromHTTPRequest(r)
	if err != nil {
		t.Fatalf("FromHTTPRequest failed: %v", err)
	}
	if got := info.URI(); got != "https://test2.localhost:8443/info.php?444=555" {
		t.Fatalf("URI = %q", got)
	}
	if info.Method() != http.MethodPatch {
		t.Fatalf("Method = %q", info.Method())
	}
	rest, _ := io.ReadAll(r.Body)
	if string(rest) != `{"a":1}` {
		t.Fatalf("client body consumed: %q", rest)
	}
}

func TestMethodUppercased(t *testing.T) {
	if got := New(Fields{Method: "post"}).Method(); got != "POST" {
		t.Fatalf("Method = %q", got)
	}
	r := httptest.NewRequest("post", "http://test.localhost/", nil)
	info, err := FromHTTPRequest(r)
	if err != nil {
		t.Fatalf("FromHTTPRequest failed: %v", err)
	}
	if got := info.Method(); got != "POST" {
		t.Fatalf("Method from server request = %q", got)
	}
}

func TestCaseVariantHeadersMergeInStableOrder(t *testing.T) {
	f := Fields{Header: map[string][]string{
		"x-a": {"2"},
		"X-A": {"1"},
		"X-b": {"3"},
	}}
	for range 50 {
		info := New(f)
		if v, _ := info.Header("x-a"); v != "1\x002" {
			t.Fatalf("merged header = %q", v)
		}
		if v, _ := info.Header("x-b"); v != "3" {
			t.Fatalf("x-b = %q", v)
		}
	}
}
