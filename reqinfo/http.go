package reqinfo

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// FromHTTPRequest snapshots r. Server requests take their scheme from the TLS
// state and their host from the Host header; client requests use r.URL. Default
// ports are dropped from the host.
//
// The body is read through r.GetBody when available, otherwise it is read and
// r.Body is replaced with an equivalent reader so the caller can still consume
// it.
func FromHTTPRequest(r *http.Request) (*Info, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	scheme = strings.ToLower(scheme)

	host := r.Host
	if host == "" {
		host = r.URL.Host
	}

	path := r.RequestURI
	if !strings.HasPrefix(path, "/") {
		path = r.URL.RequestURI()
	}

	return New(Fields{
		Method: r.Method,
		Scheme: scheme,
		Host:   stripDefaultPort(scheme, strings.ToLower(host)),
		Path:   path,
		Body:   body,
		Header: r.Header,
	}), nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if r.GetBody != nil {
		rc, err := r.GetBody()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	body, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func stripDefaultPort(scheme, host string) string {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		if strings.Contains(h, ":") {
			return "[" + h + "]"
		}
		return h
	}
	return host
}
