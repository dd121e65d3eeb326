// Package reqinfo holds an immutable, transport independent snapshot of an
// HTTP request: the parts authentication methods sign and inspect.
package reqinfo

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ggoodman/request-auth-go/autherr"
)

// RepeatedHeaderSeparator joins the values of a header that occurs more than
// once. A NUL byte cannot appear in a legitimate header value, so a repeated
// header never matches the value its sender signed.
const RepeatedHeaderSeparator = "\x00"

// Fields are the inputs to New.
type Fields struct {
	Method string
	Scheme string
	Host   string
	// Path is the request target: path plus query string.
	Path   string
	Body   []byte
	Header map[string][]string
}

// Info is a request snapshot. It is never mutated after construction and is
// safe for concurrent use.
type Info struct {
	method  string
	scheme  string
	host    string
	path    string
	body    []byte
	headers map[string]string
}

// New builds an Info. The method is uppercased, header names are lowercased
// and repeated values are joined with RepeatedHeaderSeparator. Names that
// differ only in case are merged in byte order of the original names.
func New(f Fields) *Info {
	info := &Info{
		method:  strings.ToUpper(f.Method),
		scheme:  f.Scheme,
		host:    f.Host,
		path:    f.Path,
		body:    append([]byte(nil), f.Body...),
		headers: make(map[string]string, len(f.Header)),
	}
	for _, name := range slices.Sorted(maps.Keys(f.Header)) {
		values := f.Header[name]
		key := strings.ToLower(name)
		if prev, ok := info.headers[key]; ok {
			values = append([]string{prev}, values...)
		}
		info.headers[key] = strings.Join(values, RepeatedHeaderSeparator)
	}
	return info
}

func (i *Info) Method() string { return i.method }

func (i *Info) Scheme() string { return i.scheme }

func (i *Info) Host() string { return i.host }

func (i *Info) Path() string { return i.path }

// URI returns scheme://host followed by the path and query.
func (i *Info) URI() string {
	return i.scheme + "://" + i.host + i.path
}

// Body returns a copy of the raw request body.
func (i *Info) Body() []byte {
	return append([]byte(nil), i.body...)
}

// Headers returns a copy of the lowercased header map.
func (i *Info) Headers() map[string]string {
	return maps.Clone(i.headers)
}

// HasHeader reports whether the header is present, even with an empty value.
func (i *Info) HasHeader(name string) bool {
	_, ok := i.headers[strings.ToLower(name)]
	return ok
}

// Header looks a header up case-insensitively.
func (i *Info) Header(name string) (string, bool) {
	v, ok := i.headers[strings.ToLower(name)]
	return v, ok
}

// NonEmptyHeader returns the header's value, or ErrMissingAuthenticationHeader
// when it is absent or empty.
func (i *Info) NonEmptyHeader(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty header name", autherr.ErrInvalidArgument)
	}
	v, ok := i.Header(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", autherr.ErrMissingAuthenticationHeader, name)
	}
	return v, nil
}

// WithHeaders returns a copy of i with the given headers added or replaced.
func (i *Info) WithHeaders(headers map[string]string) *Info {
	next := *i
	next.headers = maps.Clone(i.headers)
	for name, v := range headers {
		next.headers[strings.ToLower(name)] = v
	}
	return &next
}

// WithoutHeaders returns a copy of i with the given headers removed.
func (i *Info) WithoutHeaders(names ...string) *Info {
	next := *i
	next.headers = maps.Clone(i.headers)
	for _, name := range names {
		delete(next.headers, strings.ToLower(name))
	}
	return &next
}
