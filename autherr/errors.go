// Package autherr defines the error kinds shared by every package in this
// module. Each kind is a sentinel; call sites add detail with
// fmt.Errorf("%w: ...", ErrX) and callers classify with errors.Is.
package autherr

import (
	"errors"
	"net/http"
)

// kind is a sentinel that can declare a parent kind, so that a specialized
// error also matches its generalization under errors.Is.
type kind struct {
	msg    string
	parent error
}

func (k *kind) Error() string { return k.msg }

func (k *kind) Unwrap() error { return k.parent }

func newKind(msg string, parent error) error {
	return &kind{msg: msg, parent: parent}
}

var (
	// ErrMissingAuthenticationHeader reports that a header required by the
	// method is absent or empty.
	ErrMissingAuthenticationHeader = newKind("missing authentication header", nil)

	// ErrInvalidAuthentication reports that the required headers are present
	// but the check failed.
	ErrInvalidAuthentication = newKind("invalid authentication", nil)

	// ErrUnknownClientID reports a client identifier the key repository does
	// not know. It is an ErrInvalidAuthentication.
	ErrUnknownClientID = newKind("unknown client id", ErrInvalidAuthentication)

	// ErrDuplicateRequestID reports a replayed request id. It is an
	// ErrInvalidAuthentication.
	ErrDuplicateRequestID = newKind("duplicate request id", ErrInvalidAuthentication)

	// ErrCrypto reports a malfunction of a cryptographic primitive or
	// unusable key material.
	ErrCrypto = newKind("crypto failure", nil)

	// ErrHash is an ErrCrypto raised by a password hasher.
	ErrHash = newKind("hash failure", ErrCrypto)

	// ErrHashMethodUnknown reports a stored hash whose format is not recognized.
	ErrHashMethodUnknown = newKind("unknown hash method", nil)

	// ErrHashMethodNotImplemented reports a recognized hash format that is not
	// supported.
	ErrHashMethodNotImplemented = newKind("hash method not implemented", nil)

	// ErrRepositorySource reports that a key repository's backing source could
	// not be read or parsed.
	ErrRepositorySource = newKind("key repository source error", nil)

	// ErrImmutableData reports an attempted write to a read-only repository.
	ErrImmutableData = newKind("immutable data", nil)

	// ErrInvalidArgument reports a programmer or configuration error such as
	// an empty client id or an invalid header name.
	ErrInvalidArgument = newKind("invalid argument", nil)
)

// IsRequestFault reports whether err describes a bad request (missing or
// invalid credentials) rather than a server side fault.
func IsRequestFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCrypto) || errors.Is(err, ErrRepositorySource) {
		return false
	}
	return errors.Is(err, ErrMissingAuthenticationHeader) || errors.Is(err, ErrInvalidAuthentication)
}

// HTTPStatus maps an error to the HTTP status a server should answer with.
// Request faults map to 401; everything else is a 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsRequestFault(err):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine readable code for err, suitable for error
// response bodies.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAuthenticationHeader):
		return "missing_authentication"
	case errors.Is(err, ErrDuplicateRequestID):
		return "duplicate_request_id"
	case errors.Is(err, ErrCrypto), errors.Is(err, ErrRepositorySource):
		return "server_error"
	case errors.Is(err, ErrInvalidAuthentication):
		return "invalid_authentication"
	default:
		return "server_error"
	}
}
