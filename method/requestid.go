package method

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/google/uuid"
)

const (
	DefaultRequestIDHeader = "X-Request-ID"
	RequestIDMinLength     = 32
	RequestIDMaxLength     = 100
)

// RequestIDPolicy describes where a method carries its request id and which
// lengths it accepts. Ids must be hexadecimal.
type RequestIDPolicy struct {
	Header string
	MinLen int
	MaxLen int
}

// DefaultRequestIDPolicy returns the X-Request-ID policy accepting 32 to 100
// hex characters.
func DefaultRequestIDPolicy() RequestIDPolicy {
	return RequestIDPolicy{Header: DefaultRequestIDHeader, MinLen: RequestIDMinLength, MaxLen: RequestIDMaxLength}
}

// Validate checks the syntax of id. It says nothing about uniqueness.
func (p RequestIDPolicy) Validate(id string) error {
	if len(id) < p.MinLen || len(id) > p.MaxLen {
		return fmt.Errorf("%w: request id must be %d to %d characters", autherr.ErrInvalidAuthentication, p.MinLen, p.MaxLen)
	}
	for i := 0; i < len(id); i++ {
		if !isHex(id[i]) {
			return fmt.Errorf("%w: request id must be hexadecimal", autherr.ErrInvalidAuthentication)
		}
	}
	return nil
}

// RequestID reads and validates the request id header of req.
func (p RequestIDPolicy) RequestID(req *reqinfo.Info) (string, error) {
	id, err := req.NonEmptyHeader(p.Header)
	if err != nil {
		return "", err
	}
	if err := p.Validate(id); err != nil {
		return "", err
	}
	return id, nil
}

// GenerateRequestID returns a fresh 64 character hex request id: the SHA-256
// of a random UUID's bytes.
func GenerateRequestID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("%w: generate request id: %w", autherr.ErrCrypto, err)
	}
	sum := sha256.Sum256(u[:])
	return hex.EncodeToString(sum[:]), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
