package requestid

import (
	"errors"
	"strings"
	"testing"

	"github.com/ggoodman/request-auth-go/autherr"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey("p:", "0123456789abcdef0123456789abcdef")
	if !strings.HasPrefix(k, "p:") || len(k) != len("p:")+64 {
		t.Fatalf("CacheKey = %q", k)
	}
	if k != CacheKey("p:", "0123456789abcdef0123456789abcdef") {
		t.Fatalf("CacheKey is not deterministic")
	}
	if k == CacheKey("p:", "0123456789abcdef0123456789abcdee") {
		t.Fatalf("distinct ids share a key")
	}
	if strings.Contains(CacheKey("p:", "a\r\nb"), "\n") {
		t.Fatalf("raw id leaked into the key")
	}
}

func TestDuplicateAndPrefix(t *testing.T) {
	if err := Duplicate("x"); !errors.Is(err, autherr.ErrInvalidAuthentication) {
		t.Fatalf("Duplicate should be an invalid authentication: %v", err)
	}
	if err := ValidatePrefix(""); !errors.Is(err, autherr.ErrInvalidArgument) {
		t.Fatalf("ValidatePrefix(\"\") = %v", err)
	}
	if err := ValidatePrefix(DefaultKeyPrefix); err != nil {
		t.Fatalf("ValidatePrefix(default) = %v", err)
	}
}
