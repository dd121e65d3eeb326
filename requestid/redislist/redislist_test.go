package redislist

import (
	"testing"
	"time"

	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/ggoodman/request-auth-go/requestid/requestidtest"
)

func TestRedisList(t *testing.T) {
	// Quick availability check to allow graceful skip in environments without Redis
	l, err := NewFromEnv()
	if err != nil {
		t.Skipf("skipping redis request id tests: %v", err)
		return
	}
	_ = l.Close()

	requestidtest.RunListTests(t, func(t *testing.T, ttl time.Duration) requestid.List {
		ll, err := New(Config{Addr: l.client.Options().Addr, KeyPrefix: "reqauth:test:", TTL: ttl})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = ll.Close() })
		return ll
	})
}

func TestNewWithClientRejectsNegativeTTL(t *testing.T) {
	if _, err := NewWithClient(nil, "", -time.Second); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
