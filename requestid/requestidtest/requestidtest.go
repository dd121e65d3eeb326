// Package requestidtest provides a conformance suite for requestid.List
// implementations.
package requestidtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/google/uuid"
)

// ListFactory creates an empty list whose entries expire after ttl; a zero
// ttl means entries never expire.
type ListFactory func(t *testing.T, ttl time.Duration) requestid.List

// RunListTests runs the list suite against factory.
func RunListTests(t *testing.T, factory ListFactory) {
	t.Run("Put_ThenContains", func(t *testing.T) { testPutThenContains(t, factory) })
	t.Run("Put_DuplicateFails", func(t *testing.T) { testDuplicate(t, factory) })
	t.Run("Put_DistinctIDsIndependent", func(t *testing.T) { testDistinct(t, factory) })
	t.Run("Put_ConcurrentSingleWinner", func(t *testing.T) { testConcurrent(t, factory) })
	t.Run("TTL_ExpiredIsUnseen", func(t *testing.T) { testExpiry(t, factory) })
}

func newID() string {
	return uuid.NewString()
}

func testPutThenContains(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 0)
	id := newID()

	ok, err := l.Contains(ctx, id)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if ok {
		t.Fatalf("Contains before Put = true")
	}
	if err := l.Put(ctx, id); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	ok, err = l.Contains(ctx, id)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if !ok {
		t.Fatalf("Contains after Put = false")
	}
}

func testDuplicate(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 0)
	id := newID()
	if err := l.Put(ctx, id); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	err := l.Put(ctx, id)
	if !errors.Is(err, autherr.ErrDuplicateRequestID) {
		t.Fatalf("second Put err = %v, want ErrDuplicateRequestID", err)
	}
	if !errors.Is(err, autherr.ErrInvalidAuthentication) {
		t.Fatalf("duplicate should be an invalid authentication, got %v", err)
	}
	if ok, _ := l.Contains(ctx, id); !ok {
		t.Fatalf("failed Put removed the entry")
	}
}

func testDistinct(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 0)
	a, b := newID(), newID()
	if err := l.Put(ctx, a); err != nil {
		t.Fatalf("Put(a) failed: %v", err)
	}
	if ok, _ := l.Contains(ctx, b); ok {
		t.Fatalf("Contains(b) = true after Put(a)")
	}
	if err := l.Put(ctx, b); err != nil {
		t.Fatalf("Put(b) failed: %v", err)
	}
}

func testConcurrent(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 0)
	id := newID()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- l.Put(ctx, id)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, autherr.ErrDuplicateRequestID):
		default:
			t.Fatalf("unexpected Put error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d concurrent Puts succeeded, want exactly 1", wins)
	}
}

func testExpiry(t *testing.T, factory ListFactory) {
	ctx := context.Background()
	l := factory(t, 200*time.Millisecond)
	id := newID()
	if err := l.Put(ctx, id); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := l.Put(ctx, id); !errors.Is(err, autherr.ErrDuplicateRequestID) {
		t.Fatalf("Put within ttl err = %v, want ErrDuplicateRequestID", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		ok, err := l.Contains(ctx, id)
		if err != nil {
			t.Fatalf("Contains failed: %v", err)
		}
		if !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("entry did not expire")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := l.Put(ctx, id); err != nil {
		t.Fatalf("Put after expiry failed: %v", err)
	}
}
