package method

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/reqinfo"
)

// StackError is returned when no method of a Stack accepts a request. It
// matches Kind under errors.Is, which is autherr.ErrInvalidAuthentication when
// any method saw credentials it rejected (or hit a crypto failure) and
// autherr.ErrMissingAuthenticationHeader when every method found nothing to
// check. Cause is the first failure of the winning kind, preferring crypto
// failures.
type StackError struct {
	Kind  error
	Cause error
}

func (e *StackError) Error() string {
	const msg = "no applicable authentication method in stack"
	switch {
	case e.Cause != nil:
		return msg + ": " + e.Cause.Error()
	case e.Kind != nil:
		return msg + ": " + e.Kind.Error()
	default:
		return msg
	}
}

func (e *StackError) Unwrap() error { return e.Kind }

// Stack tries several methods in order. Build one with NewStack; the zero
// Stack holds no methods and rejects every call.
//
// Authenticate always uses the first method. Verify accepts the request if any
// method does; missing, invalid and crypto failures move on to the next
// method while any other error aborts immediately.
//
// ClientID and RequestID prefer the method that most recently verified the
// same *reqinfo.Info. Calling them for a request the stack has not verified
// may return an identity parsed by a different method than the one that would
// accept it; use VerifyMethod when the winning method must be known exactly.
type Stack struct {
	methods []Method

	mu          sync.Mutex
	lastRequest *reqinfo.Info
	lastIndex   int
}

var _ RequestIDMethod = (*Stack)(nil)

var errEmptyStack = fmt.Errorf("%w: method stack has no methods", autherr.ErrInvalidArgument)

// NewStack fails with autherr.ErrInvalidArgument when methods is empty.
func NewStack(methods ...Method) (*Stack, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: method stack needs at least one method", autherr.ErrInvalidArgument)
	}
	for i, m := range methods {
		if m == nil {
			return nil, fmt.Errorf("%w: method %d is nil", autherr.ErrInvalidArgument, i)
		}
	}
	return &Stack{methods: append([]Method(nil), methods...)}, nil
}

// Methods returns the stacked methods in order.
func (s *Stack) Methods() []Method {
	return append([]Method(nil), s.methods...)
}

func (s *Stack) Authenticate(req *reqinfo.Info, clientID, clientKey string) (Headers, error) {
	if len(s.methods) == 0 {
		return nil, errEmptyStack
	}
	return s.methods[0].Authenticate(req, clientID, clientKey)
}

func (s *Stack) Verify(ctx context.Context, req *reqinfo.Info, repo keys.Repository) error {
	_, err := s.VerifyMethod(ctx, req, repo)
	return err
}

// VerifyMethod is Verify returning the method that accepted the request.
// Nested stacks are resolved, so the result is never itself a *Stack.
func (s *Stack) VerifyMethod(ctx context.Context, req *reqinfo.Info, repo keys.Repository) (Method, error) {
	if len(s.methods) == 0 {
		return nil, errEmptyStack
	}
	var winner Method
	idx, err := apply(s.methods, func(m Method) error {
		if inner, ok := m.(*Stack); ok {
			w, err := inner.VerifyMethod(ctx, req, repo)
			winner = w
			return err
		}
		winner = m
		return m.Verify(ctx, req, repo)
	})
	if err != nil {
		return nil, err
	}
	s.remember(req, idx)
	return winner, nil
}

func (s *Stack) ClientID(req *reqinfo.Info) (string, error) {
	var id string
	_, err := apply(s.ordered(req), func(m Method) error {
		var err error
		id, err = m.ClientID(req)
		return err
	})
	return id, err
}

// RequestID asks the methods carrying request ids, in the same order as
// ClientID. It fails with autherr.ErrMissingAuthenticationHeader when no
// stacked method carries one.
func (s *Stack) RequestID(req *reqinfo.Info) (string, error) {
	var id string
	_, err := apply(s.ordered(req), func(m Method) error {
		rm, ok := m.(RequestIDMethod)
		if !ok {
			return fmt.Errorf("%w: method carries no request id", autherr.ErrMissingAuthenticationHeader)
		}
		var err error
		id, err = rm.RequestID(req)
		return err
	})
	return id, err
}

// apply calls fn for each method until one succeeds and returns its index.
// Missing, invalid and crypto failures are collected and aggregated into a
// StackError; any other error is returned as is.
func apply(methods []Method, fn func(Method) error) (int, error) {
	var firstInvalid, firstCrypto, firstMissing error
	for i, m := range methods {
		err := fn(m)
		switch {
		case err == nil:
			return i, nil
		case errors.Is(err, autherr.ErrCrypto):
			if firstCrypto == nil {
				firstCrypto = err
			}
		case errors.Is(err, autherr.ErrInvalidAuthentication):
			if firstInvalid == nil {
				firstInvalid = err
			}
		case errors.Is(err, autherr.ErrMissingAuthenticationHeader):
			if firstMissing == nil {
				firstMissing = err
			}
		default:
			return -1, err
		}
	}
	switch {
	case firstCrypto != nil:
		return -1, &StackError{Kind: autherr.ErrInvalidAuthentication, Cause: firstCrypto}
	case firstInvalid != nil:
		return -1, &StackError{Kind: autherr.ErrInvalidAuthentication, Cause: firstInvalid}
	default:
		return -1, &StackError{Kind: autherr.ErrMissingAuthenticationHeader, Cause: firstMissing}
	}
}

func (s *Stack) remember(req *reqinfo.Info, idx int) {
	s.mu.Lock()
	s.lastRequest, s.lastIndex = req, idx
	s.mu.Unlock()
}

// ordered returns the methods with the one that last verified req first.
func (s *Stack) ordered(req *reqinfo.Info) []Method {
	s.mu.Lock()
	last := s.lastIndex
	same := s.lastRequest != nil && s.lastRequest == req
	s.mu.Unlock()
	if !same || last == 0 {
		return s.methods
	}
	out := make([]Method, 0, len(s.methods))
	out = append(out, s.methods[last])
	out = append(out, s.methods[:last]...)
	return append(out, s.methods[last+1:]...)
}
