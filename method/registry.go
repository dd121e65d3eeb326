package method

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/signature"
)

// Constructor builds a configured Method.
type Constructor func() (Method, error)

// Names of the built-in methods.
const (
	NameToken        = "token"
	NamePublicKey    = "publickey"
	NamePublicKeyJWS = "publickey-jws"
	NameBasic        = "basic"
	NameBasicHash    = "basic-hash"
	NameStaticKey    = "static-key"
)

// Registry maps method names to constructors so that stacks can be built
// from configuration.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry holding the built-in methods.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.ctors[NameToken] = func() (Method, error) { return NewToken(), nil }
	r.ctors[NamePublicKey] = func() (Method, error) { return NewPublicKey(), nil }
	r.ctors[NamePublicKeyJWS] = func() (Method, error) {
		return NewPublicKey(WithScheme(signature.JWS{})), nil
	}
	r.ctors[NameBasic] = func() (Method, error) { return NewBasic(), nil }
	r.ctors[NameBasicHash] = func() (Method, error) { return NewBasicHash(nil), nil }
	r.ctors[NameStaticKey] = func() (Method, error) { return NewStaticKey("") }
	return r
}

// Register adds or replaces a constructor.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("%w: registry entries need a name and a constructor", autherr.ErrInvalidArgument)
	}
	r.mu.Lock()
	r.ctors[name] = ctor
	r.mu.Unlock()
	return nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the named method. Unknown names fail with
// autherr.ErrInvalidArgument.
func (r *Registry) New(name string) (Method, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown authentication method %q", autherr.ErrInvalidArgument, name)
	}
	m, err := ctor()
	if err != nil {
		return nil, fmt.Errorf("build method %q: %w", name, err)
	}
	return m, nil
}

// NewStack builds a Stack of the named methods, in order.
func (r *Registry) NewStack(names ...string) (*Stack, error) {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		m, err := r.New(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return NewStack(methods...)
}
