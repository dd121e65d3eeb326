package reqauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/internal/sqldb"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/keys/sqlkeys"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/requestid"
	"github.com/ggoodman/request-auth-go/requestid/memorylist"
	"github.com/ggoodman/request-auth-go/requestid/redislist"
	"github.com/ggoodman/request-auth-go/requestid/sqllist"
	"github.com/joeshaw/envdecode"
)

// Replay guard backends accepted by Config.ReplayGuard.
const (
	GuardMemory = "memory"
	GuardRedis  = "redis"
	GuardSQL    = "sql"
	GuardOff    = "off"
)

// Config describes a Verifier. Defaults can be loaded via envdecode.
type Config struct {
	// Methods is a semicolon separated list of method names, tried in order.
	// ENV: REQAUTH_METHODS
	Methods string `env:"REQAUTH_METHODS,default=token"`
	// KeyFile is a "client-id:key" per line file. ENV: REQAUTH_KEY_FILE
	KeyFile string `env:"REQAUTH_KEY_FILE"`
	// WatchKeyFile reloads KeyFile when it changes. ENV: REQAUTH_WATCH_KEY_FILE
	WatchKeyFile bool `env:"REQAUTH_WATCH_KEY_FILE,default=false"`
	// KeyDSN serves keys from the client_keys table of a SQLite or PostgreSQL
	// database instead of KeyFile. ENV: REQAUTH_KEY_DSN
	KeyDSN string `env:"REQAUTH_KEY_DSN"`
	// StaticKeyHeader overrides the header of the static-key method.
	// ENV: REQAUTH_STATIC_KEY_HEADER
	StaticKeyHeader string `env:"REQAUTH_STATIC_KEY_HEADER"`
	// Realm enables WWW-Authenticate challenges. ENV: REQAUTH_REALM
	Realm string `env:"REQAUTH_REALM"`

	// ReplayGuard is one of memory, redis, sql or off. ENV: REQAUTH_REPLAY_GUARD
	ReplayGuard string `env:"REQAUTH_REPLAY_GUARD,default=memory"`
	// RedisAddr like "localhost:6379". ENV: REQAUTH_REDIS_ADDR
	RedisAddr string `env:"REQAUTH_REDIS_ADDR,default=localhost:6379"`
	// RequestIDDSN is the database of the sql guard. ENV: REQAUTH_REQUEST_ID_DSN
	RequestIDDSN string `env:"REQAUTH_REQUEST_ID_DSN"`
	// RequestIDPrefix for redis keys. ENV: REQAUTH_REQUEST_ID_PREFIX
	RequestIDPrefix string `env:"REQAUTH_REQUEST_ID_PREFIX,default=reqauth:rid:"`
	// RequestIDTTL is how long accepted ids are remembered; zero is forever.
	// ENV: REQAUTH_REQUEST_ID_TTL
	RequestIDTTL time.Duration `env:"REQAUTH_REQUEST_ID_TTL,default=24h"`
	// RequestIDCacheSize bounds the memory guard; zero is unbounded.
	// ENV: REQAUTH_REQUEST_ID_CACHE_SIZE
	RequestIDCacheSize int `env:"REQAUTH_REQUEST_ID_CACHE_SIZE,default=0"`
}

// ConfigFromEnv decodes and validates a Config from the environment.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MethodNames returns the configured method names in order.
func (c Config) MethodNames() []string {
	var names []string
	for _, name := range strings.Split(c.Methods, ";") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Validate reports the first problem with c, as an autherr.ErrInvalidArgument.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", autherr.ErrInvalidArgument, fmt.Sprintf(format, args...))
	}

	names := c.MethodNames()
	if len(names) == 0 {
		return invalid("no authentication methods configured")
	}
	known := method.NewRegistry().Names()
	for _, name := range names {
		if !slices.Contains(known, name) {
			return invalid("unknown authentication method %q (known: %s)", name, strings.Join(known, ", "))
		}
	}

	switch {
	case c.KeyFile == "" && c.KeyDSN == "":
		return invalid("one of REQAUTH_KEY_FILE or REQAUTH_KEY_DSN is required")
	case c.KeyFile != "" && c.KeyDSN != "":
		return invalid("REQAUTH_KEY_FILE and REQAUTH_KEY_DSN are mutually exclusive")
	case c.WatchKeyFile && c.KeyFile == "":
		return invalid("REQAUTH_WATCH_KEY_FILE needs REQAUTH_KEY_FILE")
	}

	switch c.ReplayGuard {
	case GuardMemory, GuardOff:
	case GuardRedis:
		if c.RedisAddr == "" {
			return invalid("redis replay guard needs REQAUTH_REDIS_ADDR")
		}
		if err := requestid.ValidatePrefix(c.RequestIDPrefix); err != nil {
			return err
		}
	case GuardSQL:
		if c.RequestIDDSN == "" {
			return invalid("sql replay guard needs REQAUTH_REQUEST_ID_DSN")
		}
	default:
		return invalid("unknown replay guard %q", c.ReplayGuard)
	}
	if c.RequestIDTTL < 0 {
		return invalid("negative request id ttl %s", c.RequestIDTTL)
	}
	if c.RequestIDCacheSize < 0 {
		return invalid("negative request id cache size %d", c.RequestIDCacheSize)
	}
	return nil
}

// Build assembles the Verifier c describes. opts are applied after the
// configured ones. The returned Verifier owns every connection and watcher
// Build started; Close releases them.
func (c Config) Build(ctx context.Context, opts ...Option) (*Verifier, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var oc verifierConfig
	for _, opt := range opts {
		opt(&oc)
	}
	log := oc.log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var closers []io.Closer
	fail := func(err error) (*Verifier, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	m, err := c.buildMethod()
	if err != nil {
		return fail(err)
	}

	repo, err := c.buildKeys(ctx, log, &closers)
	if err != nil {
		return fail(err)
	}

	ids, err := c.buildGuard(ctx, &closers)
	if err != nil {
		return fail(err)
	}

	all := []Option{WithRealm(c.Realm)}
	if ids != nil {
		all = append(all, WithRequestIDList(ids))
	}
	v, err := NewVerifier(m, repo, append(all, opts...)...)
	if err != nil {
		return fail(err)
	}
	v.closers = closers
	return v, nil
}

func (c Config) buildMethod() (method.Method, error) {
	reg := method.NewRegistry()
	if c.StaticKeyHeader != "" {
		header := c.StaticKeyHeader
		err := reg.Register(method.NameStaticKey, func() (method.Method, error) {
			return method.NewStaticKey(header)
		})
		if err != nil {
			return nil, err
		}
	}
	names := c.MethodNames()
	if len(names) == 1 {
		return reg.New(names[0])
	}
	return reg.NewStack(names...)
}

func (c Config) buildKeys(ctx context.Context, log *slog.Logger, closers *[]io.Closer) (keys.Repository, error) {
	if c.KeyDSN != "" {
		db, err := sqldb.Open(ctx, c.KeyDSN)
		if err != nil {
			return nil, fmt.Errorf("open key database: %w", err)
		}
		*closers = append(*closers, db)
		return sqlkeys.New(db), nil
	}

	f := keys.NewFile(c.KeyFile, keys.WithFileLogger(log))
	if err := f.ForceRead(); err != nil {
		return nil, err
	}
	if c.WatchKeyFile {
		*closers = append(*closers, startWatch(ctx, f, log))
	}
	return f, nil
}

func (c Config) buildGuard(ctx context.Context, closers *[]io.Closer) (requestid.List, error) {
	switch c.ReplayGuard {
	case GuardRedis:
		l, err := redislist.New(redislist.Config{
			Addr:      c.RedisAddr,
			KeyPrefix: c.RequestIDPrefix,
			TTL:       c.RequestIDTTL,
		})
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, l)
		return l, nil
	case GuardSQL:
		db, err := sqldb.Open(ctx, c.RequestIDDSN)
		if err != nil {
			return nil, fmt.Errorf("open request id database: %w", err)
		}
		*closers = append(*closers, db)
		l, err := sqllist.New(db, c.RequestIDTTL)
		if err != nil {
			return nil, err
		}
		if err := l.CreateTable(ctx); err != nil {
			return nil, err
		}
		return l, nil
	case GuardOff:
		return nil, nil
	default:
		return memorylist.New(
			memorylist.WithTTL(c.RequestIDTTL),
			memorylist.WithSize(c.RequestIDCacheSize),
		)
	}
}

// watcher stops a key file watch on Close.
type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func startWatch(ctx context.Context, f *keys.File, log *slog.Logger) *watcher {
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &watcher{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		if err := f.Watch(wctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("keys.watch.err", slog.String("path", f.Path()), slog.String("err", err.Error()))
		}
	}()
	return w
}

func (w *watcher) Close() error {
	w.once.Do(w.cancel)
	<-w.done
	return nil
}
