package reqauth

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/internal/sqldb"
	"github.com/ggoodman/request-auth-go/keys/sqlkeys"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/ggoodman/request-auth-go/requestid/sqllist"
	"github.com/stretchr/testify/require"
)

func writeKeys(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func baseConfig(keyFile string) Config {
	return Config{
		Methods:         "token",
		KeyFile:         keyFile,
		ReplayGuard:     GuardMemory,
		RedisAddr:       "localhost:6379",
		RequestIDPrefix: "reqauth:rid:",
		RequestIDTTL:    time.Hour,
	}
}

func signedInfo(t *testing.T, m method.Method, clientID, key string) *reqinfo.Info {
	t.Helper()
	fields := reqinfo.Fields{Method: "GET", Scheme: "https", Host: "api.example.com", Path: "/"}
	hdrs, err := m.Authenticate(reqinfo.New(fields), clientID, key)
	require.NoError(t, err)
	return reqinfo.New(fields).WithHeaders(hdrs.Map())
}

func TestConfigMethodNames(t *testing.T) {
	c := Config{Methods: " token ; ;basic-hash;"}
	require.Equal(t, []string{"token", "basic-hash"}, c.MethodNames())
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no methods", func(c *Config) { c.Methods = " ; " }},
		{"unknown method", func(c *Config) { c.Methods = "token;kerberos" }},
		{"no key source", func(c *Config) { c.KeyFile = "" }},
		{"two key sources", func(c *Config) { c.KeyDSN = ":memory:" }},
		{"watch without file", func(c *Config) { c.KeyFile, c.KeyDSN, c.WatchKeyFile = "", ":memory:", true }},
		{"unknown guard", func(c *Config) { c.ReplayGuard = "etcd" }},
		{"redis without addr", func(c *Config) { c.ReplayGuard, c.RedisAddr = GuardRedis, "" }},
		{"redis without prefix", func(c *Config) { c.ReplayGuard, c.RequestIDPrefix = GuardRedis, "" }},
		{"sql without dsn", func(c *Config) { c.ReplayGuard = GuardSQL }},
		{"negative ttl", func(c *Config) { c.RequestIDTTL = -time.Second }},
		{"negative size", func(c *Config) { c.RequestIDCacheSize = -1 }},
	}

	require.NoError(t, baseConfig("keys.txt").Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := baseConfig("keys.txt")
			tc.mutate(&c)
			require.ErrorIs(t, c.Validate(), autherr.ErrInvalidArgument)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("REQAUTH_METHODS", "token;publickey")
	t.Setenv("REQAUTH_KEY_FILE", "/etc/reqauth/keys")
	t.Setenv("REQAUTH_REPLAY_GUARD", "off")
	t.Setenv("REQAUTH_REQUEST_ID_TTL", "90s")

	c, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, []string{"token", "publickey"}, c.MethodNames())
	require.Equal(t, "/etc/reqauth/keys", c.KeyFile)
	require.Equal(t, GuardOff, c.ReplayGuard)
	require.Equal(t, 90*time.Second, c.RequestIDTTL)
	require.Equal(t, "reqauth:rid:", c.RequestIDPrefix)
}

func TestConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv("REQAUTH_KEY_FILE", "")
	t.Setenv("REQAUTH_KEY_DSN", "")
	_, err := ConfigFromEnv()
	require.ErrorIs(t, err, autherr.ErrInvalidArgument)
}

func TestBuildFromKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	writeKeys(t, path, "# clients\nclient-1:s3cret\n")

	v, err := baseConfig(path).Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, v.Close()) })

	info := signedInfo(t, method.NewToken(), "client-1", "s3cret")
	id, err := v.VerifyInfo(context.Background(), info)
	require.NoError(t, err)
	require.Equal(t, "client-1", id)

	_, err = v.VerifyInfo(context.Background(), info)
	require.ErrorIs(t, err, autherr.ErrDuplicateRequestID)
}

func TestBuildMissingKeyFileFails(t *testing.T) {
	_, err := baseConfig(filepath.Join(t.TempDir(), "absent")).Build(context.Background())
	require.ErrorIs(t, err, autherr.ErrRepositorySource)
}

func TestBuildStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	writeKeys(t, path, "client-1:s3cret\n")
	c := baseConfig(path)
	c.Methods = "token;basic"
	c.ReplayGuard = GuardOff

	v, err := c.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	_, ok := v.method.(*method.Stack)
	require.True(t, ok, "two methods should build a stack")

	id, err := v.VerifyInfo(context.Background(), signedInfo(t, method.NewBasic(), "client-1", "s3cret"))
	require.NoError(t, err)
	require.Equal(t, "client-1", id)
}

func TestBuildStaticKeyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	writeKeys(t, path, "the-static-secret:unused\n")
	c := baseConfig(path)
	c.Methods = method.NameStaticKey
	c.StaticKeyHeader = "X-Secret"

	v, err := c.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	r, err := http.NewRequest(http.MethodGet, "https://api.example.com/", nil)
	require.NoError(t, err)
	r.Header.Set("X-Secret", "the-static-secret")
	id, err := v.Verify(r)
	require.NoError(t, err)
	require.Equal(t, method.StaticKeyClientID, id)
}

func TestBuildWithSQL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	keyDSN := filepath.Join(dir, "keys.db")

	db, err := sqldb.Open(ctx, keyDSN)
	require.NoError(t, err)
	repo := sqlkeys.New(db)
	require.NoError(t, repo.CreateTable(ctx))
	_, err = db.NewInsert().Model(&sqlkeys.ClientKey{ClientID: "client-1", Key: "s3cret"}).Exec(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c := baseConfig("")
	c.KeyDSN = keyDSN
	c.ReplayGuard = GuardSQL
	c.RequestIDDSN = filepath.Join(dir, "ids.db")

	v, err := c.Build(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, v.Close()) })
	_, ok := v.ids.(*sqllist.List)
	require.True(t, ok)

	info := signedInfo(t, method.NewToken(), "client-1", "s3cret")
	id, err := v.VerifyInfo(ctx, info)
	require.NoError(t, err)
	require.Equal(t, "client-1", id)

	_, err = v.VerifyInfo(ctx, info)
	require.ErrorIs(t, err, autherr.ErrDuplicateRequestID)
}

func TestBuildWatchesKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys")
	writeKeys(t, path, "client-1:s3cret\n")
	c := baseConfig(path)
	c.WatchKeyFile = true
	c.ReplayGuard = GuardOff

	v, err := c.Build(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, v.Close()) })

	info := signedInfo(t, method.NewToken(), "client-2", "fresh")
	deadline := time.Now().Add(5 * time.Second)
	for {
		// Rewrite on every attempt: the watcher starts asynchronously and may
		// miss the first write.
		writeKeys(t, path, "client-1:s3cret\nclient-2:fresh\n")
		if _, err := v.VerifyInfo(context.Background(), info); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("key file change was not picked up")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
