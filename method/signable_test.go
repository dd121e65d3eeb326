package method_test

import (
	"testing"

	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/method/methodtest"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/stretchr/testify/assert"
)

func TestSignableData(t *testing.T) {
	f := methodtest.SampleFields()
	f.Header["X-API-Client"] = []string{"from-request"}
	req := reqinfo.New(f)

	got := method.SignableData(req, []string{"x-api-client", "X-Request-ID"}, nil)
	assert.Equal(t, "POST http://test.localhost/info.php?111=222\napplication/x-www-form-urlencoded\nfrom-request\n\nk1=V1&k2=V2", string(got))

	overrides := method.Headers{{Name: "X-Api-Client", Value: "C1"}, {Name: "x-request-id", Value: "abc"}}
	got = method.SignableData(req, []string{"X-API-Client", "X-Request-ID"}, overrides)
	assert.Equal(t, "POST http://test.localhost/info.php?111=222\napplication/x-www-form-urlencoded\nC1\nabc\nk1=V1&k2=V2", string(got))
}

func TestSignableDataDistinguishesRepetition(t *testing.T) {
	f := methodtest.SampleFields()
	f.Header["X-API-Client"] = []string{"C1", "C1"}
	repeated := method.SignableData(reqinfo.New(f), []string{"X-API-Client"}, nil)

	f.Header["X-API-Client"] = []string{"C1"}
	single := method.SignableData(reqinfo.New(f), []string{"X-API-Client"}, nil)

	delete(f.Header, "X-API-Client")
	absent := method.SignableData(reqinfo.New(f), []string{"X-API-Client"}, nil)

	assert.NotEqual(t, single, repeated)
	assert.NotEqual(t, single, absent)
	assert.NotEqual(t, repeated, absent)
}

func TestRequestIDPolicy(t *testing.T) {
	p := method.RequestIDPolicy{Header: "X-Nonce", MinLen: 4, MaxLen: 8}
	assert.NoError(t, p.Validate("abcd"))
	assert.NoError(t, p.Validate("ABCDEF12"))
	assert.Error(t, p.Validate("abc"))
	assert.Error(t, p.Validate("abcdef123"))
	assert.Error(t, p.Validate("wxyz"))

	id, err := method.GenerateRequestID()
	assert.NoError(t, err)
	assert.Len(t, id, 64)
	assert.NoError(t, method.DefaultRequestIDPolicy().Validate(id))
}
