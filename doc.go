// Package reqauth authenticates HTTP requests between services that share
// per-client keys.
//
// A client wraps its transport with an Authenticator, which adds the headers
// of a method.Method (an HMAC token, an Ed25519 signature, HTTP Basic
// credentials or a static key) to every outgoing request. A server wraps its
// handler with Verifier.Middleware, which checks those headers against a
// keys.Repository and, for methods that carry a request id, rejects replays
// through a requestid.List.
//
// Typical server setup:
//
//	repo := keys.NewFile("/etc/reqauth/clients")
//	ids, _ := memorylist.New(memorylist.WithTTL(24 * time.Hour))
//	v, _ := reqauth.NewVerifier(method.NewToken(), repo, reqauth.WithRequestIDList(ids))
//	http.ListenAndServe(":8080", v.Middleware(mux))
//
// And the matching client:
//
//	a, _ := reqauth.NewAuthenticator(method.NewToken(), "client-1", secret)
//	client := &http.Client{Transport: a.Transport(nil)}
//
// Config decodes the same setup from REQAUTH_* environment variables.
package reqauth
