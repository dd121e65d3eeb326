package reqauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elnormous/contenttype"
	"github.com/ggoodman/request-auth-go/autherr"
	"github.com/ggoodman/request-auth-go/internal/logctx"
	"github.com/ggoodman/request-auth-go/keys"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/ggoodman/request-auth-go/requestid"
)

var jsonMediaType = contenttype.NewMediaType("application/json")

const wwwAuthenticateHeader = "www-authenticate"

// Verifier checks inbound requests against a key repository and, when
// configured with a request id list, rejects replayed requests.
type Verifier struct {
	method method.Method
	keys   keys.Repository
	ids    requestid.List
	log    *slog.Logger
	realm  string

	closers []io.Closer
}

type verifierConfig struct {
	ids   requestid.List
	log   *slog.Logger
	realm string
}

// Option configures a Verifier.
type Option func(*verifierConfig)

// WithRequestIDList records the request id of every accepted request in l and
// rejects requests whose id is already listed. Without it request ids are only
// checked for syntax.
func WithRequestIDList(l requestid.List) Option {
	return func(c *verifierConfig) { c.ids = l }
}

// WithLogger sets the logger. Records carry the request and authentication
// details of the request being verified. Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *verifierConfig) { c.log = l }
}

// WithRealm makes Middleware answer rejected requests with a
// WWW-Authenticate Basic challenge for realm, prompting browsers for
// credentials.
func WithRealm(realm string) Option {
	return func(c *verifierConfig) { c.realm = realm }
}

func NewVerifier(m method.Method, repo keys.Repository, opts ...Option) (*Verifier, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil authentication method", autherr.ErrInvalidArgument)
	}
	if repo == nil {
		return nil, fmt.Errorf("%w: nil key repository", autherr.ErrInvalidArgument)
	}
	var cfg verifierConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Verifier{
		method: m,
		keys:   repo,
		ids:    cfg.ids,
		log:    logctx.Wrap(log),
		realm:  cfg.realm,
	}, nil
}

// Verify checks r and returns the authenticated client id.
func (v *Verifier) Verify(r *http.Request) (string, error) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		Method:     r.Method,
		Path:       r.URL.Path,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
	})
	info, err := reqinfo.FromHTTPRequest(r)
	if err != nil {
		v.log.ErrorContext(ctx, "auth.err", slog.String("err", err.Error()))
		return "", err
	}
	return v.VerifyInfo(ctx, info)
}

// VerifyInfo checks info and returns the authenticated client id.
//
// The request id is put into the request id list only after the proof has
// been accepted, and only when the accepting method carries one, so forged
// requests cannot burn the ids of genuine ones.
func (v *Verifier) VerifyInfo(ctx context.Context, info *reqinfo.Info) (string, error) {
	ad, ok := logctx.AuthDataFrom(ctx)
	if !ok {
		ad = &logctx.AuthData{}
		ctx = logctx.WithAuthData(ctx, ad)
	}
	if id, err := v.method.ClientID(info); err == nil {
		ad.ClientID = id
	}

	winner, err := v.verify(ctx, info)
	if err != nil {
		v.logFailure(ctx, err)
		return "", err
	}
	ad.Method = fmt.Sprintf("%T", winner)

	clientID, err := winner.ClientID(info)
	if err != nil {
		v.logFailure(ctx, err)
		return "", err
	}
	ad.ClientID = clientID

	if rm, ok := winner.(method.RequestIDMethod); ok {
		rid, err := rm.RequestID(info)
		if err != nil {
			v.logFailure(ctx, err)
			return "", err
		}
		ad.RequestID = rid
		if v.ids != nil {
			if err := v.ids.Put(ctx, rid); err != nil {
				if errors.Is(err, autherr.ErrDuplicateRequestID) {
					v.log.WarnContext(ctx, "replay.reject")
				} else {
					v.log.ErrorContext(ctx, "auth.err", slog.String("err", err.Error()))
				}
				return "", err
			}
		}
	}

	v.log.DebugContext(ctx, "auth.ok")
	return clientID, nil
}

func (v *Verifier) verify(ctx context.Context, info *reqinfo.Info) (method.Method, error) {
	if s, ok := v.method.(*method.Stack); ok {
		return s.VerifyMethod(ctx, info, v.keys)
	}
	if err := v.method.Verify(ctx, info, v.keys); err != nil {
		return nil, err
	}
	return v.method, nil
}

func (v *Verifier) logFailure(ctx context.Context, err error) {
	if autherr.IsRequestFault(err) {
		v.log.InfoContext(ctx, "auth.fail", slog.String("code", autherr.Code(err)), slog.String("err", err.Error()))
		return
	}
	v.log.ErrorContext(ctx, "auth.err", slog.String("err", err.Error()))
}

type clientIDKey struct{}

// ClientIDFromContext returns the client id Middleware stored on the request
// context.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey{}).(string)
	return id, ok
}

// Middleware rejects requests that fail verification and passes the others to
// next with the client id on their context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, err := v.Verify(r)
		if err != nil {
			v.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIDKey{}, clientID)))
	})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (v *Verifier) writeError(w http.ResponseWriter, err error) {
	status := autherr.HTTPStatus(err)
	if status == http.StatusUnauthorized && v.realm != "" {
		w.Header().Set(wwwAuthenticateHeader, fmt.Sprintf(`Basic realm=%q`, v.realm))
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{
		Code:    autherr.Code(err),
		Message: errorMessage(err),
	}})
}

// errorMessage never echoes err itself: causes can name clients that do not
// exist or describe key material.
func errorMessage(err error) string {
	switch {
	case !autherr.IsRequestFault(err):
		return "internal server error"
	case errors.Is(err, autherr.ErrMissingAuthenticationHeader):
		return autherr.ErrMissingAuthenticationHeader.Error()
	case errors.Is(err, autherr.ErrDuplicateRequestID):
		return autherr.ErrDuplicateRequestID.Error()
	default:
		return autherr.ErrInvalidAuthentication.Error()
	}
}

// Close releases the resources the Verifier owns: those Config.Build
// created, and the request id list when it implements io.Closer.
func (v *Verifier) Close() error {
	var errs []error
	for i := len(v.closers) - 1; i >= 0; i-- {
		if err := v.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := v.ids.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
