// Package logctx carries request and authentication details on a context so
// that every log record emitted while verifying a request is tagged with them.
package logctx

import (
	"context"
	"log/slog"
)

// Handler adds the "req" and "auth" groups found on the record's context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("method", rd.Method),
			slog.String("path", rd.Path),
			slog.String("user_agent", rd.UserAgent),
			slog.String("remote_addr", rd.RemoteAddr),
		))
	}

	if ad, ok := ctx.Value(authDataKey{}).(*AuthData); ok {
		attrs := []any{}
		if ad.ClientID != "" {
			attrs = append(attrs, slog.String("client_id", ad.ClientID))
		}
		if ad.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", ad.RequestID))
		}
		if ad.Method != "" {
			attrs = append(attrs, slog.String("method", ad.Method))
		}
		if len(attrs) > 0 {
			r.AddAttrs(slog.Group("auth", attrs...))
		}
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

// Wrap returns a logger whose records carry context data. A nil logger wraps
// slog.Default.
func Wrap(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if _, ok := l.Handler().(Handler); ok {
		return l
	}
	return slog.New(Handler{Handler: l.Handler()})
}

type requestDataKey struct{}

type RequestData struct {
	Method     string
	Path       string
	UserAgent  string
	RemoteAddr string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type authDataKey struct{}

// AuthData is filled in as verification progresses; fields left empty are
// omitted from the group.
type AuthData struct {
	ClientID  string
	RequestID string
	Method    string
}

func WithAuthData(ctx context.Context, data *AuthData) context.Context {
	return context.WithValue(ctx, authDataKey{}, data)
}

// AuthDataFrom returns the AuthData stored on ctx, if any.
func AuthDataFrom(ctx context.Context) (*AuthData, bool) {
	ad, ok := ctx.Value(authDataKey{}).(*AuthData)
	return ad, ok
}
