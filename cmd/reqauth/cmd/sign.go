package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	reqauth "github.com/ggoodman/request-auth-go"
	"github.com/ggoodman/request-auth-go/method"
	"github.com/ggoodman/request-auth-go/reqinfo"
	"github.com/spf13/cobra"
)

type signOptions struct {
	method          string
	clientID        string
	key             string
	httpMethod      string
	url             string
	headers         []string
	body            string
	staticKeyHeader string
}

func newSignCmd() *cobra.Command {
	var o signOptions
	c := &cobra.Command{
		Use:   "sign",
		Short: "Print the authentication headers for a request",
		Example: `  reqauth sign --client-id client-1 --key s3cret -X POST \
    --url https://api.example.com/things -H 'Content-Type: application/json' -d '{}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hdrs, err := o.sign()
			if err != nil {
				return err
			}
			for _, h := range hdrs {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", h.Name, h.Value); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&o.method, "method", method.NameToken, "authentication method name")
	f.StringVar(&o.clientID, "client-id", "", "client id")
	f.StringVar(&o.key, "key", "", "client secret or private key")
	f.StringVarP(&o.httpMethod, "request", "X", http.MethodGet, "HTTP method")
	f.StringVar(&o.url, "url", "", "request URL")
	f.StringArrayVarP(&o.headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	f.StringVarP(&o.body, "data", "d", "", "request body")
	f.StringVar(&o.staticKeyHeader, "static-key-header", "", "header of the static-key method")
	_ = c.MarkFlagRequired("url")
	_ = c.MarkFlagRequired("key")
	return c
}

func (o signOptions) sign() (method.Headers, error) {
	reg := method.NewRegistry()
	if o.staticKeyHeader != "" {
		header := o.staticKeyHeader
		_ = reg.Register(method.NameStaticKey, func() (method.Method, error) {
			return method.NewStaticKey(header)
		})
	}
	m, err := reg.New(o.method)
	if err != nil {
		return nil, err
	}
	clientID := o.clientID
	if clientID == "" {
		if o.method != method.NameStaticKey {
			return nil, errors.New("--client-id is required")
		}
		clientID = method.StaticKeyClientID
	}
	a, err := reqauth.NewAuthenticator(m, clientID, o.key)
	if err != nil {
		return nil, err
	}

	r, err := http.NewRequest(strings.ToUpper(o.httpMethod), o.url, strings.NewReader(o.body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("malformed header %q, want 'Name: value'", h)
		}
		r.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	info, err := reqinfo.FromHTTPRequest(r)
	if err != nil {
		return nil, err
	}
	return a.Headers(info)
}
