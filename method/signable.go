package method

import (
	"bytes"

	"github.com/ggoodman/request-auth-go/reqinfo"
)

// ContentTypeHeader is always the first header in the signable data.
const ContentTypeHeader = "Content-Type"

// SignableData builds the canonical byte string that token and signature
// methods protect:
//
//	METHOD SP URI LF
//	Content-Type value LF
//	value of each of headers, each followed by LF
//	raw body
//
// Values in overrides take precedence over the request's own headers, which
// lets Authenticate sign headers it is about to add. A header found in
// neither contributes an empty line.
func SignableData(req *reqinfo.Info, headers []string, overrides Headers) []byte {
	var b bytes.Buffer
	b.WriteString(req.Method())
	b.WriteByte(' ')
	b.WriteString(req.URI())
	b.WriteByte('\n')

	for _, name := range append([]string{ContentTypeHeader}, headers...) {
		v, ok := overrides.Get(name)
		if !ok {
			v, _ = req.Header(name)
		}
		b.WriteString(v)
		b.WriteByte('\n')
	}
	b.Write(req.Body())
	return b.Bytes()
}
