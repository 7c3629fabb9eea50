// package transport contains implementations to requirements on *message syntaxes*
// defined by http related RFCs.
//
// as of 2022.06, RFCs that were to define HTTP/1.1 (RFC753x) are obsoleted by:
//
//	HTTP Semantics (RFC9110)
//	HTTP Caching (RFC9111) and
//	HTTP/1.1 (RFC9112)
//
// HTTP/1.1 message framing is implemented here, HTTP/2 (RFC9113) framing is
// delegated to [golang.org/x/net/http2.ClientConn].
//
// net/http components are reused on the "semantics" part ([net/url.URL], [net/http.Header], etc.)

package transport
