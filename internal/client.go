package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/frankli0324/go-fetch/internal/dialer"
	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/scheme"
	"github.com/frankli0324/go-fetch/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handler performs a single network round trip.
type Handler = func(ctx context.Context, req *http.PreparedRequest) (*http.RawResponse, error)
type Middleware func(next Handler) Handler

const defaultTimeout = 10 * time.Second

var defaultDialer = dialer.NewCoreDialer()

// Client dispatches fetches by url scheme. the zero value is ready to use
// and shares the process wide connection pool.
type Client struct {
	// Timeout bounds connecting and waiting for the response head of each
	// round trip, 10s if zero.
	Timeout time.Duration
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
	// Evaluator runs javascript urls, which fail without one.
	Evaluator scheme.Evaluator
	// MIME resolves the content type of file urls.
	MIME scheme.MIMELookup

	// DisableCompression stops the client from asking for and decoding
	// compressed responses.
	DisableCompression bool

	middlewares []Middleware
	dialer      dialer.Dialer
}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer replaces the dialer of c with the one fn derives from the
// current dialer, e.g. a wrapper around it.
func (c *Client) UseDialer(fn func(dialer.Dialer) dialer.Dialer) {
	c.dialer = fn(c.getDialer())
}

// UseCoreDialer calls fn on every [dialer.CoreDialer] in the dialer chain
// of c. the shared default dialer is cloned before being modified.
func (c *Client) UseCoreDialer(fn func(*dialer.CoreDialer)) (ok bool) {
	c.UseDialer(func(d dialer.Dialer) dialer.Dialer {
		if d == dialer.Dialer(defaultDialer) {
			d = defaultDialer.Clone()
		}
		for cd := d; cd != nil; cd = cd.Unwrap() {
			if core, isCore := cd.(*dialer.CoreDialer); isCore {
				fn(core)
				ok = true
			}
		}
		return d
	})
	return
}

// CloseIdle closes the idle connections of the dialers used by c.
func (c *Client) CloseIdle() {
	for d := c.getDialer(); d != nil; d = d.Unwrap() {
		if core, ok := d.(*dialer.CoreDialer); ok {
			core.CloseIdle()
		}
	}
}

func (c *Client) getDialer() dialer.Dialer {
	if c.dialer != nil {
		return c.dialer
	}
	return defaultDialer
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c *Client) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// ctxLogger returns the logger attached to ctx by Fetch, if there is one.
func (c *Client) ctxLogger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return c.logger()
	}
	return l
}

// roundTrip dials and performs a single request, the response body is
// left unread.
func (c *Client) roundTrip(ctx context.Context, pr *http.PreparedRequest) (*http.RawResponse, error) {
	timeout := c.timeout()
	dctx, cancel := context.WithTimeout(shadowStdTrace(ctx), timeout)
	conn, err := c.getDialer().Dial(dctx, pr)
	cancel()
	if err != nil {
		return nil, err
	}
	resp := &http.RawResponse{}
	rt := transport.For(conn, transport.HTTP1{HeaderTimeout: timeout}, transport.H2{HeaderTimeout: timeout})
	if err := rt.RoundTrip(ctx, conn, pr, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// rawFetch performs a single http(s) round trip for req through the
// middleware chain, redirects are not followed.
func (c *Client) rawFetch(ctx context.Context, req *http.Request) (*http.RawResponse, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, err
	}
	if s := pr.U.Scheme; s != "http" && s != "https" {
		return nil, http.Errorf(http.ErrUnsupportedProtocol, "fetch", fmt.Sprintf("cannot request %q over the network", s))
	}
	decode := false
	if _, ok := pr.Header["accept-encoding"]; !ok && !c.DisableCompression && pr.Method != "HEAD" {
		pr.Header["accept-encoding"] = []string{transport.AcceptEncoding}
		decode = true
	}

	next := c.roundTrip
	for _, mw := range c.middlewares {
		next = mw(next)
	}
	resp, err := next(ctx, pr)
	if err != nil {
		return nil, http.NewError(http.ErrTransport, "fetch", err)
	}
	if decode {
		transport.Decode(pr, resp)
	}
	c.ctxLogger(ctx).Debug().
		Str("method", pr.Method).Str("url", pr.U.String()).
		Int("status", resp.StatusCode).Str("proto", resp.Proto).
		Msg("round trip")
	return resp, nil
}
