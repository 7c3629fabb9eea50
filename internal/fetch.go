package internal

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/scheme"
	"github.com/google/uuid"
)

// getRequest turns the input of Fetch into a Request. an existing
// *Request is used as is and init is ignored.
func getRequest(input interface{}, init *http.RequestInit) (*http.Request, error) {
	if req, ok := input.(*http.Request); ok {
		if req == nil {
			return nil, http.Errorf(http.ErrInvalidArgument, "fetch", "nil Request")
		}
		return req, nil
	}
	return http.NewRequest(input, init)
}

// Fetch resolves input, a url string, *url.URL or *Request, into a Response
// by the scheme of its url. http and https responses are returned once
// their head arrives, the body is read lazily.
func (c *Client) Fetch(ctx context.Context, input interface{}, init *http.RequestInit) (*http.Response, error) {
	req, err := getRequest(input, init)
	if err != nil {
		return nil, err
	}
	l := c.logger().With().Str("fetch_id", uuid.NewString()).Logger()
	ctx = l.WithContext(ctx)

	u, err := url.Parse(req.URL())
	if err != nil {
		return nil, http.NewError(http.ErrInvalidArgument, "fetch", err)
	}
	l.Debug().Str("method", req.Method()).Str("url", req.URL()).Msg("fetch")

	h := c.handler(u.Scheme)
	if h == nil {
		return nil, http.Errorf(http.ErrUnsupportedProtocol, "fetch", fmt.Sprintf("unsupported protocol %q", u.Scheme))
	}
	return h(ctx, req)
}

// SafeFetch is Fetch returning nil instead of any failure.
func (c *Client) SafeFetch(ctx context.Context, input interface{}, init *http.RequestInit) *http.Response {
	resp, err := c.Fetch(ctx, input, init)
	if err != nil {
		c.logger().Debug().Err(err).Msg("fetch failed")
		return nil
	}
	return resp
}

func (c *Client) handler(s string) scheme.Handler {
	switch s {
	case "http", "https":
		return c.fetchHTTP
	case "file":
		return scheme.File(c.MIME)
	case "data":
		return scheme.Data
	case "javascript":
		return scheme.Script(c.Evaluator)
	}
	return nil
}

func (c *Client) fetchHTTP(ctx context.Context, req *http.Request) (*http.Response, error) {
	raw, final, hops, err := c.redirect(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := c.wrap(ctx, raw, final, hops)
	if err != nil {
		discard(raw.Body)
		return nil, err
	}
	return resp, nil
}

// wrap builds the Response for the raw response to req. header names that
// a Headers could not hold are dropped. the url is the one of req, the
// final hop after redirects, not the url the fetch started with.
func (c *Client) wrap(ctx context.Context, raw *http.RawResponse, req *http.Request, hops int) (*http.Response, error) {
	headers, _ := http.NewHeaders(nil)
	keys := make([]string, 0, len(raw.Header))
	for k := range raw.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := headers.Set(k, strings.Join(raw.Header[k], ", ")); err != nil {
			c.ctxLogger(ctx).Warn().Err(err).Str("header", k).Str("url", req.URL()).Msg("dropping response header")
		}
	}

	_, statusText, _ := strings.Cut(raw.Status, " ")
	var body interface{}
	if raw.Body != nil && raw.Body != http.NoBody {
		body = raw.Body
	}
	return http.NewResponse(body, &http.ResponseInit{
		Headers:    headers,
		Redirected: hops > 0,
		Status:     raw.StatusCode,
		StatusText: statusText,
		URL:        req.URL(),
	})
}
