package http

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

type RequestCache string
type RequestCredentials string
type RequestMode string
type RedirectPolicy string
type ReferrerPolicy string

const (
	CacheDefault      RequestCache = "default"
	CacheForceCache   RequestCache = "force-cache"
	CacheNoCache      RequestCache = "no-cache"
	CacheNoStore      RequestCache = "no-store"
	CacheOnlyIfCached RequestCache = "only-if-cached"
	CacheReload       RequestCache = "reload"

	CredentialsInclude    RequestCredentials = "include"
	CredentialsOmit       RequestCredentials = "omit"
	CredentialsSameOrigin RequestCredentials = "same-origin"

	ModeSameOrigin RequestMode = "same-origin"
	ModeCORS       RequestMode = "cors"
	ModeNavigate   RequestMode = "navigate"
	ModeNoCORS     RequestMode = "no-cors"

	RedirectFollow RedirectPolicy = "follow"
	RedirectManual RedirectPolicy = "manual"
	RedirectError  RedirectPolicy = "error"
)

// RequestInit holds the optional fields of a [Request], zero values take
// the documented defaults.
type RequestInit struct {
	Body           interface{} // anything accepted by [NewBody]
	Cache          RequestCache
	Credentials    RequestCredentials
	Headers        interface{} // anything accepted by [NewHeaders]
	Integrity      string
	Keepalive      bool
	Method         string
	Mode           RequestMode
	Redirect       RedirectPolicy
	Referrer       string
	ReferrerPolicy ReferrerPolicy
}

// Request is an immutable request record. the url is always a normalized
// absolute URL.
type Request struct {
	*Body

	url            string
	method         string
	headers        *Headers
	cache          RequestCache
	credentials    RequestCredentials
	mode           RequestMode
	redirect       RedirectPolicy
	referrer       string
	referrerPolicy ReferrerPolicy
	integrity      string
	keepalive      bool
}

var normalizedMethods = map[string]bool{
	"DELETE": true, "GET": true, "HEAD": true, "OPTIONS": true,
	"PATCH": true, "POST": true, "PUT": true,
}

// NewRequest creates a Request for input, which must be a string or a
// *[net/url.URL].
func NewRequest(input interface{}, init *RequestInit) (*Request, error) {
	var raw string
	switch v := input.(type) {
	case string:
		raw = v
	case *url.URL:
		if v == nil {
			return nil, Errorf(ErrInvalidArgument, "request", "nil URL")
		}
		raw = v.String()
	default:
		return nil, Errorf(ErrInvalidArgument, "request", fmt.Sprintf("input must be a string or URL, got %T", input))
	}
	u, err := NormalizeURL(raw)
	if err != nil {
		return nil, err
	}
	if init == nil {
		init = &RequestInit{}
	}

	method := init.Method
	if method == "" {
		method = "GET"
	}
	if !httpguts.ValidHeaderFieldName(method) {
		return nil, Errorf(ErrInvalidArgument, "request", fmt.Sprintf("invalid method %q", method))
	}
	if up := strings.ToUpper(method); normalizedMethods[up] {
		method = up
	}

	headers, err := NewHeaders(init.Headers)
	if err != nil {
		return nil, err
	}
	body, err := NewBody(init.Body)
	if err != nil {
		return nil, err
	}
	if ct, _ := headers.Get("content-type"); ct != "" {
		body.setBlobType(ct)
	}

	r := &Request{
		Body:           body,
		url:            u,
		method:         method,
		headers:        headers,
		cache:          init.Cache,
		credentials:    init.Credentials,
		mode:           init.Mode,
		redirect:       init.Redirect,
		referrer:       init.Referrer,
		referrerPolicy: init.ReferrerPolicy,
		integrity:      init.Integrity,
		keepalive:      init.Keepalive,
	}
	if r.cache == "" {
		r.cache = CacheDefault
	}
	if r.credentials == "" {
		r.credentials = CredentialsSameOrigin
	}
	if r.mode == "" {
		r.mode = ModeCORS
	}
	if r.redirect == "" {
		r.redirect = RedirectFollow
	}
	return r, nil
}

func (r *Request) URL() string { return r.url }
func (r *Request) Method() string { return r.method }
func (r *Request) Headers() *Headers { return r.headers }
func (r *Request) Cache() RequestCache { return r.cache }
func (r *Request) Credentials() RequestCredentials { return r.credentials }
func (r *Request) Mode() RequestMode { return r.mode }
func (r *Request) Redirect() RedirectPolicy { return r.redirect }
func (r *Request) Referrer() string { return r.referrer }
func (r *Request) ReferrerPolicy() ReferrerPolicy { return r.referrerPolicy }
func (r *Request) Integrity() string { return r.integrity }
func (r *Request) Keepalive() bool { return r.keepalive }
func (r *Request) Destination() string { return "" }

// Clone returns a snapshot of r, headers are copied and the body shares
// its source and caches with r.
func (r *Request) Clone() *Request {
	c := *r
	c.Body = r.Body.Clone()
	c.headers = r.headers.Clone()
	return &c
}

// WithURL derives a new Request sharing every field of r except the url.
// raw may be relative to the url of r.
func (r *Request) WithURL(raw string) (*Request, error) {
	base, err := url.Parse(r.url)
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "request", err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "request", err)
	}
	u, err := NormalizeURL(base.ResolveReference(ref).String())
	if err != nil {
		return nil, err
	}
	c := r.Clone()
	c.url = u
	return c, nil
}
