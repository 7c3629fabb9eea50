// Package fetch implements the fetch contract for Go: one entry point
// resolving http, https, file, data and javascript urls into Responses
// with lazily read, memoized bodies.
package fetch

import (
	"context"

	"github.com/frankli0324/go-fetch/internal"
	"github.com/frankli0324/go-fetch/internal/config"
	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/scheme"
)

type Client = internal.Client
type Middleware = internal.Middleware
type Handler = internal.Handler

type Headers = http.Headers
type Body = http.Body
type Blob = http.Blob
type Request = http.Request
type RequestInit = http.RequestInit
type Response = http.Response
type ResponseInit = http.ResponseInit
type WriteOptions = http.WriteOptions
type PreparedRequest = http.PreparedRequest
type RawResponse = http.RawResponse
type Error = http.Error

type Config = config.Config

type Evaluator = scheme.Evaluator
type EvaluatorFunc = scheme.EvaluatorFunc
type MIMELookup = scheme.MIMELookup

const (
	RedirectFollow = http.RedirectFollow
	RedirectManual = http.RedirectManual
	RedirectError  = http.RedirectError
)

var (
	ErrInvalidArgument     = http.ErrInvalidArgument
	ErrUnsupportedProtocol = http.ErrUnsupportedProtocol
	ErrTooManyRedirects    = http.ErrTooManyRedirects
	ErrRedirectRejected    = http.ErrRedirectRejected
	ErrTransport           = http.ErrTransport
	ErrLocalResource       = http.ErrLocalResource
	ErrScriptEvaluation    = http.ErrScriptEvaluation
	ErrParse               = http.ErrParse
	ErrBodyUsed            = http.ErrBodyUsed
	ErrBodyRead            = http.ErrBodyRead
	ErrResponseWritten     = http.ErrResponseWritten
)

// DefaultClient is used by [Fetch] and [SafeFetch].
var DefaultClient = &Client{}

func NewHeaders(init interface{}) (*Headers, error) { return http.NewHeaders(init) }
func NewBody(init interface{}) (*Body, error)       { return http.NewBody(init) }

func NewRequest(input interface{}, init *RequestInit) (*Request, error) {
	return http.NewRequest(input, init)
}

func NewResponse(body interface{}, init *ResponseInit) (*Response, error) {
	return http.NewResponse(body, init)
}

// NewClient creates a client from cfg, nil means the default
// configuration. see [LoadConfig].
func NewClient(cfg *Config) (*Client, error) { return internal.NewClient(cfg) }

// LoadConfig reads a YAML client configuration.
func LoadConfig(filename string) (*Config, error) { return config.Load(filename) }

// Fetch resolves input, a url string, *url.URL or *Request, with
// [DefaultClient].
func Fetch(ctx context.Context, input interface{}, init *RequestInit) (*Response, error) {
	return DefaultClient.Fetch(ctx, input, init)
}

// SafeFetch is [Fetch] returning nil instead of any failure.
func SafeFetch(ctx context.Context, input interface{}, init *RequestInit) *Response {
	return DefaultClient.SafeFetch(ctx, input, init)
}
