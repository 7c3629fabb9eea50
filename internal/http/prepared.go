package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// PreparedRequest is the outbound form of a [Request] for a single round
// trip over the network.
type PreparedRequest struct {
	Request *Request // nil for requests issued by the client itself, e.g. CONNECT

	Method     string
	U          *url.URL
	GetBody    func() (io.ReadCloser, error)
	Header     http.Header
	HeaderHost string

	ContentLength int64
}

// Prepare builds the outbound request. the Host header is always the
// host of the request url.
func (r *Request) Prepare() (*PreparedRequest, error) {
	u, err := url.Parse(r.url)
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "prepare", err)
	}
	if u.Host == "" {
		return nil, NewError(ErrInvalidArgument, "prepare", url.InvalidHostError("empty host"))
	}

	headers := r.headers.HTTPHeader()
	delete(headers, "host")
	cl := int64(-1)
	if v, ok := headers["content-length"]; ok {
		if n, err := strconv.ParseInt(v[0], 10, 64); err == nil && n >= 0 {
			cl = n
		}
		delete(headers, "content-length")
	}

	pr := &PreparedRequest{
		Request: r, Method: r.method, U: u,
		Header: headers, HeaderHost: u.Host,
		ContentLength: -1,
	}
	if err := pr.updateBody(cl); err != nil {
		return nil, err
	}
	return pr, nil
}

// should only be called once at [Request.Prepare]
func (r *PreparedRequest) updateBody(declared int64) error {
	body := r.Request.Body
	if body.absent() {
		r.GetBody = func() (io.ReadCloser, error) {
			return http.NoBody, nil
		}
		return nil
	}
	r.ContentLength = body.size()
	if declared != -1 {
		if r.ContentLength != -1 && r.ContentLength != declared {
			return NewError(ErrInvalidArgument, "prepare", errors.New("conflicting value between body size and content-length request header"))
		}
		r.ContentLength = declared
	}
	r.GetBody = func() (io.ReadCloser, error) {
		rc, _, err := body.stream()
		if err != nil {
			return nil, err
		}
		if rc == nil {
			return http.NoBody, nil
		}
		return rc, nil
	}
	return nil
}
