package http

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/frankli0324/go-fetch/internal/transport/chunked"
)

type ResponseType string

const (
	ResponseBasic          ResponseType = "basic"
	ResponseCORS           ResponseType = "cors"
	ResponseDefault        ResponseType = "default"
	ResponseError          ResponseType = "error"
	ResponseOpaque         ResponseType = "opaque"
	ResponseOpaqueRedirect ResponseType = "opaqueredirect"
)

// ResponseInit holds the optional fields of a [Response].
type ResponseInit struct {
	Headers    interface{} // anything accepted by [NewHeaders]
	Redirected bool
	Status     int // defaults to 200
	StatusText string
	Type       ResponseType
	URL        string
}

// WriteOptions controls [Response.WriteResponse] and [Response.Write].
type WriteOptions struct {
	// End closes the sink after the body when it is an [io.Closer].
	End bool
}

var defaultWriteOptions = &WriteOptions{End: true}

// framing headers are recomputed when writing a Response out
var hopByHop = map[string]bool{
	"content-length": true, "transfer-encoding": true, "connection": true,
}

// StatusText resolves the reason phrase of a status code, "" when unknown.
var StatusText = http.StatusText

// Response is an immutable response record, ok and every other derived
// field is computed once at construction.
type Response struct {
	*Body

	headers    *Headers
	ok         bool
	redirected bool
	status     int
	statusText string
	typ        ResponseType
	url        string

	written *atomic.Bool
}

// NewResponse creates a Response around body, which could be anything
// accepted by [NewBody].
func NewResponse(body interface{}, init *ResponseInit) (*Response, error) {
	if init == nil {
		init = &ResponseInit{}
	}
	status := init.Status
	if status == 0 {
		status = 200
	}
	if status < 100 || status > 599 {
		return nil, Errorf(ErrInvalidArgument, "response", "status must be an integer between 100 and 599, got "+strconv.Itoa(status))
	}
	headers, err := NewHeaders(init.Headers)
	if err != nil {
		return nil, err
	}
	u := ""
	if init.URL != "" {
		if u, err = NormalizeURL(init.URL); err != nil {
			return nil, err
		}
	}
	b, err := NewBody(body)
	if err != nil {
		return nil, err
	}
	if ct, _ := headers.Get("content-type"); ct != "" {
		b.setBlobType(ct)
	}
	r := &Response{
		Body:       b,
		headers:    headers,
		ok:         status >= 200 && status < 300,
		redirected: init.Redirected,
		status:     status,
		statusText: init.StatusText,
		typ:        init.Type,
		url:        u,
		written:    &atomic.Bool{},
	}
	if r.statusText == "" {
		r.statusText = StatusText(status)
	}
	if r.typ == "" {
		r.typ = ResponseDefault
	}
	return r, nil
}

func (r *Response) Headers() *Headers { return r.headers }
func (r *Response) OK() bool { return r.ok }
func (r *Response) Redirected() bool { return r.redirected }
func (r *Response) Status() int { return r.status }
func (r *Response) StatusText() string { return r.statusText }
func (r *Response) Type() ResponseType { return r.typ }
func (r *Response) URL() string { return r.url }

// Clone returns a snapshot of r that can be written out on its own.
func (r *Response) Clone() *Response {
	c := *r
	c.Body = r.Body.Clone()
	c.headers = r.headers.Clone()
	c.written = &atomic.Bool{}
	return &c
}

// WriteResponse writes the status, the headers and then the body of r to
// w. it returns once the whole payload is flushed. a Response could only
// be written out once.
func (r *Response) WriteResponse(w http.ResponseWriter, opts *WriteOptions) error {
	if !r.written.CompareAndSwap(false, true) {
		return &Error{Kind: ErrResponseWritten, Op: "write"}
	}
	if opts == nil {
		opts = defaultWriteOptions
	}
	body, n, err := r.Body.stream()
	if err != nil {
		return err
	}
	h := w.Header()
	for _, k := range r.headers.keys {
		if !hopByHop[k] {
			h.Set(k, r.headers.values[k])
		}
	}
	if n >= 0 && bodyAllowed(r.status) {
		h.Set("Content-Length", strconv.FormatInt(n, 10))
	}
	w.WriteHeader(r.status)
	if body != nil && !bodyAllowed(r.status) {
		body.Close()
		body = nil
	}
	if body != nil {
		_, err = io.Copy(w, body)
		body.Close()
		if err != nil {
			return &Error{Kind: ErrTransport, Op: "write", Err: err}
		}
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return endSink(w, opts)
}

// Write serializes r in HTTP/1.1 wire format to w, e.g. a hijacked server
// side connection. a body of unknown length is sent chunked.
func (r *Response) Write(w io.Writer, opts *WriteOptions) error {
	if !r.written.CompareAndSwap(false, true) {
		return &Error{Kind: ErrResponseWritten, Op: "write"}
	}
	if opts == nil {
		opts = defaultWriteOptions
	}
	body, n, err := r.Body.stream()
	if err != nil {
		return err
	}
	if body != nil {
		defer body.Close()
	} else {
		n = 0
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("HTTP/1.1 ")
	bw.WriteString(strconv.Itoa(r.status))
	bw.WriteByte(' ')
	bw.WriteString(r.statusText)
	bw.WriteString("\r\n")
	for _, k := range r.headers.keys {
		if hopByHop[k] {
			continue
		}
		bw.WriteString(k)
		bw.WriteString(": ")
		bw.WriteString(r.headers.values[k])
		bw.WriteString("\r\n")
	}
	switch {
	case !bodyAllowed(r.status):
		bw.WriteString("\r\n")
	case n >= 0:
		bw.WriteString("content-length: ")
		bw.WriteString(strconv.FormatInt(n, 10))
		bw.WriteString("\r\n\r\n")
		if body != nil {
			if _, err := io.Copy(bw, body); err != nil {
				return &Error{Kind: ErrTransport, Op: "write", Err: err}
			}
		}
	default:
		bw.WriteString("transfer-encoding: chunked\r\n\r\n")
		cw := chunked.NewChunkedWriter(bw)
		if _, err := io.Copy(cw, body); err != nil {
			return &Error{Kind: ErrTransport, Op: "write", Err: err}
		}
		if err := cw.CloseWithTrailer(nil); err != nil {
			return &Error{Kind: ErrTransport, Op: "write", Err: err}
		}
	}
	if err := bw.Flush(); err != nil {
		return &Error{Kind: ErrTransport, Op: "write", Err: err}
	}
	return endSink(w, opts)
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != 204 && status != 304
}

func endSink(w interface{}, opts *WriteOptions) error {
	if !opts.End {
		return nil
	}
	if c, ok := w.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return &Error{Kind: ErrTransport, Op: "write", Err: err}
		}
	}
	return nil
}
