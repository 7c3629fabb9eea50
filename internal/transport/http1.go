package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	nhttp "net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/transport/chunked"
	"golang.org/x/net/http/httpguts"
)

// HTTP1 speaks HTTP/1.1 over a byte stream. HeaderTimeout bounds the time
// from writing the request until the response head is read.
type HTTP1 struct {
	HeaderTimeout time.Duration
}

func (t HTTP1) RoundTrip(ctx context.Context, rw io.ReadWriteCloser, req *http.PreparedRequest, resp *http.RawResponse) error {
	d := deadlineOf(rw)
	stop := func() bool { return true }
	headRead := func() {}
	if d != nil {
		if t.HeaderTimeout > 0 {
			d.SetDeadline(time.Now().Add(t.HeaderTimeout))
			headRead = func() {
				d.SetDeadline(time.Time{})
				if ctx.Err() != nil {
					d.SetDeadline(aLongTimeAgo)
				}
			}
		}
		stop = context.AfterFunc(ctx, func() { d.SetDeadline(aLongTimeAgo) })
	}

	err := t.Write(ctx, rw, req)
	if err == nil {
		err = t.read(rw, req, resp, headRead, stop)
	}
	if err != nil {
		stop()
		rw.Close()
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w: %w", cerr, err)
		}
		return err
	}
	return nil
}

// Write serializes req onto w. a body of unknown length is sent with the
// chunked transfer coding. the request body is always closed.
func (t HTTP1) Write(ctx context.Context, w io.Writer, req *http.PreparedRequest) error {
	body, err := req.GetBody()
	if err != nil {
		return err
	}
	defer body.Close()
	hasBody := body != http.NoBody

	bw := bufio.NewWriter(w) // default bufsize is 4096
	if err := t.writeHeader(bw, req, hasBody); err != nil {
		return err
	}
	if hasBody {
		if req.ContentLength == -1 {
			cw := chunked.NewChunkedWriter(bw)
			if _, err := io.Copy(cw, body); err != nil {
				return err
			}
			if err := cw.CloseWithTrailer(nil); err != nil {
				return err
			}
		} else {
			n, err := io.Copy(bw, io.LimitReader(body, req.ContentLength))
			if err != nil {
				return err
			}
			// the body must end right at the declared length
			if m, _ := body.Read(make([]byte, 1)); n != req.ContentLength || m != 0 {
				return fmt.Errorf("request body length does not match content-length %d", req.ContentLength)
			}
		}
	}
	return bw.Flush()
}

// a zero content-length is sent for these even without a body
var methodsExpectingBody = map[string]bool{
	"POST": true, "PUT": true, "PATCH": true,
}

// writeHeader writes the status and header part of an http 1.1 request
// e.g.:
//
//	GET / HTTP/1.1\r\n
//	Host: www.google.com\r\n
//	x-xx-yy: cccccc\r\n
//	\r\n
func (t HTTP1) writeHeader(header *bufio.Writer, r *http.PreparedRequest, hasBody bool) error {
	if _, err := header.WriteString(r.Method); err != nil {
		return err
	}
	header.WriteByte(' ')
	if r.Method == "CONNECT" {
		header.WriteString(r.U.Host)
	} else {
		header.WriteString(r.U.RequestURI())
	}
	header.WriteString(" HTTP/1.1\r\n")

	header.WriteString("Host: ")
	header.WriteString(r.HeaderHost)
	header.WriteString("\r\n")
	switch {
	case hasBody && r.ContentLength == -1:
		header.WriteString("Transfer-Encoding: chunked\r\n")
	case hasBody || methodsExpectingBody[r.Method]:
		cl := r.ContentLength
		if !hasBody {
			cl = 0
		}
		header.WriteString("Content-Length: ")
		header.WriteString(strconv.FormatInt(cl, 10))
		header.WriteString("\r\n")
	}

	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range r.Header[k] {
			header.WriteString(k)
			header.WriteString(": ")
			header.WriteString(v)
			if _, err := header.WriteString("\r\n"); err != nil {
				return err
			}
		}
	}
	_, err := header.WriteString("\r\n")
	return err
}

// Read parses a response to req from r. the body of the response owns r
// once it is returned: r gets released or closed when the body finishes.
func (t HTTP1) Read(ctx context.Context, r io.Reader, req *http.PreparedRequest, resp *http.RawResponse) error {
	return t.read(r, req, resp, nil, nil)
}

func (t HTTP1) read(r io.Reader, req *http.PreparedRequest, resp *http.RawResponse, headRead func(), done func() bool) error {
	br := bufferedReader(r)
	tp := textproto.NewReader(br)
	for {
		if err := readHead(tp, resp); err != nil {
			return err
		}
		// interim responses are skipped, 101 switches protocols
		if resp.StatusCode < 100 || resp.StatusCode > 199 || resp.StatusCode == 101 {
			break
		}
	}
	if headRead != nil {
		headRead()
	}
	closer, _ := r.(io.Closer)
	return readTransfer(br, req, resp, &bodyCloser{conn: closer, done: done})
}

func readHead(tp *textproto.Reader, resp *http.RawResponse) error {
	line, err := tp.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	proto, status, ok := strings.Cut(line, " ")
	if !ok {
		return errors.New("malformed HTTP response")
	}
	resp.Proto = proto
	resp.Status = strings.TrimLeft(status, " ")

	statusCode, _, _ := strings.Cut(resp.Status, " ")
	if len(statusCode) != 3 {
		return errors.New("malformed HTTP status code " + statusCode)
	}
	resp.StatusCode, err = strconv.Atoi(statusCode)
	if err != nil || resp.StatusCode < 0 {
		return errors.New("malformed HTTP status code")
	}

	// Parse the response headers.
	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if hp, ok := mimeHeader["Pragma"]; ok && len(hp) > 0 && hp[0] == "no-cache" {
		if _, presentcc := mimeHeader["Cache-Control"]; !presentcc {
			mimeHeader["Cache-Control"] = []string{"no-cache"}
		}
	}
	resp.Header = nhttp.Header(mimeHeader)
	return nil
}

func readTransfer(r *bufio.Reader, req *http.PreparedRequest, resp *http.RawResponse, body *bodyCloser) error {
	contentLens := resp.Header["Content-Length"]

	// Hardening against HTTP request smuggling, taken from standard library
	if len(contentLens) > 1 {
		// Per RFC 7230 Section 3.3.2
		first := textproto.TrimString(contentLens[0])
		for _, ct := range contentLens[1:] {
			if first != textproto.TrimString(ct) {
				return fmt.Errorf("http: message cannot contain multiple Content-Length headers; got %q", contentLens)
			}
		}

		// deduplicate Content-Length
		resp.Header.Del("Content-Length")
		resp.Header.Add("Content-Length", first)

		contentLens = resp.Header["Content-Length"]
	}

	cl := int64(-1)
	if len(contentLens) > 0 {
		// Logic based on Content-Length
		n, err := strconv.ParseUint(textproto.TrimString(contentLens[0]), 10, 63)
		if err == nil {
			cl = int64(n)
		}
	}
	resp.ContentLength = cl
	body.reusable = resp.Proto == "HTTP/1.1" && !httpguts.HeaderValuesContainsToken(resp.Header["Connection"], "close")

	code := resp.StatusCode
	switch {
	case req.Method == "CONNECT" && code/100 == 2:
		// the stream now belongs to the tunnel
		resp.Body = http.NoBody
		return nil
	case req.Method == "HEAD" || code/100 == 1 || code == 204 || code == 304:
		resp.Body = http.NoBody
		body.eof = true
		body.finish()
		return nil
	case httpguts.HeaderValuesContainsToken(resp.Header["Transfer-Encoding"], "chunked"):
		resp.ContentLength = -1
		body.Reader = chunked.NewChunkedReader(r)
	case cl == 0:
		resp.Body = http.NoBody
		body.eof = true
		body.finish()
		return nil
	case cl > 0:
		body.Reader = io.LimitReader(r, cl)
	default:
		// read until the server closes the connection
		body.Reader = r
		body.reusable = false
	}
	resp.Body = body
	return nil
}
