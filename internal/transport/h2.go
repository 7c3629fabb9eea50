package transport

import (
	"context"
	"errors"
	"io"
	nhttp "net/http"
	"sync"
	"time"

	"github.com/frankli0324/go-fetch/internal/http"
	"golang.org/x/net/http2"
)

var errNotByteStream = errors.New("h2 stream is not a byte stream")

// H2Stream is handed out by dialers for hosts spoken to over HTTP/2. the
// underlying connection is shared, closing the stream does not close it.
type H2Stream struct {
	CC *http2.ClientConn
}

func (s *H2Stream) Read([]byte) (int, error)  { return 0, errNotByteStream }
func (s *H2Stream) Write([]byte) (int, error) { return 0, errNotByteStream }
func (s *H2Stream) Close() error              { return nil }

// H2 round trips requests over an [H2Stream].
type H2 struct {
	HeaderTimeout time.Duration
}

func (t H2) RoundTrip(ctx context.Context, rw io.ReadWriteCloser, req *http.PreparedRequest, resp *http.RawResponse) error {
	s, ok := rw.(*H2Stream)
	if !ok {
		return errors.New("can only round trip to h2 stream")
	}
	body, err := req.GetBody()
	if err != nil {
		return err
	}

	hreq := &nhttp.Request{
		Method:     req.Method,
		URL:        req.U,
		Proto:      "HTTP/2.0",
		ProtoMajor: 2,
		Header:     req.Header.Clone(),
		Host:       req.HeaderHost,
	}
	if hreq.Header == nil {
		hreq.Header = nhttp.Header{}
	}
	if body != http.NoBody {
		hreq.Body = body
		hreq.ContentLength = req.ContentLength
	}

	ctx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if t.HeaderTimeout > 0 {
		timer = time.AfterFunc(t.HeaderTimeout, cancel)
	}
	hresp, err := s.CC.RoundTrip(hreq.WithContext(ctx))
	if timer != nil && !timer.Stop() {
		if err == nil {
			hresp.Body.Close()
		}
		cancel()
		return context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		return err
	}

	resp.Proto = hresp.Proto
	resp.Status = hresp.Status
	resp.StatusCode = hresp.StatusCode
	resp.Header = hresp.Header
	resp.ContentLength = hresp.ContentLength
	resp.Body = &h2Body{ReadCloser: hresp.Body, cancel: cancel}
	return nil
}

type h2Body struct {
	io.ReadCloser
	cancel context.CancelFunc
	once   sync.Once
}

func (b *h2Body) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.cancel)
	return err
}
