package transport

import (
	"bufio"
	"io"
	"strings"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding lists the content codings [Decode] understands.
const AcceptEncoding = "gzip, deflate, zstd"

var decoders = map[string]func(r io.Reader) (io.ReadCloser, error){
	"gzip":    openGzip,
	"x-gzip":  openGzip,
	"deflate": openDeflate,
	"zstd":    openZstd,
}

func openGzip(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zr, nil
}

// deflate is zlib wrapped per RFC 9110, some servers send raw deflate
// streams anyway.
func openDeflate(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	if h, err := br.Peek(2); err == nil && h[0]&0x0f == 8 && (uint(h[0])<<8|uint(h[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func openZstd(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}

// Decode replaces the body of resp with its decoded form when it carries a
// single supported content coding. decoded responses lose their
// Content-Encoding and Content-Length headers.
func Decode(req *http.PreparedRequest, resp *http.RawResponse) {
	if resp.Body == nil || resp.Body == http.NoBody || req.Method == "HEAD" {
		return
	}
	encs := resp.Header.Values("Content-Encoding")
	if len(encs) != 1 {
		return
	}
	open, ok := decoders[strings.ToLower(strings.TrimSpace(encs[0]))]
	if !ok {
		return
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Body = &decodedBody{body: resp.Body, open: open}
}

// decodedBody opens its decoder on first read, so that a caller never
// blocks on the compressed stream before asking for the payload.
type decodedBody struct {
	body io.ReadCloser
	open func(io.Reader) (io.ReadCloser, error)
	r    io.ReadCloser
	err  error
}

func (d *decodedBody) Read(p []byte) (int, error) {
	if d.r == nil && d.err == nil {
		d.r, d.err = d.open(d.body)
	}
	if d.err != nil {
		return 0, d.err
	}
	n, err := d.r.Read(p)
	if err == io.EOF {
		// consume what is left of the framing so the stream could be reused
		io.Copy(io.Discard, io.LimitReader(d.body, 512))
	}
	return n, err
}

func (d *decodedBody) Close() error {
	if d.r != nil {
		d.r.Close()
	}
	return d.body.Close()
}
