package transport

import (
	"context"
	"io"

	"github.com/frankli0324/go-fetch/internal/http"
)

// RoundTripper writes req to an established stream and reads the response
// head into resp. resp.Body is left unread, closing it hands the stream
// back to its owner.
type RoundTripper interface {
	RoundTrip(ctx context.Context, rw io.ReadWriteCloser, req *http.PreparedRequest, resp *http.RawResponse) error
}

// For picks the round tripper matching the protocol spoken over rw.
func For(rw io.ReadWriteCloser, h1 HTTP1, h2 H2) RoundTripper {
	if _, ok := rw.(*H2Stream); ok {
		return h2
	}
	return h1
}
