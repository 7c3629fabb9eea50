package http

import (
	"io"
	"net/http"
)

// RawResponse is the response metadata as it arrives from the transport,
// before being wrapped into a [Response]. Body is unread.
type RawResponse struct {
	Proto      string
	Status     string
	StatusCode int
	Header     http.Header

	ContentLength int64
	Body          io.ReadCloser
}

var NoBody = http.NoBody
