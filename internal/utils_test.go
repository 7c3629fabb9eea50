package internal_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/frankli0324/go-fetch/internal"
	"github.com/frankli0324/go-fetch/internal/dialer"
	"github.com/frankli0324/go-fetch/internal/http"
)

type CombinedReadWriteCloser struct {
	io.Reader
	io.Writer
	io.Closer
}

type TestDialer struct {
	io.ReadWriteCloser
}

// Dial implements dialer.Dialer.
func (t *TestDialer) Dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error) {
	return t.ReadWriteCloser, nil
}

// Unwrap implements dialer.Dialer.
func (t *TestDialer) Unwrap() dialer.Dialer {
	return nil
}

// scripted returns a client whose single connection answers with response
// and a reader over everything the client sends on it.
func scripted(response string) (*internal.Client, io.Reader) {
	readResponse, writeResponse := io.Pipe()
	go io.Copy(writeResponse, strings.NewReader(response))

	readRequest, writeRequest := io.Pipe()
	c := &internal.Client{DisableCompression: true}
	c.UseDialer(func(dialer.Dialer) dialer.Dialer {
		return &TestDialer{CombinedReadWriteCloser{
			Reader: readResponse,
			Writer: writeRequest,
			Closer: writeRequest,
		}}
	})
	return c, readRequest
}

// SendSingleRequest fetches req over a scripted connection, the returned
// channel reports the outcome once the response body is consumed.
func SendSingleRequest(t *testing.T, req *http.Request) (io.Reader, <-chan error) {
	c, readRequest := scripted("HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n")
	done := make(chan error, 1)
	go func() {
		resp, err := c.Fetch(context.Background(), req, nil)
		if err == nil {
			_, err = resp.Buffer()
		}
		done <- err
	}()
	return readRequest, done
}

// newClient returns a client with a connection pool of its own.
func newClient(t *testing.T) *internal.Client {
	c := &internal.Client{}
	c.UseCoreDialer(func(*dialer.CoreDialer) {})
	t.Cleanup(c.CloseIdle)
	return c
}
