package internal_test

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/frankli0324/go-fetch/internal"
	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
)

type tCase struct {
	data []byte
	url  string
	init *http.RequestInit
}

var reqShouldBe = map[string]tCase{
	"BasicRequest": {
		url:  "http://www.example.com",
		data: []byte("GET / HTTP/1.1\r\nHost: www.example.com\r\n\r\n"),
	},
	"QueryNonStandard": {
		url:  "http://www.example.com/test?1=33=1",
		data: []byte("GET /test?1=33=1 HTTP/1.1\r\nHost: www.example.com\r\n\r\n"),
	},
	"HeaderLowercased": {
		url:  "http://www.example.com/",
		init: &http.RequestInit{Headers: map[string]string{"X-123-VV": "1"}},
		data: []byte("GET / HTTP/1.1\r\nHost: www.example.com\r\nx-123-vv: 1\r\n\r\n"),
	},
	"URIFragmentNotIncluded": {
		url:  "http://www.example.com/?test=1#frag",
		data: []byte("GET /?test=1 HTTP/1.1\r\nHost: www.example.com\r\n\r\n"),
	},
	"HostForced": {
		url:  "http://www.example.com:8080/",
		init: &http.RequestInit{Headers: map[string]string{"host": "evil.example"}},
		data: []byte("GET / HTTP/1.1\r\nHost: www.example.com:8080\r\n\r\n"),
	},
	"PostBody": {
		url:  "http://www.example.com/submit",
		init: &http.RequestInit{Method: "post", Body: `{"a":1}`},
		data: []byte("POST /submit HTTP/1.1\r\nHost: www.example.com\r\nContent-Length: 7\r\n\r\n{\"a\":1}"),
	},
}

func TestRequestSerialize(t *testing.T) {
	for name, cas := range reqShouldBe {
		tCase := cas
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(tCase.url, tCase.init)
			if err != nil {
				t.Fatal(err)
			}
			sent, done := SendSingleRequest(t, req)
			if err := iotest.TestReader(sent, tCase.data); err != nil {
				t.Error(err)
			}
			if err := <-done; err != nil {
				t.Error(err)
			}
		})
	}
}

func TestResponseWrap(t *testing.T) {
	c, sent := scripted("HTTP/1.1 299 Fine\r\n" +
		"X-A: 1\r\nX-A: 2\r\nX_Under: 3\r\nContent-Type: text/plain\r\nContent-Length: 2\r\nConnection: close\r\n\r\nhi")
	go io.Copy(io.Discard, sent)

	resp, err := c.Fetch(context.Background(), "http://www.example.com/a", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status() != 299 || resp.StatusText() != "Fine" || !resp.OK() {
		t.Errorf("status %d %q ok=%v", resp.Status(), resp.StatusText(), resp.OK())
	}
	if v, _ := resp.Headers().Get("x-a"); v != "1, 2" {
		t.Errorf("x-a %q", v)
	}
	if ok, _ := resp.Headers().Has("content-type"); !ok {
		t.Error("content-type missing")
	}
	for _, k := range resp.Headers().Keys() {
		if k == "x_under" || k == "X_Under" {
			t.Errorf("invalid header name %q kept", k)
		}
	}
	if resp.Redirected() || resp.URL() != "http://www.example.com/a" {
		t.Errorf("redirected=%v url=%q", resp.Redirected(), resp.URL())
	}
	if text, err := resp.Text(); err != nil || text != "hi" {
		t.Errorf("text %q %v", text, err)
	}
	if blob, _ := resp.Blob(); blob.Type() != "text/plain" {
		t.Errorf("blob type %q", blob.Type())
	}
}

func TestMiddlewareOrder(t *testing.T) {
	c, sent := scripted("HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n")
	go io.Copy(io.Discard, sent)

	var order []string
	mark := func(name string) internal.Middleware {
		return func(next internal.Handler) internal.Handler {
			return func(ctx context.Context, req *http.PreparedRequest) (*http.RawResponse, error) {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}
	c.Use(mark("first"), mark("second"))
	if _, err := c.Fetch(context.Background(), "http://www.example.com/", nil); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("middlewares ran as %v", order)
	}
}

func TestCompression(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Header.Get("Accept-Encoding") == "" {
			io.WriteString(w, "plain")
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		io.WriteString(zw, "compressed:"+r.Header.Get("Accept-Encoding"))
		zw.Close()
	})
	server := httptest.NewServer(r)
	defer server.Close()

	c := newClient(t)
	resp, err := c.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if text, _ := resp.Text(); text != "compressed:gzip, deflate, zstd" {
		t.Errorf("text %q", text)
	}
	if ok, _ := resp.Headers().Has("content-encoding"); ok {
		t.Error("content-encoding kept on a decoded response")
	}

	c.DisableCompression = true
	resp, err = c.Fetch(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	if text, _ := resp.Text(); text != "plain" {
		t.Errorf("text %q", text)
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newClient(t).Fetch(context.Background(), url, nil)
	if !errors.Is(err, http.ErrTransport) {
		t.Fatalf("expected a transport failure, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newClient(t)
	c.Timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := c.Fetch(context.Background(), server.URL, nil)
	if !errors.Is(err, http.ErrTransport) {
		t.Fatalf("expected a transport failure, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout not enforced")
	}
}

func TestCanceled(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newClient(t).Fetch(ctx, server.URL, nil); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}
