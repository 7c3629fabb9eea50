package transport_test

import (
	"context"
	"crypto/tls"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/transport"
	"github.com/go-chi/chi/v5"
	"golang.org/x/net/http2"
)

func TestH2RoundTrip(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/echo", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		b, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Proto", r.Proto)
		w.Header().Set("X-Custom", r.Header.Get("X-Custom"))
		w.WriteHeader(202)
		w.Write(b)
	})
	server := httptest.NewUnstartedServer(r)
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	cfg := server.Client().Transport.(*nethttp.Transport).TLSClientConfig.Clone()
	cfg.NextProtos = []string{"h2"}
	conn, err := tls.Dial("tcp", server.Listener.Addr().String(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if conn.ConnectionState().NegotiatedProtocol != "h2" {
		t.Fatal("h2 not negotiated")
	}
	cc, err := (&http2.Transport{DisableCompression: true}).NewClientConn(conn)
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()

	pr := prepare(t, server.URL+"/echo", &http.RequestInit{
		Method:  "POST",
		Body:    "ping",
		Headers: map[string]string{"x-custom": "yes"},
	})
	resp := &http.RawResponse{}
	err = (transport.H2{HeaderTimeout: 5 * time.Second}).RoundTrip(context.Background(), &transport.H2Stream{CC: cc}, pr, resp)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 202 || string(b) != "ping" {
		t.Errorf("response: %d %q", resp.StatusCode, b)
	}
	if resp.Header.Get("X-Proto") != "HTTP/2.0" || resp.Header.Get("X-Custom") != "yes" {
		t.Errorf("headers: %v", resp.Header)
	}
}

func TestH2RequiresStream(t *testing.T) {
	pr := prepare(t, "https://example.com/", nil)
	err := (transport.H2{}).RoundTrip(context.Background(), &fakeConn{}, pr, &http.RawResponse{})
	if err == nil {
		t.Error("h2 round trip over a byte stream")
	}
}
