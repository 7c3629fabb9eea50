package dialer

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/frankli0324/go-fetch/internal/transport"
	"golang.org/x/net/http2"
)

// h2Conns keeps one multiplexed connection per destination.
type h2Conns struct {
	mu    sync.Mutex
	conns map[string]*http2.ClientConn
	t     *http2.Transport
}

func newH2Conns() *h2Conns {
	return &h2Conns{
		conns: map[string]*http2.ClientConn{},
		t: &http2.Transport{
			DisableCompression: true, // content codings are handled by the client
			ReadIdleTimeout:    30 * time.Second,
		},
	}
}

func (h *h2Conns) get(key string) *transport.H2Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	cc := h.conns[key]
	if cc == nil {
		return nil
	}
	if cc.CanTakeNewRequest() {
		return &transport.H2Stream{CC: cc}
	}
	// let in-flight streams finish, new requests go to a new connection
	delete(h.conns, key)
	go cc.Shutdown(context.Background())
	return nil
}

func (h *h2Conns) negotiate(key string, c *tls.Conn) (*transport.H2Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old := h.conns[key]; old != nil && old.CanTakeNewRequest() {
		c.Close() // lost a race with a concurrent dial
		return &transport.H2Stream{CC: old}, nil
	}
	cc, err := h.t.NewClientConn(c)
	if err != nil {
		c.Close()
		return nil, err
	}
	h.conns[key] = cc
	return &transport.H2Stream{CC: cc}, nil
}

func (h *h2Conns) closeIdle() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, cc := range h.conns {
		if cc.State().StreamsActive == 0 {
			cc.Close()
			delete(h.conns, key)
		}
	}
}
