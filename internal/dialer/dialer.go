package dialer

import (
	"context"
	"crypto/tls"
	"io"
	"time"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/utils/netpool"
)

// Dialers handle pretty much everything related to the actual connection,
// including setting a proxy for each request, setting resolvers, etc.
type Dialer interface {
	// Dial returns an abstract stream for writing the request and reading responses.
	// the implementation of this stream could be specific to protocols.
	Dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error)
	Unwrap() Dialer
}

// ProxyFunc returns the proxy url to reach the destination of r through,
// or "" for a direct connection.
type ProxyFunc func(ctx context.Context, r *http.PreparedRequest) (string, error)

type CoreDialer struct {
	ResolveConfig *ResolveConfig

	TLSConfig *tls.Config // the config to use

	ConnPool    *netpool.PoolGroup
	GetProxy    ProxyFunc
	ProxyConfig *ProxyConfig

	h2 *h2Conns
}

var defaultPool = netpool.NewGroup(100, 80, 90*time.Second)

// NewCoreDialer creates a dialer negotiating h2 over TLS, sharing the
// default connection pool.
func NewCoreDialer() *CoreDialer {
	return &CoreDialer{
		ResolveConfig: &ResolveConfig{},
		TLSConfig: &tls.Config{
			NextProtos: []string{"h2", "http/1.1"},
		},
		ConnPool: defaultPool,
		ProxyConfig: &ProxyConfig{
			TLSConfig: &tls.Config{}, // don't want h2
		},
		h2: newH2Conns(),
	}
}

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		ResolveConfig: d.ResolveConfig.Clone(),
		TLSConfig:     d.TLSConfig.Clone(),
		ConnPool:      d.ConnPool.NewEmpty(),
		GetProxy:      d.GetProxy,
		ProxyConfig:   d.ProxyConfig.Clone(),
		h2:            newH2Conns(),
	}
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

// CloseIdle closes the idle HTTP/1.1 connections and every HTTP/2
// connection that has no request in flight.
func (d *CoreDialer) CloseIdle() {
	if d.ConnPool != nil {
		d.ConnPool.CloseIdle()
	}
	if d.h2 != nil {
		d.h2.closeIdle()
	}
}
