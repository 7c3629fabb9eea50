package dialer

import (
	"context"
	"crypto/tls"
	"io"
	"net"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/rs/zerolog"
)

var schemes = map[string]string{
	"http": "80", "https": "443",
}

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

func (d *CoreDialer) Dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error) {
	addr, port := r.U.Hostname(), r.U.Port()
	if port == "" {
		port = schemes[r.U.Scheme]
	}
	hp := net.JoinHostPort(addr, port)
	key := r.U.Scheme + "://" + hp

	if d.h2 == nil {
		d.h2 = newH2Conns()
	}
	if s := d.h2.get(key); s != nil {
		return s, nil
	}

	pool := d.ConnPool
	if pool == nil {
		pool = defaultPool
	}
	c, err := pool.Connect(ctx, key, func(ctx context.Context) (net.Conn, error) {
		zerolog.Ctx(ctx).Debug().Str("addr", hp).Msg("dialing new connection")
		return d.dialConn(ctx, r, addr, port)
	})
	if err != nil {
		return nil, err
	}
	if tc, ok := c.Raw().(*tls.Conn); ok && tc.ConnectionState().NegotiatedProtocol == "h2" {
		c.Detach() // h2 connections are multiplexed, they never go idle in the pool
		return d.h2.negotiate(key, tc)
	}
	return c, nil
}

func (d *CoreDialer) dialConn(ctx context.Context, r *http.PreparedRequest, addr, port string) (net.Conn, error) {
	conn, err := d.tryDialProxy(ctx, r)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		// as of now net.Dialer could handle current DNS configurations
		network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, net.JoinHostPort(addr, port)

		if rc := d.ResolveConfig; rc != nil {
			if rc.Network == "ip4" {
				network = "tcp4"
			} else if rc.Network == "ip6" {
				network = "tcp6"
			}
			if static, ok := rc.StaticHosts[addr]; ok {
				dst = net.JoinHostPort(static, port)
			}
			if dns := rc.CustomDNSServer; dns != "" {
				dialctx = dnsServerCtx{dialctx, dns}
				dialer = &customDnsDialer
			}
		}

		conn, err = dialer.DialContext(dialctx, network, dst)
		if err != nil {
			return nil, err
		}
	}
	if r.U.Scheme == "https" {
		config := d.TLSConfig.Clone()
		if config == nil {
			config = &tls.Config{}
		}
		config.ServerName = addr
		c := tls.Client(conn, config)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = c
	}
	return conn, nil
}
