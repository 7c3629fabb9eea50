package dialer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/url"

	"github.com/frankli0324/go-fetch/internal/http"
	"github.com/frankli0324/go-fetch/internal/transport"
	"golang.org/x/net/http/httpproxy"
)

type ProxyConfig struct {
	TLSConfig      *tls.Config // the [*tls.Config] to use with proxy, if nil, *[CoreDialer.TLSConfig] will be used
	ResolveLocally bool
	ResolveConfig  *ResolveConfig // overrides the resolver config for dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		TLSConfig:      c.TLSConfig.Clone(),
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

// StaticProxy sends every request through proxy.
func StaticProxy(proxy string) ProxyFunc {
	return func(context.Context, *http.PreparedRequest) (string, error) {
		return proxy, nil
	}
}

// EnvironmentProxy picks proxies from HTTP_PROXY, HTTPS_PROXY and NO_PROXY
// (or their lowercase versions), read once when called.
func EnvironmentProxy() ProxyFunc {
	proxyFor := httpproxy.FromEnvironment().ProxyFunc()
	return func(_ context.Context, r *http.PreparedRequest) (string, error) {
		u, err := proxyFor(r.U)
		if err != nil || u == nil {
			return "", err
		}
		return u.String(), nil
	}
}

var (
	h1Transport = transport.HTTP1{}
)

func (d *CoreDialer) tryDialProxy(ctx context.Context, r *http.PreparedRequest) (net.Conn, error) {
	if d.GetProxy != nil {
		proxy, perr := d.GetProxy(ctx, r)
		if perr != nil {
			return nil, perr
		}
		if proxy != "" {
			proxyU, perr := url.Parse(proxy)
			if perr != nil {
				return nil, perr
			}
			return d.DialContextOverProxy(ctx, r.U, proxyU)
		}
	}
	return nil, nil
}

// DialContextOverProxy creates a tunnel to remote through an http proxy.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, remote, proxy *url.URL) (net.Conn, error) {
	if proxy.Scheme != "http" && proxy.Scheme != "https" { // TODO: socks
		return nil, errors.New("unsupported proxy scheme:" + proxy.Scheme)
	}
	cfg := d.ProxyConfig
	if cfg == nil {
		cfg = &ProxyConfig{}
	}
	hp := proxy.Host
	if proxy.Port() == "" {
		hp = net.JoinHostPort(proxy.Hostname(), schemes[proxy.Scheme])
	}

	conn, err := zeroDialer.DialContext(ctx, "tcp", hp)
	if err != nil {
		return nil, err
	}

	if proxy.Scheme == "https" {
		tlsCfg := cfg.TLSConfig.Clone()
		if tlsCfg == nil {
			tlsCfg = d.TLSConfig.Clone()
		}
		if tlsCfg == nil {
			tlsCfg = &tls.Config{}
		}
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = proxy.Hostname()
		}
		c := tls.Client(conn, tlsCfg)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = c
	}

	addr, port := remote.Hostname(), remote.Port()
	if port == "" {
		port = schemes[remote.Scheme]
	}

	if cfg.ResolveLocally {
		dnsCfg := cfg.ResolveConfig
		if dnsCfg == nil {
			dnsCfg = d.ResolveConfig
		} else {
			dnsCfg = dnsCfg.Merge(d.ResolveConfig)
		}

		if res, ok := dnsCfg.staticHost(addr); ok {
			addr = res
		} else {
			ips, err := d.lookup(ctx, dnsCfg, addr)
			if err != nil {
				conn.Close()
				return nil, err
			}
			addr = ips[rand.Intn(len(ips))].String()
		}
	}

	connReq := &http.PreparedRequest{
		Method:     "CONNECT",
		HeaderHost: remote.Host,
		U:          &url.URL{Host: net.JoinHostPort(addr, port)},
		GetBody:    func() (io.ReadCloser, error) { return http.NoBody, nil },
	}
	if auth := proxy.User.String(); auth != "" {
		connReq.Header = map[string][]string{
			"Proxy-Authorization": {"Basic " + base64.StdEncoding.EncodeToString([]byte(auth))},
		}
	}
	if err := h1Transport.Write(ctx, conn, connReq); err != nil {
		conn.Close()
		return nil, err
	}
	resp := &http.RawResponse{}
	if err := h1Transport.Read(ctx, conn, connReq, resp); err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		conn.Close()
		return nil, fmt.Errorf("proxy server returned error. status:%d, body:%s", resp.StatusCode, string(s))
	}
	return conn, nil
}
