package dialer

import (
	"context"
	"errors"
	"net"
)

type ResolveConfig struct {
	CustomDNSServer string
	Network         string            // one of "ip4", "ip6", default is "ip"
	StaticHosts     map[string]string // resembles /etc/hosts
}

func (c *ResolveConfig) Clone() *ResolveConfig {
	if c == nil {
		return nil
	}
	hosts := make(map[string]string, len(c.StaticHosts))
	for k, v := range c.StaticHosts {
		hosts[k] = v
	}
	return &ResolveConfig{
		CustomDNSServer: c.CustomDNSServer,
		Network:         c.Network,
		StaticHosts:     hosts,
	}
}

// Merge returns a copy of c with unset fields taken from base, static
// hosts of c take precedence over the ones of base.
func (c *ResolveConfig) Merge(base *ResolveConfig) *ResolveConfig {
	if c == nil {
		return base.Clone()
	}
	m := c.Clone()
	if base == nil {
		return m
	}
	if m.CustomDNSServer == "" {
		m.CustomDNSServer = base.CustomDNSServer
	}
	if m.Network == "" {
		m.Network = base.Network
	}
	for k, v := range base.StaticHosts {
		if _, ok := m.StaticHosts[k]; !ok {
			m.StaticHosts[k] = v
		}
	}
	return m
}

func (c *ResolveConfig) staticHost(host string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.StaticHosts[host]
	return v, ok
}

// this type should not be used outside this file.
// prevents non-custom DNS server contexts to iterate through all keys
type dnsServerCtx struct {
	context.Context
	server string
}

var dnsServerCtxKey = &dnsServerCtx{nil, "dns-server"} // non-nil pointer to any object, definitely unique

func (c dnsServerCtx) Value(key interface{}) interface{} {
	if key == dnsServerCtxKey {
		return c.server
	}
	return c.Context.Value(key)
}

var customServerResolver = net.Resolver{
	PreferGo: true,
	Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
		if v, ok := ctx.Value(dnsServerCtxKey).(string); ok && v != "" {
			return zeroDialer.DialContext(ctx, network, v)
		}
		return zeroDialer.DialContext(ctx, network, address)
	},
}

func (d *CoreDialer) lookup(ctx context.Context, cfg *ResolveConfig, host string) (result []net.IP, err error) {
	if cfg == nil {
		result, err = d.LookupIPServer(ctx, "ip", host, "")
	} else {
		network := cfg.Network
		if network == "" {
			network = "ip"
		}
		result, err = d.LookupIPServer(ctx, network, host, cfg.CustomDNSServer)
	}
	if err == nil && len(result) == 0 {
		err = errors.New("no address found for " + host)
	}
	return
}

// LookupIPServer performs DNS lookup for a host on a custom dns server,
// it calls [net.Resolver.LookupIP] with a Go Resolver behind the scenes.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) LookupIPServer(ctx context.Context, network, host, dns string) ([]net.IP, error) {
	return customServerResolver.LookupIP(dnsServerCtx{ctx, dns}, network, host)
}
