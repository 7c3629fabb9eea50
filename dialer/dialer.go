package dialer

import (
	"github.com/frankli0324/go-fetch/internal/dialer"
)

// Dialers are responsible for creating underlying streams that requests could
// be written to and responses could be read from. for example, opening a raw TCP
// connection for HTTP/1.1 requests, or a stream on a shared HTTP/2 connection.
//
// A Dialer MUST NOT hold active request states, which means a Dialer must be
// able to be swapped out from a [fetch.Client] without pain. It SHOULD hold the
// connection related configs like [ProxyConfig] or *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. It would
// be used by a zero value [fetch.Client].
type CoreDialer = dialer.CoreDialer

// NewCoreDialer creates a CoreDialer negotiating HTTP/2 over TLS.
var NewCoreDialer = dialer.NewCoreDialer

type ProxyConfig = dialer.ProxyConfig

// ProxyFunc picks the proxy for a request, "" for a direct connection.
type ProxyFunc = dialer.ProxyFunc

var (
	StaticProxy      = dialer.StaticProxy
	EnvironmentProxy = dialer.EnvironmentProxy
)

// we need a dedicated resolver for two scenarios:
//
//  1. Resolve remote address locally in proxied requests
//  2. to customize the DNS server used for resolving hostname
//
// the standard library didn't provide a intuitive way of
// setting DNS server addresses since it only follows the
// system configuration (e.g. /etc/resolv.conf), leaving us only
// one option of using [net.Resolver.Dial] hook with a Go Resolver.
type ResolveConfig = dialer.ResolveConfig
