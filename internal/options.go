package internal

import (
	"github.com/frankli0324/go-fetch/internal/config"
	"github.com/frankli0324/go-fetch/internal/dialer"
	"github.com/frankli0324/go-fetch/internal/logger"
	"github.com/frankli0324/go-fetch/internal/scheme/cdpeval"
	"github.com/frankli0324/go-fetch/utils/netpool"
)

// NewClient creates a Client from cfg, nil means [config.Default]. the
// client gets a connection pool of its own.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	c := &Client{
		Timeout:            cfg.Timeout,
		Logger:             l,
		DisableCompression: cfg.DisableCompression,
	}
	if cfg.Script.DevToolsURL != "" {
		c.Evaluator = cdpeval.New(cfg.Script.DevToolsURL)
	}

	d := dialer.NewCoreDialer()
	d.ConnPool = netpool.NewGroup(cfg.Pool.MaxConnsPerHost, cfg.Pool.MaxIdlePerHost, cfg.Pool.MaxIdleTime)
	d.ResolveConfig = &dialer.ResolveConfig{
		CustomDNSServer: cfg.Resolve.DNSServer,
		Network:         cfg.Resolve.Network,
		StaticHosts:     cfg.Resolve.StaticHosts,
	}
	switch cfg.Proxy.URL {
	case "":
	case "env":
		d.GetProxy = dialer.EnvironmentProxy()
	default:
		d.GetProxy = dialer.StaticProxy(cfg.Proxy.URL)
	}
	d.ProxyConfig.ResolveLocally = cfg.Proxy.ResolveLocally
	c.UseDialer(func(dialer.Dialer) dialer.Dialer { return d })

	if cfg.DisableH2 {
		c.DisableH2()
	}
	return c, nil
}
