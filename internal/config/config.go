// Package config holds the YAML configuration of a fetch client.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Timeout bounds connecting and waiting for the response head of a
	// single round trip.
	Timeout            time.Duration `yaml:"timeout"`
	DisableH2          bool          `yaml:"disableH2"`
	DisableCompression bool          `yaml:"disableCompression"`

	Pool    Pool    `yaml:"pool"`
	Resolve Resolve `yaml:"resolve"`
	Proxy   Proxy   `yaml:"proxy"`
	Script  Script  `yaml:"script"`
	Log     Log     `yaml:"log"`
}

type Pool struct {
	MaxConnsPerHost uint          `yaml:"maxConnsPerHost"`
	MaxIdlePerHost  uint          `yaml:"maxIdlePerHost"`
	MaxIdleTime     time.Duration `yaml:"maxIdleTime"`
}

type Resolve struct {
	Network     string            `yaml:"network"` // "", "ip4" or "ip6"
	DNSServer   string            `yaml:"dnsServer"`
	StaticHosts map[string]string `yaml:"staticHosts"`
}

type Proxy struct {
	// URL of the proxy server, "env" picks it from HTTP_PROXY, HTTPS_PROXY
	// and NO_PROXY.
	URL            string `yaml:"url"`
	ResolveLocally bool   `yaml:"resolveLocally"`
}

type Script struct {
	// DevToolsURL is the DevTools HTTP endpoint javascript urls get
	// evaluated in, e.g. http://127.0.0.1:9222
	DevToolsURL string `yaml:"devtoolsURL"`
}

type Log struct {
	Level   string   `yaml:"level"`
	Writers []string `yaml:"writers"` // "console" and/or "file"
	File    LogFile  `yaml:"file"`
}

type LogFile struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration a zero value client runs with.
func Default() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Pool: Pool{
			MaxConnsPerHost: 100,
			MaxIdlePerHost:  80,
			MaxIdleTime:     90 * time.Second,
		},
		Log: Log{
			Level:   "info",
			Writers: []string{"console"},
			File:    LogFile{MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
		},
	}
}

// Load reads and validates the configuration file at filename.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a YAML document over [Default].
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var levels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

func (c *Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Pool.MaxIdleTime < 0 {
		errs = append(errs, fmt.Errorf("pool.maxIdleTime must not be negative, got %s", c.Pool.MaxIdleTime))
	}
	switch c.Resolve.Network {
	case "", "ip4", "ip6":
	default:
		errs = append(errs, fmt.Errorf("resolve.network must be ip4 or ip6, got %q", c.Resolve.Network))
	}
	if c.Proxy.URL != "" && c.Proxy.URL != "env" && !strings.Contains(c.Proxy.URL, "://") {
		errs = append(errs, fmt.Errorf("proxy.url must be an absolute url or \"env\", got %q", c.Proxy.URL))
	}
	if c.Log.Level != "" && !levels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	for _, w := range c.Log.Writers {
		switch w {
		case "console":
		case "file":
			if c.Log.File.Path == "" {
				errs = append(errs, errors.New("log.file.path is required by the file writer"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown log writer %q", w))
		}
	}
	return errors.Join(errs...)
}
