package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frankli0324/go-fetch/internal/config"
)

const sample = `
timeout: 3s
disableH2: true
pool:
  maxConnsPerHost: 8
  maxIdleTime: 1m
resolve:
  network: ip4
  staticHosts:
    example.com: 127.0.0.1
proxy:
  url: env
script:
  devtoolsURL: http://127.0.0.1:9222
log:
  level: debug
  writers: [console, file]
  file:
    path: /tmp/fetch.log
`

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fetch.yaml")
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 3*time.Second || !cfg.DisableH2 {
		t.Errorf("unexpected top level fields %+v", cfg)
	}
	if cfg.Pool.MaxConnsPerHost != 8 || cfg.Pool.MaxIdleTime != time.Minute {
		t.Errorf("unexpected pool %+v", cfg.Pool)
	}
	// unset keys keep their defaults
	if cfg.Pool.MaxIdlePerHost != 80 || cfg.Log.File.MaxBackups != 3 {
		t.Errorf("defaults lost: %+v %+v", cfg.Pool, cfg.Log.File)
	}
	if cfg.Resolve.StaticHosts["example.com"] != "127.0.0.1" {
		t.Errorf("unexpected static hosts %v", cfg.Resolve.StaticHosts)
	}
	if cfg.Proxy.URL != "env" || cfg.Script.DevToolsURL != "http://127.0.0.1:9222" {
		t.Errorf("unexpected proxy/script %+v %+v", cfg.Proxy, cfg.Script)
	}
	if cfg.Log.Level != "debug" || len(cfg.Log.Writers) != 2 {
		t.Errorf("unexpected log %+v", cfg.Log)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected a not exist error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	for name, doc := range map[string]string{
		"negative timeout": "timeout: -1s",
		"network":          "resolve: {network: tcp}",
		"proxy":            "proxy: {url: localhost:8080}",
		"level":            "log: {level: loud}",
		"writer":           "log: {writers: [syslog]}",
		"file path":        "log: {writers: [file]}",
		"syntax":           "timeout: [",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := config.Parse([]byte(doc)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("timeout %s", cfg.Timeout)
	}
	if !strings.EqualFold(cfg.Log.Level, "info") {
		t.Errorf("level %s", cfg.Log.Level)
	}
}
