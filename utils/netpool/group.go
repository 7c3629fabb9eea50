package netpool

import (
	"context"
	"sync"
	"time"
)

// PoolGroup keeps one [Pool] per key, usually the host:port a connection
// is made to.
type PoolGroup struct {
	sync.RWMutex
	pools map[interface{}]*Pool

	maxConnsPerHost, maxIdlePerHost uint
	maxIdleTime                     time.Duration
}

func NewGroup(maxConnsPerHost, maxIdlePerHost uint, maxIdleTime time.Duration) *PoolGroup {
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 100
	}
	if maxIdlePerHost > maxConnsPerHost {
		maxIdlePerHost = maxConnsPerHost
	}
	return &PoolGroup{
		pools:           map[interface{}]*Pool{},
		maxIdleTime:     maxIdleTime,
		maxConnsPerHost: maxConnsPerHost, maxIdlePerHost: maxIdlePerHost,
	}
}

// NewEmpty creates a group with the same limits and no connections.
func (g *PoolGroup) NewEmpty() *PoolGroup {
	if g == nil {
		return nil
	}
	return NewGroup(g.maxConnsPerHost, g.maxIdlePerHost, g.maxIdleTime)
}

func (g *PoolGroup) Connect(ctx context.Context, key interface{}, dial DialFunc) (Conn, error) {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if ok {
		return p.Connect(ctx, dial)
	}
	g.Lock()
	if p, ok = g.pools[key]; !ok {
		p = NewPool(g.maxIdlePerHost, g.maxConnsPerHost, g.maxIdleTime)
		g.pools[key] = p
	}
	g.Unlock()
	return p.Connect(ctx, dial)
}

func (g *PoolGroup) CloseIdle() {
	g.RLock()
	defer g.RUnlock()
	for _, p := range g.pools {
		p.CloseIdle()
	}
}
