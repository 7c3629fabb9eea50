package netpool

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

type DialFunc func(ctx context.Context) (net.Conn, error)

// Pool limits the connections to a single destination and keeps the idle
// ones around for reuse.
type Pool struct {
	connTicket  chan struct{}
	idle        chan *conn
	maxIdleTime time.Duration
}

func NewPool(maxIdle, maxConn uint, maxIdleTime time.Duration) *Pool {
	return &Pool{
		connTicket:  make(chan struct{}, maxConn),
		idle:        make(chan *conn, maxIdle),
		maxIdleTime: maxIdleTime,
	}
}

func (p *Pool) takeIdle(c *conn) (Conn, bool) {
	if !c.usable(p.maxIdleTime) {
		log.Debug().Stringer("remote", c.Conn.RemoteAddr()).Msg("netpool: dropping stale idle connection")
		c.Close()
		return nil, false
	}
	c.reused = true
	c.inUse.Store(true)
	return c, true
}

// Connect hands out an idle connection if there's a usable one, otherwise
// dials a new one once the connection limit allows it.
func (p *Pool) Connect(ctx context.Context, dial DialFunc) (Conn, error) {
	for {
		select {
		case c := <-p.idle:
			if cc, ok := p.takeIdle(c); ok {
				return cc, nil
			}
			continue
		default:
		}

		select {
		case c := <-p.idle:
			if cc, ok := p.takeIdle(c); ok {
				return cc, nil
			}
		case p.connTicket <- struct{}{}:
			c, err := dial(ctx)
			if err != nil {
				<-p.connTicket
				return nil, err
			}
			return newConn(p, c), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// CloseIdle closes every idle connection of the pool.
func (p *Pool) CloseIdle() {
	for {
		select {
		case c := <-p.idle:
			c.Close()
		default:
			return
		}
	}
}
