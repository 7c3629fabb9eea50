package netpool

import (
	"bufio"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Conn is a connection handed out by a [Pool]. it must be given back with
// either Release, Close or Detach.
type Conn interface {
	io.ReadWriteCloser
	// Release puts the connection back into the idle list of its pool.
	Release()
	// Detach removes the connection from the pool accounting, the caller
	// owns the returned connection from now on.
	Detach() net.Conn
	Raw() net.Conn
	// BufferedReader is what Read reads through, transports parsing
	// messages should reuse it instead of stacking another buffer.
	BufferedReader() *bufio.Reader
	// Reused reports whether the connection served a request before.
	Reused() bool
}

type conn struct {
	net.Conn
	br   *bufio.Reader
	pool *Pool

	inUse     atomic.Bool
	closed    atomic.Bool
	reused    bool
	idleSince time.Time
}

func newConn(p *Pool, c net.Conn) *conn {
	cc := &conn{Conn: c, br: bufio.NewReader(c), pool: p}
	cc.inUse.Store(true)
	return cc
}

func (c *conn) Read(p []byte) (n int, err error) {
	n, err = c.br.Read(p)
	if err != nil && err != io.EOF {
		log.Debug().Err(err).Stringer("remote", c.Conn.RemoteAddr()).Msg("netpool: error on read")
	}
	return
}

func (c *conn) Write(p []byte) (n int, err error) {
	n, err = c.Conn.Write(p)
	if err != nil {
		log.Debug().Err(err).Stringer("remote", c.Conn.RemoteAddr()).Msg("netpool: error on write")
	}
	return
}

func (c *conn) Release() {
	if !c.inUse.CompareAndSwap(true, false) || c.closed.Load() {
		return
	}
	if c.br.Buffered() > 0 { // unsolicited data, the stream is out of sync
		c.Close()
		return
	}
	c.idleSince = time.Now()
	select {
	case c.pool.idle <- c:
	default:
		c.Close()
	}
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.Conn.Close()
	<-c.pool.connTicket
	return err
}

func (c *conn) Detach() net.Conn {
	if c.closed.CompareAndSwap(false, true) {
		<-c.pool.connTicket
	}
	return c.Conn
}

func (c *conn) Raw() net.Conn                 { return c.Conn }
func (c *conn) BufferedReader() *bufio.Reader { return c.br }
func (c *conn) Reused() bool                  { return c.reused }

// usable checks an idle connection before handing it out again.
func (c *conn) usable(maxIdle time.Duration) bool {
	if c.closed.Load() {
		return false
	}
	if maxIdle != 0 && time.Since(c.idleSince) > maxIdle {
		return false
	}
	return alive(c.Conn)
}
