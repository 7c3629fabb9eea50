package transport

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"
)

// Releaser is implemented by pooled connections that could be reused once
// a response is fully consumed.
type Releaser interface {
	Release()
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

var aLongTimeAgo = time.Unix(1, 0)

func getRawConn(c interface{}) net.Conn {
	if conn, ok := c.(interface{ Raw() net.Conn }); ok {
		return conn.Raw()
	}
	return nil
}

func deadlineOf(rw io.ReadWriteCloser) deadliner {
	if c := getRawConn(rw); c != nil {
		return c
	}
	if d, ok := rw.(deadliner); ok {
		return d
	}
	return nil
}

func bufferedReader(r io.Reader) *bufio.Reader {
	switch v := r.(type) {
	case *bufio.Reader:
		return v
	case interface{ BufferedReader() *bufio.Reader }:
		return v.BufferedReader()
	}
	return bufio.NewReader(r)
}

// bodyCloser hands the underlying stream back when the body is finished,
// either released for reuse after a clean EOF or closed otherwise.
type bodyCloser struct {
	io.Reader
	conn     io.Closer
	reusable bool
	done     func() bool // reports false when the stream was interrupted

	once sync.Once
	eof  bool
}

func (b *bodyCloser) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	if err == io.EOF {
		b.eof = true
		b.finish()
	}
	return n, err
}

func (b *bodyCloser) Close() error {
	b.finish()
	return nil
}

func (b *bodyCloser) finish() {
	b.once.Do(func() {
		ok := b.done == nil || b.done()
		if ok && b.eof && b.reusable {
			if r, isReleaser := b.conn.(Releaser); isReleaser {
				r.Release()
				return
			}
		}
		if b.conn != nil {
			b.conn.Close()
		}
	})
}
