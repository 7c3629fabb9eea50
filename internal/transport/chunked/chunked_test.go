package chunked

import (
	"bufio"
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
	"testing/iotest"
)

func TestChunkedWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewChunkedWriter(buf)
	w.Write([]byte("hello"))
	w.Write(nil)
	w.Write([]byte(" world!"))
	if err := w.CloseWithTrailer(nil); err != nil {
		t.Fatal(err)
	}
	if want := "5\r\nhello\r\n7\r\n world!\r\n0\r\n\r\n"; buf.String() != want {
		t.Errorf("got %q", buf.String())
	}
}

func TestChunkedWriterTrailer(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewChunkedWriter(buf)
	w.Write([]byte("0123456789abcdef0"))
	if err := w.CloseWithTrailer(http.Header{"X-Sum": {"1"}, "Expires": {"0"}}); err != nil {
		t.Fatal(err)
	}
	want := "11\r\n0123456789abcdef0\r\n0\r\nExpires: 0\r\nX-Sum: 1\r\n\r\n"
	if buf.String() != want {
		t.Errorf("got %q", buf.String())
	}
	b, err := io.ReadAll(NewChunkedReader(bytes.NewReader(buf.Bytes())))
	if err != nil || string(b) != "0123456789abcdef0" {
		t.Errorf("read back %q %v", b, err)
	}
}

func TestChunkedReader(t *testing.T) {
	raw := "5\r\nhello\r\na;name=value\r\n, chunked!\r\n0\r\nTrailer: x\r\n\r\nNEXT"
	br := strings.NewReader(raw)
	r := NewChunkedReader(iotest.OneByteReader(br))
	b, err := io.ReadAll(r)
	if err != nil || string(b) != "hello, chunked!" {
		t.Errorf("read %q %v", b, err)
	}
	if n, err := r.Read(make([]byte, 1)); n != 0 || err != io.EOF {
		t.Error("reader did not stay at EOF")
	}
}

func TestChunkedReaderStopsAtMessageEnd(t *testing.T) {
	raw := "3\r\nabc\r\n0\r\n\r\nHTTP/1.1"
	br := bufioFrom(raw)
	b, err := io.ReadAll(NewChunkedReader(br))
	if err != nil || string(b) != "abc" {
		t.Fatalf("read %q %v", b, err)
	}
	rest, _ := io.ReadAll(br)
	if string(rest) != "HTTP/1.1" {
		t.Errorf("trailing data consumed: %q", rest)
	}
}

func TestChunkedReaderMalformed(t *testing.T) {
	for _, raw := range []string{
		"zz\r\nhello\r\n0\r\n\r\n",
		"5\r\nhelloXX0\r\n\r\n",
		"5\r\nhel",
		"10000000000000000\r\n",
	} {
		if _, err := io.ReadAll(NewChunkedReader(strings.NewReader(raw))); err == nil {
			t.Errorf("%q accepted", raw)
		}
	}
}

func bufioFrom(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}
